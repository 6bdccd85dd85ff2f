package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/strrl/chatdash/internal/config"
	"github.com/strrl/chatdash/internal/db"
	"github.com/strrl/chatdash/internal/logging"
	"github.com/strrl/chatdash/internal/sessions"
	"github.com/strrl/chatdash/internal/timefmt"
	"github.com/strrl/chatdash/internal/tui"
	"github.com/strrl/chatdash/internal/tui/sessionlist"
	"github.com/strrl/chatdash/internal/tui/theme"
	"github.com/strrl/chatdash/pkg/models"
)

var (
	cfgFile   string
	dataFile  string
	watchMode bool
	debugMode bool
)

// swapped in tests
var (
	newLoader = sessions.NewLoader
	closeDB   = db.Close
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chatdash",
		Short: "Browse chat sessions with status and unread charts",
		Long: `chatdash is a TUI dashboard for chat sessions: a searchable session list,
a status ring and an unread-by-participant bar chart, plus an account menu.`,
		RunE:          runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ~/.config/chatdash/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "sessions JSONL file (overrides data_file)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Run in debug mode (list sessions without TUI)")
	rootCmd.Flags().BoolVar(&watchMode, "watch", false, "Reload when the data file changes")

	rootCmd.AddCommand(NewShowCommand())
	rootCmd.AddCommand(NewDebugCommand())
	rootCmd.AddCommand(NewSeedCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// settings is the resolved configuration of one invocation
type settings struct {
	cfg    config.Config
	logger *slog.Logger
	load   sessions.LoadFunc
	closer io.Closer
}

// Close releases the shared DuckDB connection and then the log file
func (s settings) Close() error {
	if err := closeDB(); err != nil {
		s.logger.Warn("failed to close DuckDB", "error", err)
	}
	return s.closer.Close()
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return settings{}, err
	}
	if cmd.Flags().Changed("data") {
		cfg.DataFile = dataFile
	}
	if f := cmd.Flags().Lookup("watch"); f != nil && f.Changed {
		cfg.Watch = watchMode
	}

	logger, closer, err := logging.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return settings{}, err
	}
	logger.Debug("configuration loaded", "data_file", cfg.DataFile, "watch", cfg.Watch)
	return settings{cfg: cfg, logger: logger, load: newLoader(logger), closer: closer}, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()

	// Debug mode: just list sessions without TUI
	if debugMode {
		list, err := s.load(ctx, s.cfg.DataFile)
		if err != nil {
			return fmt.Errorf("failed to load sessions: %w", err)
		}
		return runDebugMode(cmd.OutOrStdout(), list)
	}

	opts := tui.Options{
		DataFile: s.cfg.DataFile,
		Load:     s.load,
		Theme:    theme.New(s.cfg),
		Logger:   s.logger,
	}

	if s.cfg.Watch {
		w, err := sessions.Watch(ctx, s.cfg.DataFile, s.logger)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", s.cfg.DataFile, err)
		}
		defer w.Close()
		opts.Updates = w.Updates()
	}

	selected, err := tui.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if selected == nil {
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", selected.ID, selected.DisplayName())
	return nil
}

func runDebugMode(w io.Writer, list []models.SessionSummary) error {
	fmt.Fprintln(w, "=== Debug Mode: Sessions ===")
	if len(list) == 0 {
		fmt.Fprintln(w, "No sessions found")
		return nil
	}
	for i, s := range list {
		fmt.Fprintf(w, "\n%d. %s (%s)\n", i+1, s.DisplayName(), s.ID)
		fmt.Fprintf(w, "   Unread: %d\n", s.UnreadCount)
		if s.LatestMessage == nil {
			fmt.Fprintf(w, "   %s\n", sessionlist.NoMessagesText)
			continue
		}
		fmt.Fprintf(w, "   Last Activity: %s\n", timefmt.Short(s.LatestMessage.Timestamp))
		fmt.Fprintf(w, "   Preview: %s\n", sessionlist.Preview(s))
	}
	return nil
}
