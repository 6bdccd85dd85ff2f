package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/strrl/chatdash/internal/config"
	"github.com/strrl/chatdash/internal/sessions"
	"github.com/strrl/chatdash/internal/timefmt"
	"github.com/strrl/chatdash/internal/tui/charts"
	"github.com/strrl/chatdash/internal/tui/sessionlist"
	"github.com/strrl/chatdash/internal/tui/theme"
	"github.com/strrl/chatdash/pkg/models"
)

type showOptions struct {
	query  string
	charts bool
	width  int
	height int
}

// NewShowCommand creates the show command
func NewShowCommand() *cobra.Command {
	var opts showOptions
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show sessions and charts without TUI",
		Long: `Show sessions in a non-interactive format.
With --query: only sessions whose participant name contains the query
With --charts: also draws the status ring and the unread bar chart`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "filter sessions by participant name")
	cmd.Flags().BoolVar(&opts.charts, "charts", false, "render the status and unread charts")
	cmd.Flags().IntVar(&opts.width, "width", 60, "chart width in cells")
	cmd.Flags().IntVar(&opts.height, "height", 16, "chart height in cells")
	return cmd
}

func runShow(cmd *cobra.Command, opts showOptions) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	all, err := s.load(cmd.Context(), s.cfg.DataFile)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	out := cmd.OutOrStdout()
	showSessions(out, sessionlist.Filter(all, opts.query), len(all), opts.query)

	if !opts.charts {
		return nil
	}
	return showCharts(out, all, theme.New(s.cfg), opts.width, opts.height)
}

func showSessions(w io.Writer, list []models.SessionSummary, total int, query string) {
	if total == 0 {
		fmt.Fprintln(w, "No sessions found")
		return
	}

	fmt.Fprintf(w, "Chats (%d):\n", total)
	fmt.Fprintln(w, "==========")
	if len(list) == 0 {
		fmt.Fprintf(w, "No sessions match '%s'\n", query)
		return
	}

	for i, s := range list {
		line := fmt.Sprintf("%d. [%s] %s", i+1, sessionlist.Avatar(s), s.DisplayName())
		if b := sessionlist.Badge(s.UnreadCount); b != "" {
			line += " (" + b + " unread)"
		}
		fmt.Fprintln(w, line)
		if s.LatestMessage != nil {
			if ts := timefmt.Short(s.LatestMessage.Timestamp); ts != "" {
				fmt.Fprintf(w, "   %s\n", ts)
			}
		}
		fmt.Fprintf(w, "   %s\n", sessionlist.Preview(s))
	}
}

func showCharts(w io.Writer, list []models.SessionSummary, th theme.Theme, width, height int) error {
	engine := charts.NewCanvasEngine()

	specs := []struct {
		title string
		spec  charts.Spec
	}{
		{"Status", charts.ProportionSpec(sessions.StatusBreakdown(list), th.ProportionPalette)},
		{"Unread by participant", charts.CategoricalSpec(sessions.UnreadByParticipant(list, config.CategoryColorCount), th.CategoryPalette)},
	}

	for _, c := range specs {
		h, err := engine.Construct(charts.Surface{Width: width, Height: height}, c.spec)
		if err != nil {
			return fmt.Errorf("failed to draw %s chart: %w", c.title, err)
		}
		fmt.Fprintf(w, "\n%s\n", th.Title.Render(c.title))
		fmt.Fprintln(w, h.View())
		engine.Destroy(h)
	}
	return nil
}
