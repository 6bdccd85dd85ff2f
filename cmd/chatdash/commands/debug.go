package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strrl/chatdash/internal/timefmt"
	"github.com/strrl/chatdash/pkg/models"
)

// NewDebugCommand creates the debug-session command
func NewDebugCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "debug-session <session-id>",
		Short: "Debug a specific session to see raw data",
		Args:  cobra.ExactArgs(1),
		RunE:  runDebugSession,
	}
}

func runDebugSession(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.load(cmd.Context(), s.cfg.DataFile)
	if err != nil {
		return fmt.Errorf("failed to debug session: %w", err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Debugging session: %s\n", sessionID)
	fmt.Fprintln(w, "==========================================")

	var found *models.SessionSummary
	for i := range list {
		if list[i].ID == sessionID {
			found = &list[i]
			break
		}
	}
	if found == nil {
		fmt.Fprintf(w, "Session not found in %s\n", s.cfg.DataFile)
		return nil
	}

	fmt.Fprintf(w, "Participant: %q\n", found.Participant.Name)
	fmt.Fprintf(w, "Unread count: %d\n", found.UnreadCount)
	if found.LatestMessage == nil {
		fmt.Fprintln(w, "Latest message: <none>")
		return nil
	}
	fmt.Fprintf(w, "Latest message: %q\n", found.LatestMessage.Text)
	fmt.Fprintf(w, "Timestamp: %q\n", found.LatestMessage.Timestamp)
	if _, err := timefmt.Parse(found.LatestMessage.Timestamp); err != nil {
		fmt.Fprintf(w, "Timestamp error: %v\n", err)
	}
	return nil
}
