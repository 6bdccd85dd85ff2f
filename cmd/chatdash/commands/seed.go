package commands

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/strrl/chatdash/internal/sessions"
)

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	var (
		count int
		out   string
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write a sample sessions file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 0 {
				return fmt.Errorf("--count must not be negative, got %d", count)
			}
			if out == "" {
				s, err := loadSettings(cmd)
				if err != nil {
					return err
				}
				defer s.Close()
				out = s.cfg.DataFile
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			return runSeed(out, count, rand.New(rand.NewSource(seed)))
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 25, "number of sessions to generate")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default is the configured data file)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func runSeed(path string, count int, rng *rand.Rand) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// write next to the target, then swap, so a watcher never sees half a file
	tmp, err := os.CreateTemp(filepath.Dir(path), ".seed-*.jsonl")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := sessions.WriteJSONL(tmp, sessions.GenerateSample(count, time.Now(), rng)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move data file into place: %w", err)
	}
	return nil
}
