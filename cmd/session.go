package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vashuvermamarch/portfolio/internal/config"
	"github.com/vashuvermamarch/portfolio/internal/session"
)

var flagPruneOlderThan string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and maintain the session cache",
	Long: `The session cache keeps the repository list between launches from the same terminal.

These commands always operate on the on-disk store, whatever session.backend says.`,
}

var sessionStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show session cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dbPath := config.SessionPath()
		db, err := session.Open(dbPath, cfg.SessionID())
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		defer db.Close()

		stats, err := db.Stats(dbPath)
		if err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Store: %s\n", dbPath)
		fmt.Fprintf(out, "Current session: %s\n", db.SessionID())
		fmt.Fprintf(out, "Sessions: %d\n", stats.Sessions)
		fmt.Fprintf(out, "Values: %d\n", stats.Values)
		fmt.Fprintf(out, "Size: %s\n", formatBytes(stats.Size))
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget everything cached for the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := session.Open(config.SessionPath(), cfg.SessionID())
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		defer db.Close()

		n, err := db.Clear()
		if err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d value(s) from session %s.\n", n, db.SessionID())
		return nil
	},
}

var sessionPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove idle sessions from the cache",
	Long: `Delete sessions that have not been written for longer than the retention period and
reclaim disk space.

Uses the retention value from config (default: 7d) unless overridden with --older-than.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		retention := cfg.RetentionDuration()
		if flagPruneOlderThan != "" {
			d, err := parseOlderThan(flagPruneOlderThan)
			if err != nil {
				return fmt.Errorf("invalid --older-than value: %w", err)
			}
			retention = d
		}

		db, err := session.Open(config.SessionPath(), cfg.SessionID())
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		defer db.Close()

		deleted, err := db.Prune(retention)
		if err != nil {
			return fmt.Errorf("pruning: %w", err)
		}

		out := cmd.OutOrStdout()
		if deleted == 0 {
			fmt.Fprintln(out, "Nothing to prune.")
		} else {
			fmt.Fprintf(out, "Pruned %d value(s) idle for more than %s.\n", deleted, formatDuration(retention))
		}
		return nil
	},
}

func init() {
	sessionPruneCmd.Flags().StringVar(&flagPruneOlderThan, "older-than", "", "override retention period (e.g., 30d, 720h)")

	sessionCmd.AddCommand(sessionStatsCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionCmd.AddCommand(sessionPruneCmd)
}

func parseOlderThan(s string) (time.Duration, error) {
	d, err := config.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	if d >= time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return d.String()
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
