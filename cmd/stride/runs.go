// ABOUTME: Run list, statistics, and remove commands
// ABOUTME: Refresh from the runs service when possible and fall back to the local cache

package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/harper/stride/internal/models"
	"github.com/harper/stride/internal/registry"
	"github.com/harper/stride/internal/stats"
	"github.com/harper/stride/internal/transport"
	"github.com/harper/stride/internal/ui"
	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:     "runs",
	Aliases: []string{"ls"},
	Short:   "List your runs, most recent first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")
		runs, err := loadRuns(cmd, offline)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs yet. Use 'stride upload' to add one.")
			return nil
		}
		for _, r := range runs {
			fmt.Fprintln(out, ui.FormatRun(r))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals, average pace, and distance over time",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		offline, _ := cmd.Flags().GetBool("offline")
		runs, err := loadRuns(cmd, offline)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.FormatSummary(stats.Summarize(runs)))
		fmt.Fprintln(out)
		fmt.Fprintln(out, ui.FormatSeries(stats.Series(runs), 40))
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a run",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePermitted(); err != nil {
			return err
		}

		id := args[0]
		label := id
		if r, ok := reg.Get(id); ok {
			label = fmt.Sprintf("%s (%s)", stats.DefaultTitle(r), id)
		}

		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			fmt.Fprintf(cmd.OutOrStdout(), "Delete run %s? [y/N] ", label)
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
				return nil
			}
		}

		status, err := client.Delete(cmd.Context(), reg.Authorization().Token, id)
		if err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}

		switch status {
		case transport.StatusOK:
			reg.Remove(id)
			fmt.Fprintf(cmd.OutOrStdout(), "%s Deleted %s\n", color.GreenString("✓"), label)
			return nil
		case transport.StatusNotFound:
			return fmt.Errorf("run '%s' not found", id)
		case transport.StatusUnauthorized:
			signOutAfterRejection()
			return fmt.Errorf("session expired; run 'stride login' again")
		default:
			return fmt.Errorf("failed to delete run: %s", status)
		}
	},
}

func init() {
	runsCmd.Flags().Bool("offline", false, "show the cached list without contacting the runs service")
	statsCmd.Flags().Bool("offline", false, "use the cached list without contacting the runs service")
	removeCmd.Flags().Bool("confirm", false, "skip confirmation prompt")

	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(removeCmd)
}

// loadRuns refreshes the registry unless offline is set. A recoverable fetch
// failure falls back to the cached list with a warning.
func loadRuns(cmd *cobra.Command, offline bool) ([]models.RunRecord, error) {
	if offline {
		runs, err := db.ListRuns()
		if err != nil {
			return nil, fmt.Errorf("failed to read cached runs: %w", err)
		}
		synced, _ := db.LastSynced()
		fmt.Fprintln(cmd.ErrOrStderr(), color.New(color.Faint).Sprintf("Cached copy, last synced %s", ui.FormatRelativeTime(synced)))
		return runs, nil
	}

	if err := requirePermitted(); err != nil {
		return nil, err
	}

	_, err := reg.Refresh(cmd.Context())
	var fetchErr *registry.FetchError
	switch {
	case err == nil, errors.Is(err, registry.ErrSuperseded):
	case errors.As(err, &fetchErr):
		synced, _ := db.LastSynced()
		color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "⚠ Could not reach the runs service (%v); showing cached copy from %s\n",
			fetchErr, ui.FormatRelativeTime(synced))
	default:
		return nil, handleRefreshError(cmd, err)
	}
	return reg.Runs(), nil
}
