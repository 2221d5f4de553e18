// ABOUTME: Backup, import, and export commands for the run cache
// ABOUTME: Write cached runs to YAML or markdown and merge YAML backups back in

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/harper/stride/internal/storage"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Create a YAML backup of cached runs",
	Long: `Create a YAML backup file containing every cached run.

The backup file can be used to:
- Keep a copy of your run history outside the runs service
- Move the cache to another machine
- Inspect runs with ordinary text tools

Examples:
  stride backup --output runs.yaml
  stride backup -o ~/backups/runs-$(date +%Y%m%d).yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		data, err := storage.ExportToYAML(db)
		if err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}

		if output == "" {
			output = fmt.Sprintf("runs-%s.yaml", now().Format("20060102-150405"))
		}

		if err := os.WriteFile(output, data, 0644); err != nil { //nolint:gosec // 0644 is intentional for backup files
			return fmt.Errorf("failed to write backup: %w", err)
		}

		runs, _ := db.ListRuns()

		fmt.Fprintf(cmd.OutOrStdout(), "%s Backup created: %s\n", color.GreenString("✓"), output)
		fmt.Fprintf(cmd.OutOrStdout(), "  %d runs\n", len(runs))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import runs from a YAML backup",
	Long: `Merge runs from a YAML backup into the local cache.

Runs already cached under the same id are overwritten; new runs are added
after the existing ones. The next 'stride runs' replaces the cache with the
service's list again.

Examples:
  stride import runs.yaml
  stride import ~/backups/runs-20241214.yaml --confirm`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]

		data, err := os.ReadFile(filename) //#nosec G304 -- path is a user-supplied CLI argument
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}

		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			fmt.Fprintf(cmd.OutOrStdout(), "Import runs from '%s'? [y/N] ", filename)
			reader := bufio.NewReader(os.Stdin)
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(cmd.OutOrStdout(), "Canceled.")
				return nil
			}
		}

		n, err := storage.ImportFromYAML(db, data)
		if err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}

		runs, _ := db.ListRuns()

		fmt.Fprintf(cmd.OutOrStdout(), "%s Import complete\n", color.GreenString("✓"))
		fmt.Fprintf(cmd.OutOrStdout(), "  %d runs read, %d runs in cache\n", n, len(runs))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:     "export",
	Aliases: []string{"e"},
	Short:   "Export cached runs as markdown or YAML",
	Long: `Export cached runs.

Examples:
  stride export --format markdown
  stride export --format yaml --output runs.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		var data []byte
		var err error
		switch format {
		case "markdown":
			data, err = storage.ExportToMarkdown(db)
		case "yaml":
			data, err = storage.ExportToYAML(db)
		default:
			return fmt.Errorf("unsupported format: %s (use 'markdown' or 'yaml')", format)
		}
		if err != nil {
			return fmt.Errorf("failed to generate %s: %w", format, err)
		}

		output, _ := cmd.Flags().GetString("output")
		if output != "" {
			if err := os.WriteFile(output, data, 0644); err != nil { //nolint:gosec // 0644 is intentional for data export files
				return fmt.Errorf("failed to write file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s to %s\n", format, output)
			return nil
		}

		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	backupCmd.Flags().StringP("output", "o", "", "output file (default: runs-YYYYMMDD-HHMMSS.yaml)")
	importCmd.Flags().Bool("confirm", false, "skip confirmation prompt")
	exportCmd.Flags().StringP("format", "f", "markdown", "output format: markdown or yaml")
	exportCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}
