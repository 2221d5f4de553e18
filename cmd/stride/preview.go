// ABOUTME: Preview and convert commands for local track files
// ABOUTME: Parse GPX files and rewrite waypoint-only files as tracks without touching the backend

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/harper/stride/internal/track"
	"github.com/harper/stride/internal/ui"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:     "preview <file>",
	Aliases: []string{"p"},
	Short:   "Show points, distance, and duration of a track file",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parsed, err := parseFile(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.FormatPreview(parsed.Preview()))
		if !parsed.ContainsTrack && len(parsed.Points) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), color.New(color.Faint).Sprint("Upload converts waypoints to a track; pass --no-convert to send the file as is."))
		}
		return nil
	},
}

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Rewrite a waypoint-only file as a track",
	Long: `Rewrite a GPX file that only holds waypoints as a single-segment track.

The output is written next to the input as <name>_track.gpx unless
--output is given. Use --output - to write to stdout.

Examples:
  stride convert route.gpx
  stride convert route.gpx -o ~/tracks/route.gpx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		parsed, err := parseFile(path)
		if err != nil {
			return err
		}
		if parsed.ContainsTrack {
			fmt.Fprintln(cmd.OutOrStdout(), "File already contains a track; nothing to convert.")
			return nil
		}

		doc := track.Synthesize(parsed.Points, cfg.GetProducer())

		output, _ := cmd.Flags().GetString("output")
		if output == "-" {
			_, err := cmd.OutOrStdout().Write(doc)
			return err
		}
		if output == "" {
			output = filepath.Join(filepath.Dir(path), track.ConvertedFilename(filepath.Base(path)))
		}

		if err := os.WriteFile(output, doc, 0644); err != nil { //nolint:gosec // 0644 is intentional for track files
			return fmt.Errorf("failed to write file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %d points to %s\n", color.GreenString("✓"), len(parsed.Points), output)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringP("output", "o", "", "output file (default: <name>_track.gpx next to the input)")

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(convertCmd)
}

func readTrackFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is a user-supplied CLI argument
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func parseFile(path string) (*track.ParsedTrack, error) {
	data, err := readTrackFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := track.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return parsed, nil
}
