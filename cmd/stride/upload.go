// ABOUTME: Upload command
// ABOUTME: Sends a track file to the runs service and adds the new run to the cached list

package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/harper/stride/internal/ui"
	"github.com/harper/stride/internal/upload"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:     "upload <file>",
	Aliases: []string{"up"},
	Short:   "Upload a track file",
	Long: `Upload a GPX file to the runs service.

Files that only contain waypoints are converted to a track first and sent
as <name>_track.gpx. Pass --no-convert to send the file unchanged.

Examples:
  stride upload morning.gpx
  stride upload route.gpx --no-convert`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requirePermitted(); err != nil {
			return err
		}

		path := args[0]
		raw, err := readTrackFile(path)
		if err != nil {
			return err
		}

		noConvert, _ := cmd.Flags().GetBool("no-convert")

		svc := upload.NewService(client, reg,
			upload.WithProducer(cfg.GetProducer()),
			upload.WithLogger(log.With().Str("component", "upload").Logger()),
		)

		res, err := svc.Upload(cmd.Context(), filepath.Base(path), raw, !noConvert)
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", filepath.Base(path), err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, ui.FormatPreview(res.Track.Preview()))
		if res.Payload.Converted {
			fmt.Fprintf(out, "%s Converted waypoints to a track (%s)\n", color.YellowString("↻"), res.Payload.Filename)
		}
		fmt.Fprintf(out, "%s Uploaded\n", color.GreenString("✓"))
		fmt.Fprintln(out, ui.FormatRun(res.Record))
		return nil
	},
}

func init() {
	uploadCmd.Flags().Bool("no-convert", false, "send waypoint-only files without converting them")

	rootCmd.AddCommand(uploadCmd)
}
