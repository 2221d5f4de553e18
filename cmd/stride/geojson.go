// ABOUTME: GeoJSON command for track files
// ABOUTME: Renders a parsed track as point features or a single line

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/stride/internal/geojson"
	"github.com/spf13/cobra"
)

var geojsonCmd = &cobra.Command{
	Use:   "geojson <file>",
	Short: "Export a track file as GeoJSON",
	Long: `Export the points of a GPX file as GeoJSON.

Examples:
  # One Point feature per track point
  stride geojson morning.gpx

  # A single LineString for the whole route
  stride geojson morning.gpx --geometry line --output morning.geojson`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		geometry, _ := cmd.Flags().GetString("geometry")
		if geometry != "points" && geometry != "line" {
			return fmt.Errorf("unsupported geometry: %s (use 'points' or 'line')", geometry)
		}

		path := args[0]
		parsed, err := parseFile(path)
		if err != nil {
			return err
		}
		if len(parsed.Points) == 0 {
			return fmt.Errorf("no points found")
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		var fc *geojson.FeatureCollection
		if geometry == "line" {
			fc = geojson.FromTrack(parsed, name)
		} else {
			fc = geojson.FromPoints(parsed.Points, name)
		}

		jsonBytes, err := fc.ToJSONIndent()
		if err != nil {
			return fmt.Errorf("failed to generate GeoJSON: %w", err)
		}

		output, _ := cmd.Flags().GetString("output")
		if output != "" {
			if err := os.WriteFile(output, jsonBytes, 0644); err != nil { //nolint:gosec // 0644 is intentional for data export files
				return fmt.Errorf("failed to write file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d points to %s\n", len(parsed.Points), output)
			return nil
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(jsonBytes))
		return nil
	},
}

func init() {
	geojsonCmd.Flags().StringP("geometry", "g", "points", "geometry type: points or line")
	geojsonCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	rootCmd.AddCommand(geojsonCmd)
}
