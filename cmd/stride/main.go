// ABOUTME: Entry point for the stride CLI
// ABOUTME: Executes the root command and maps errors to the exit status

package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
