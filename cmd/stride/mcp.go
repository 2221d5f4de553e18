// ABOUTME: MCP serve command
// ABOUTME: Starts the MCP server and keeps the run cache fresh in the background

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harper/stride/internal/config"
	"github.com/harper/stride/internal/mcp"
	"github.com/harper/stride/internal/registry"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for AI agents",
	Long: `Start an MCP server on stdio.

The cached run list is refreshed once at startup. Send SIGHUP after
'stride login' or 'stride logout' in another shell to pick up the new
session without restarting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(db, mcp.WithProducer(cfg.GetProducer()))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			cancel()
		}()

		events := make(chan registry.Authorization, 1)
		go watchSession(ctx, events)
		go func() {
			if err := reg.Watch(ctx, events); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("Session watch stopped")
			}
		}()

		go initialRefresh(ctx)

		return server.Serve(ctx)
	},
}

// initialRefresh updates the cache before the first tool call when the stored
// session may see runs. Without one the cache is served as is.
func initialRefresh(ctx context.Context) {
	if !reg.Authorization().Permitted() {
		log.Info().Msg("Not signed in as a run owner; serving cached runs")
		return
	}
	if _, err := reg.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial refresh failed; serving cached runs")
	}
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// watchSession reloads the config on SIGHUP and forwards the resulting
// authorization to the registry.
func watchSession(ctx context.Context, events chan<- registry.Authorization) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	defer close(events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			loaded, err := config.Load()
			if err != nil {
				log.Warn().Err(err).Msg("Could not reload config")
				continue
			}
			select {
			case events <- loaded.Authorization():
			case <-ctx.Done():
				return
			}
		}
	}
}
