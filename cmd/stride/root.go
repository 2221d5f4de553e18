// ABOUTME: Root Cobra command and global flags
// ABOUTME: Loads config and wires logger, run cache, backend client, and registry

package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/harper/stride/internal/config"
	"github.com/harper/stride/internal/logger"
	"github.com/harper/stride/internal/models"
	"github.com/harper/stride/internal/registry"
	"github.com/harper/stride/internal/storage"
	"github.com/harper/stride/internal/transport"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	db     storage.Repository
	client *transport.Client
	reg    *registry.Registry
	log    = zerolog.Nop()

	logLevel string

	now = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "stride",
	Short: "Upload and review your runs",
	Long: `
███████╗████████╗██████╗ ██╗██████╗ ███████╗
██╔════╝╚══██╔══╝██╔══██╗██║██╔══██╗██╔════╝
███████╗   ██║   ██████╔╝██║██║  ██║█████╗
╚════██║   ██║   ██╔══██╗██║██║  ██║██╔══╝
███████║   ██║   ██║  ██║██║██████╔╝███████╗
╚══════╝   ╚═╝   ╚═╝  ╚═╝╚═╝╚═════╝ ╚══════╝

       GPS tracks in, run history out

Examples:
  stride login --token $TOKEN --role owner
  stride preview morning.gpx
  stride upload morning.gpx
  stride runs
  stride stats`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if loaded.EnsureDeviceID() {
			if err := loaded.Save(); err != nil {
				log.Warn().Err(err).Msg("Could not save device ID")
			}
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		return openSession(loaded)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeSession()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// openSession builds the collaborators every command shares. The registry
// starts from the cached collection and writes every change back to it.
func openSession(c *config.Config) error {
	cfg = c
	log = logger.New(c.LogLevel, nil)

	repo, err := c.OpenStorage()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db = repo

	client = transport.NewClient(c.GetServer(),
		transport.WithHTTPClient(&http.Client{Timeout: c.GetRequestTimeout()}),
		transport.WithDeviceID(c.DeviceID),
		transport.WithLogger(log.With().Str("component", "transport").Logger()),
	)

	reg = registry.New(client,
		registry.WithAuthorization(c.Authorization()),
		registry.WithLogger(log.With().Str("component", "registry").Logger()),
		registry.WithObserver(persistRuns),
		registry.WithSyncHook(recordSync),
	)

	cached, err := db.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to read cached runs: %w", err)
	}
	reg.Restore(cached)
	return nil
}

func reopenSession() error {
	if err := closeSession(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return openSession(cfg)
}

func closeSession() error {
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

// recordSync stamps the cache after a refresh that replaced the collection.
func recordSync() {
	if db == nil {
		return
	}
	if err := db.MarkSynced(now()); err != nil {
		log.Warn().Err(err).Msg("Could not record sync time")
	}
}

func persistRuns(runs []models.RunRecord) {
	if db == nil {
		return
	}
	if err := db.ReplaceRuns(runs); err != nil {
		log.Error().Err(err).Int("runs", len(runs)).Msg("Failed to cache runs")
	}
}
