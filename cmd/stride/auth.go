// ABOUTME: Login and logout commands
// ABOUTME: Store the session and apply the authorization change to the run registry

package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/harper/stride/internal/registry"
	"github.com/spf13/cobra"
)

var errNotSignedIn = errors.New("not signed in; run 'stride login' first")

var loginCmd = &cobra.Command{
	Use:   "login --token <token> --role <role>",
	Short: "Store a session token",
	Long: `Store the session token and role issued by the runs service.

Runs are only visible to run owners (role "owner" or "runner").
Signing in as an owner refreshes the run list straight away.

Examples:
  stride login --token $TOKEN --role owner
  stride login --token $TOKEN --role owner --server https://runs.example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, _ := cmd.Flags().GetString("token")
		role, _ := cmd.Flags().GetString("role")
		server, _ := cmd.Flags().GetString("server")

		if token == "" {
			return fmt.Errorf("--token is required")
		}
		if server != "" && server != cfg.Server {
			cfg.Server = server
			if err := reopenSession(); err != nil {
				return err
			}
		}

		cfg.SignIn(token, role)
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		out := cmd.OutOrStdout()
		auth := cfg.Authorization()
		if !auth.Permitted() {
			if _, err := reg.SetAuthorization(cmd.Context(), auth); err != nil {
				return handleRefreshError(cmd, err)
			}
			fmt.Fprintf(out, "%s Signed in as %s. Run history is only available to run owners.\n",
				color.GreenString("✓"), auth.Role)
			return nil
		}

		var err error
		if reg.Authorization() == auth {
			// the stored session is already active, so no transition will refresh
			_, err = reg.Refresh(cmd.Context())
		} else {
			_, err = reg.SetAuthorization(cmd.Context(), auth)
		}
		if err != nil {
			return handleRefreshError(cmd, err)
		}
		fmt.Fprintf(out, "%s Signed in. %d runs loaded.\n", color.GreenString("✓"), reg.Len())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session and clear cached runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := reg.SetAuthorization(cmd.Context(), registry.Authorization{}); err != nil {
			return err
		}
		if err := db.Reset(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		cfg.SignOut()
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s Signed out\n", color.GreenString("✓"))
		return nil
	},
}

func init() {
	loginCmd.Flags().String("token", "", "session token")
	loginCmd.Flags().String("role", "", "role reported by the runs service (owner, runner, coach, ...)")
	loginCmd.Flags().String("server", "", "runs service base URL")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// requirePermitted fails unless the stored session may see runs.
func requirePermitted() error {
	auth := reg.Authorization()
	if !auth.Authenticated() {
		return errNotSignedIn
	}
	if !auth.Permitted() {
		return fmt.Errorf("signed in as %s; runs are only available to run owners", auth.Role)
	}
	return nil
}

// handleRefreshError turns registry refresh failures into user-facing errors.
// A rejected session is forgotten so the next command does not retry it.
func handleRefreshError(cmd *cobra.Command, err error) error {
	if errors.Is(err, registry.ErrAuthorizationLost) {
		signOutAfterRejection()
		return fmt.Errorf("session expired; run 'stride login' again")
	}
	var fetchErr *registry.FetchError
	if errors.As(err, &fetchErr) {
		return fmt.Errorf("could not refresh runs: %w", err)
	}
	return err
}

func signOutAfterRejection() {
	cfg.SignOut()
	if err := cfg.Save(); err != nil {
		log.Warn().Err(err).Msg("Could not clear rejected session")
	}
}
