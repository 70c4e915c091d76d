package storecli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var flagLoginToken string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with a session token; guest wishlist and compare data moves to the user scope.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagLoginToken == "" {
			return fmt.Errorf("--token is required")
		}
		return withEngine(func(ctx context.Context, e *engine) error {
			identity, err := e.identity.Login(ctx, flagLoginToken)
			if err != nil {
				return err
			}
			if err := e.kv.Set(ctx, sessionTokenKey, json.RawMessage(flagLoginToken)); err != nil {
				return fmt.Errorf("persist session: %w", err)
			}
			printf("signed in as %s", identity)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out. Collections stay stored and reappear on the next login.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			e.identity.Logout(ctx)
			if err := e.kv.Delete(ctx, sessionTokenKey); err != nil {
				return fmt.Errorf("forget session: %w", err)
			}
			printf("signed out")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the active identity.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			printf("%s", e.identity.Identity())
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&flagLoginToken, "token", "", "session token issued by the backend")
}
