// Package storecli is the storesync command tree: scoped collections (cart,
// wishlist, compare), session login/logout, support chat, and the
// notification feed, all against a shared KV substrate and the storefront
// backend.
package storecli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/atelierline/storesync/libtracker"
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagTracing bool
)

var rootCmd = &cobra.Command{
	Use:   "storesync",
	Short: "Keep storefront client state in sync: cart, wishlist, compare, chat, notifications.",
	Long: `storesync holds the client-side state of a storefront: identity-scoped
persistent collections (cart, wishlist, compare) with guest-to-user migration
at login, plus polled synchronization of support chat and notifications.

  Quickstart:
    storesync login --token <jwt>     # become a signed-in user (migrates guest data)
    storesync wishlist add p42 --name "Linen shirt" --price 59.90
    storesync cart add p42 --qty 2 --size M
    storesync cart list
    storesync chat open <conversation> # follow a support conversation
    storesync watch                    # stream store events as they happen`,
	SilenceUsage: true,
}

// Main runs the storesync CLI.
func Main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config.yaml (default ~/.storesync/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagTracing, "tracing", false, "log every service operation")

	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(wishlistCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(watchCmd)
}

// signalContext is cancelled on SIGINT/SIGTERM so long-running commands
// (chat open, watch) unwind cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()
	return ctx, cancel
}

// withEngine resolves config, wires the engine, runs fn, and tears down.
// Every command body goes through here.
func withEngine(fn func(ctx context.Context, e *engine) error) error {
	ctx, cancel := signalContext()
	defer cancel()
	ctx = libtracker.WithNewRequestID(ctx)

	cfg, err := resolveConfig(flagConfig)
	if err != nil {
		return err
	}
	if flagTracing {
		cfg.Tracing = true
	}

	e, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer e.close()

	return fn(ctx, e)
}

func printf(format string, args ...any) {
	fmt.Fprintf(os.Stdout, format+"\n", args...)
}
