package storecli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/atelierline/storesync/cartservice"
	"github.com/atelierline/storesync/chatservice"
	"github.com/atelierline/storesync/compareservice"
	"github.com/atelierline/storesync/identityservice"
	"github.com/atelierline/storesync/libbus"
	"github.com/atelierline/storesync/libdbexec"
	"github.com/atelierline/storesync/libkv"
	"github.com/atelierline/storesync/libtracker"
	"github.com/atelierline/storesync/notificationservice"
	"github.com/atelierline/storesync/shopapi"
	"github.com/atelierline/storesync/wishlistservice"
)

// sessionTokenKey stores the current session token in the KV substrate so the
// identity survives across invocations.
const sessionTokenKey = "session_token"

// engine wires the services for one CLI invocation.
type engine struct {
	cfg Config

	kvManager libkv.Manager
	kv        libkv.Executor
	bus       libbus.Messenger

	identity      identityservice.Service
	cart          cartservice.Service
	wishlist      wishlistservice.Service
	compare       compareservice.Service
	chat          chatservice.Service
	notifications notificationservice.Service
}

func newEngine(ctx context.Context, cfg Config) (*engine, error) {
	kvManager, err := openKV(ctx, cfg)
	if err != nil {
		return nil, err
	}
	kv, err := kvManager.Executor(ctx)
	if err != nil {
		_ = kvManager.Close()
		return nil, fmt.Errorf("kv executor: %w", err)
	}

	bus, err := openBus(ctx, cfg)
	if err != nil {
		_ = kvManager.Close()
		return nil, err
	}

	tracker := libtracker.ActivityTracker(libtracker.NoopTracker{})
	if cfg.Tracing {
		tracker = libtracker.ChainedTracker{
			libtracker.NewLogActivityTracker(slog.Default()),
		}
	}

	identity := identityservice.WithActivityTracker(identityservice.New(kv), tracker)
	restoreSession(ctx, kv, identity)

	api := shopapi.NewClient(cfg.APIBaseURL, identity, nil)

	e := &engine{
		cfg:       cfg,
		kvManager: kvManager,
		kv:        kv,
		bus:       bus,
		identity:  identity,
		cart: cartservice.WithActivityTracker(
			cartservice.New(kv, identity, bus), tracker),
		wishlist: wishlistservice.WithActivityTracker(
			wishlistservice.New(kv, identity, bus), tracker),
		compare: compareservice.WithActivityTracker(
			compareservice.New(kv, identity, bus), tracker),
		chat: chatservice.WithActivityTracker(
			chatservice.New(api, bus, time.Duration(cfg.ChatPollInterval)), tracker),
		notifications: notificationservice.WithActivityTracker(
			notificationservice.New(api, bus, time.Duration(cfg.NotificationPollInterval)), tracker),
	}
	return e, nil
}

func (e *engine) close() {
	e.chat.Close()
	e.notifications.Stop()
	if e.bus != nil {
		_ = e.bus.Close()
	}
	_ = e.kvManager.Close()
}

func openKV(ctx context.Context, cfg Config) (libkv.Manager, error) {
	switch cfg.Backend {
	case "sqlite", "":
		db, err := libdbexec.NewSQLiteDBManager(ctx, cfg.DBPath, libkv.SchemaSQLite)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return libkv.NewSQLManager(db), nil
	case "postgres":
		db, err := libdbexec.NewPostgresDBManager(ctx, cfg.DatabaseURL, libkv.SchemaPostgres)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return libkv.NewSQLManager(db), nil
	case "valkey":
		manager, err := libkv.NewManager(libkv.Config{
			KVAddr:     cfg.KVAddr,
			KVPassword: cfg.KVPassword,
		}, 10*time.Second)
		if err != nil {
			return nil, fmt.Errorf("open valkey store: %w", err)
		}
		return manager, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want sqlite, postgres, or valkey)", cfg.Backend)
	}
}

func openBus(ctx context.Context, cfg Config) (libbus.Messenger, error) {
	if cfg.NATSURL == "" {
		return libbus.NewInMem(), nil
	}
	bus, err := libbus.NewPubSub(ctx, &libbus.Config{
		NATSURL:      cfg.NATSURL,
		NATSUser:     cfg.NATSUser,
		NATSPassword: cfg.NATSPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("connect bus: %w", err)
	}
	return bus, nil
}

// restoreSession logs the stored token back in, if one exists. A token that
// no longer parses is dropped silently and the session stays anonymous.
func restoreSession(ctx context.Context, kv libkv.Executor, identity identityservice.Service) {
	raw, err := kv.Get(ctx, sessionTokenKey)
	if err != nil {
		return
	}
	if _, err := identity.Login(ctx, string(raw)); err != nil {
		_ = kv.Delete(ctx, sessionTokenKey)
	}
}
