package config

import (
	"context"
	"fmt"
	"time"

	"pdf-reader-session/internal/domain"
	"pdf-reader-session/internal/infra/supabase"
	"pdf-reader-session/internal/render"
	"pdf-reader-session/internal/repository"
	"pdf-reader-session/internal/service"
	"pdf-reader-session/pkg/logger"
)

const storeConnectTimeout = 10 * time.Second

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	SupabaseClient domain.SupabaseClient
	SessionStore   domain.SessionStore
	AuthService    *service.AuthService
	Opener         *render.Opener
	Events         *service.EventHub
	SessionService *service.SessionService

	closers []func() error
}

// NewContainer creates a new dependency injection container from the environment
func NewContainer() (*Container, error) {
	cfg := NewConfig()
	return NewContainerWithConfig(cfg, logger.NewLogger(cfg.GetLogLevel()))
}

// NewContainerWithConfig wires every dependency from cfg. Supabase is initialized
// when configured; it then validates bearer tokens and may also serve as the store.
func NewContainerWithConfig(cfg domain.Config, appLogger domain.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: appLogger,
	}

	if cfg.GetSupabaseURL() != "" && cfg.GetSupabaseKey() != "" {
		client := supabase.NewSupabaseClient(cfg, appLogger)
		if err := client.Initialize(); err != nil {
			return nil, fmt.Errorf("initialize supabase: %w", err)
		}
		c.SupabaseClient = client
		c.AuthService = service.NewAuthService(client, appLogger)
	}

	store, err := c.openStore()
	if err != nil {
		return nil, err
	}
	c.SessionStore = store

	c.Opener = render.NewOpener(cfg.GetDocumentRoot(), appLogger)
	c.Events = service.NewEventHub(appLogger)
	c.SessionService = service.NewSessionService(
		store,
		c.Opener,
		c.Events,
		cfg.GetReaderSettings(),
		service.SessionOptions{
			IdleTimeout:    time.Duration(cfg.GetSessionIdleTimeoutMinutes()) * time.Minute,
			SweepSpec:      cfg.GetSessionSweepSpec(),
			WatchDocuments: cfg.GetWatchDocuments(),
		},
		appLogger,
	)
	return c, nil
}

func (c *Container) openStore() (domain.SessionStore, error) {
	kind := c.Config.GetSessionStore()
	switch kind {
	case "sqlite":
		store, err := repository.OpenSQLite(c.Config.GetDatabasePath(), c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
		c.Logger.Info("Using sqlite session store", "path", c.Config.GetDatabasePath())
		return store, nil
	case "postgres", "mysql":
		ctx, cancel := context.WithTimeout(context.Background(), storeConnectTimeout)
		defer cancel()
		store, err := repository.OpenSQL(ctx, repository.Dialect(kind), c.Config.GetDatabaseURL(), c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
		c.Logger.Info("Using sql session store", "dialect", kind)
		return store, nil
	case "supabase":
		if c.SupabaseClient == nil {
			return nil, fmt.Errorf("supabase session store requires SUPABASE_URL and SUPABASE_ANON_KEY")
		}
		c.Logger.Info("Using supabase session store")
		return repository.NewSupabaseSessionStore(c.SupabaseClient, c.Logger), nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q", kind)
	}
}

// Close releases the session store.
func (c *Container) Close() error {
	var firstErr error
	for _, closer := range c.closers {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}
