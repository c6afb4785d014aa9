package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fenestra-io/configurator/internal/adapters/cad"
	"github.com/fenestra-io/configurator/internal/adapters/store"
	"github.com/fenestra-io/configurator/internal/api"
	"github.com/fenestra-io/configurator/internal/core"
	"github.com/fenestra-io/configurator/internal/events"
	"github.com/fenestra-io/configurator/internal/fallback"
	"github.com/fenestra-io/configurator/internal/logging"
	"github.com/fenestra-io/configurator/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the configurator API server",
	Long: `Start the HTTP API the browser front-end talks to.

Examples:
  # Start with defaults (127.0.0.1:8085)
  configurator serve

  # Bind to all interfaces on a custom port
  configurator serve --host 0.0.0.0 --port 3000`,
	RunE: runServe,
}

var (
	serveHost string
	servePort int
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"Host address to bind to (overrides config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"Port to listen on (overrides config)")
}

// offlineBackend stands in for the vendor when no credentials are
// configured. Every call fails with a transport error, which pushes the
// session manager onto the demo catalog.
type offlineBackend struct{}

func (offlineBackend) unconfigured() error {
	return core.ErrTransport(core.CodeModelCreateFailed, "vendor CAD service not configured")
}

func (b offlineBackend) CreateModel(context.Context, string) (string, error) {
	return "", b.unconfigured()
}

func (b offlineBackend) GetUIDefinition(context.Context, string) (*core.UIDefinition, error) {
	return nil, b.unconfigured()
}

func (b offlineBackend) SetOption(context.Context, string, string, string) error {
	return b.unconfigured()
}

func (b offlineBackend) GetDimensions(context.Context, string) (core.Dimensions, error) {
	return nil, b.unconfigured()
}

func (b offlineBackend) SetDimension(context.Context, string, string, float64) (core.Dimensions, error) {
	return nil, b.unconfigured()
}

func (b offlineBackend) RenderImage(context.Context, string, core.ImageRequest) (*core.Image, error) {
	return nil, b.unconfigured()
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Vendor backend, or the demo catalog when unconfigured
	var backend core.Backend
	if cfg.Vendor.BaseURL != "" {
		backend = cad.NewClient(cad.Config{
			BaseURL:     cfg.Vendor.BaseURL,
			TokenURL:    cfg.Vendor.TokenURL,
			APIKey:      cfg.Vendor.APIKey,
			MakerPrefix: cfg.Vendor.MakerPrefix,
			Timeout:     cfg.Vendor.Timeout,
		}, cad.WithLogger(logger.Logger))
		logger.Info("vendor backend configured", "base_url", cfg.Vendor.BaseURL)
	} else {
		backend = offlineBackend{}
		logger.Info("no vendor configured, serving demo catalog only")
	}

	var library *fallback.Library
	if cfg.Fallback.Enabled {
		library, err = fallback.NewLibrary(fallback.WithLogger(logger.Logger))
		if err != nil {
			return fmt.Errorf("loading demo catalog: %w", err)
		}
		if cfg.Fallback.Dir != "" {
			watcher, err := fallback.NewWatcher(library, cfg.Fallback.Dir, logger.Logger)
			if err != nil {
				return fmt.Errorf("watching catalog overrides: %w", err)
			}
			go watcher.Run(ctx)
			logger.Info("watching catalog overrides", "dir", cfg.Fallback.Dir)
		}
	}

	configStore, err := store.New(cfg.Store.Type, cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening configuration store: %w", err)
	}
	defer func() { _ = store.CloseStore(configStore) }()

	bus := events.New(256)
	defer bus.Close()

	managerOpts := []session.ManagerOption{session.WithLogger(logger.Logger)}
	if library != nil {
		managerOpts = append(managerOpts, session.WithSampleProvider(library))
	}
	sessions := session.NewManager(backend, bus, managerOpts...)
	defer sessions.CloseAll()

	serverOpts := []api.ServerOption{
		api.WithLogger(logger.Logger),
		api.WithStore(configStore),
		api.WithCORSOrigins(cfg.Server.CORSOrigins),
	}
	if library != nil {
		serverOpts = append(serverOpts, api.WithCatalog(library))
	}
	srv := api.NewServer(sessions, bus, serverOpts...)

	host := cfg.Server.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.Server.Port
	if servePort != 0 {
		port = servePort
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}
