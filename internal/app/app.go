package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/specialistvlad/texgridgo/internal/cache"
	"github.com/specialistvlad/texgridgo/internal/ctxlog"
	"github.com/specialistvlad/texgridgo/internal/evalctx"
	"github.com/specialistvlad/texgridgo/internal/gpu"
	"github.com/specialistvlad/texgridgo/internal/hcl_adapter"
	"github.com/specialistvlad/texgridgo/internal/metanode"
	"github.com/specialistvlad/texgridgo/internal/registry"
	"github.com/specialistvlad/texgridgo/internal/scripthost"
	"github.com/specialistvlad/texgridgo/modules/library"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	config   *Config
	loader   *hcl_adapter.Loader
	registry *registry.Registry
	library  *hcl_adapter.Library
	backend  *gpu.Software
	scripts  scripthost.Client
	thumbs   cache.Cache
	bindings *registry.Bindings

	status     atomic.Pointer[evalctx.Status]
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the node
// library, registers the Go modules, validates both against each other and
// binds the evaluators. With no modules the core modules are used.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config, modules ...registry.Module) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	a := &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		loader: hcl_adapter.NewLoader(),
	}

	sources := []hcl_adapter.Source{library.Source()}
	for _, dir := range cfg.LibraryPaths {
		sources = append(sources, hcl_adapter.DirSource(dir))
	}
	lib, err := a.loader.LoadLibrary(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to load node library: %w", err)
	}
	a.library = lib
	logger.Debug("Node library loaded.", "nodeTypes", lib.Table.Len(), "programs", len(lib.Programs), "scripts", len(lib.Scripts))

	if len(modules) == 0 {
		modules = coreModules
	}
	a.registry = registry.NewWithModules(modules...)
	lib.Register(a.registry)
	logger.Debug("All Go modules registered.", "count", len(modules))

	if err := a.registry.ValidateRegistry(ctx, lib.Table); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")

	a.backend = gpu.NewSoftware(gpu.WithWorkers(cfg.WorkerCount))
	if a.scripts, err = a.openScriptHost(ctx); err != nil {
		return nil, err
	}
	if a.thumbs, err = cache.Open(cfg.Cache); err != nil {
		a.scripts.Close()
		return nil, fmt.Errorf("failed to open thumbnail cache: %w", err)
	}
	a.bindings = a.registry.Bind(ctx, lib.Table, a.backend, a.scripts)
	return a, nil
}

func (a *App) openScriptHost(ctx context.Context) (scripthost.Client, error) {
	sc := a.config.ScriptHost
	if sc.URL == "" {
		a.logger.Debug("No script host configured, using in process script handlers.", "handlers", len(a.registry.ScriptHandlers))
		return a.registry.LocalScriptHost(), nil
	}
	timeout, _ := cache.ParseTTL(sc.Timeout)
	client, err := scripthost.Dial(ctx, scripthost.Options{
		URL:                sc.URL,
		Namespace:          sc.Namespace,
		Timeout:            timeout,
		InsecureSkipVerify: sc.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to script host: %w", err)
	}
	return client, nil
}

// Close releases the programs, the script host and the cache, and stops the
// health check server.
func (a *App) Close(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	errs := []error{a.closeHealthCheckServer(ctx)}
	a.bindings.Release(a.backend)
	errs = append(errs, a.scripts.Close(), a.thumbs.Close())
	return errors.Join(errs...)
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry { return a.registry }

// Table returns the node type table of the loaded library.
func (a *App) Table() *metanode.Table { return a.library.Table }

// Bindings returns the bound evaluators of every node type.
func (a *App) Bindings() *registry.Bindings { return a.bindings }

// Backend returns the render backend.
func (a *App) Backend() gpu.Backend { return a.backend }

// Loader returns the library and project loader.
func (a *App) Loader() *hcl_adapter.Loader { return a.loader }

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger { return a.logger }
