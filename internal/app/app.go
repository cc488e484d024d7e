package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-companion/internal/clients/studyapi"
	"github.com/yungbote/neurobridge-companion/internal/data/credstore"
	httpserver "github.com/yungbote/neurobridge-companion/internal/http"
	"github.com/yungbote/neurobridge-companion/internal/modules/identity"
	"github.com/yungbote/neurobridge-companion/internal/modules/library"
	"github.com/yungbote/neurobridge-companion/internal/modules/workspace"
	"github.com/yungbote/neurobridge-companion/internal/observability"
	"github.com/yungbote/neurobridge-companion/internal/platform/clock"
	"github.com/yungbote/neurobridge-companion/internal/platform/envutil"
	"github.com/yungbote/neurobridge-companion/internal/platform/logger"
)

type Clients struct {
	StudyAPI *studyapi.Client
}

type Services struct {
	Identity  *identity.Session
	Library   *library.Registry
	Workspace *workspace.Workspace
}

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Store    credstore.Store
	Services Services
	Router   *gin.Engine

	stopTracing func(context.Context) error
}

// New loads configuration from the environment and wires the application.
func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return NewWithConfig(ctx, log, cfg)
}

// NewWithConfig wires the application from cfg. Nothing talks to the backend until Start.
func NewWithConfig(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	stopTracing := observability.InitOTel(ctx, log, cfg.Tracing())

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = stopTracing(ctx)
		return nil, err
	}

	log.Info("Opening credential store...", "driver", cfg.Store.Driver)
	store, err := credstore.Open(ctx, log, cfg.storeConfig())
	if err != nil {
		_ = stopTracing(ctx)
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	services := wireServices(log, clients, store)
	router := wireRouter(log, cfg, wireHandlers(log, services), wireMiddleware(log, services))

	return &App{
		Log:         log,
		Cfg:         cfg,
		Clients:     clients,
		Store:       store,
		Services:    services,
		Router:      router,
		stopTracing: stopTracing,
	}, nil
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	api, err := studyapi.New(log, studyapi.Options{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout,
		MaxRetries:        cfg.API.MaxRetries,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init study api client: %w", err)
	}
	return Clients{StudyAPI: api}, nil
}

func wireServices(log *logger.Logger, clients Clients, store credstore.Store) Services {
	log.Info("Wiring services...")
	clk := clock.Real()
	session := identity.New(identity.Deps{Log: log, API: clients.StudyAPI, Store: store, Clock: clk})
	clients.StudyAPI.UseSession(session)

	registry := library.New(library.Deps{Log: log, API: clients.StudyAPI})
	ws := workspace.New(workspace.Deps{
		Log:          log,
		Identity:     session,
		Materials:    registry,
		QuizAPI:      clients.StudyAPI,
		FlashcardAPI: clients.StudyAPI,
		ChatAPI:      clients.StudyAPI,
		Clock:        clk,
	})
	return Services{Identity: session, Library: registry, Workspace: ws}
}

// Start silently resumes a persisted session. A failed resume leaves the companion signed out and
// is not an error.
func (a *App) Start(ctx context.Context) {
	if a == nil {
		return
	}
	if err := a.Services.Identity.Restore(ctx); err != nil {
		a.Log.Warn("stored session not resumed", "error", err)
	}
}

// Run serves the local HTTP API until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return errors.New("app not initialized")
	}
	a.Log.Info("Serving", "addr", a.Cfg.HTTP.Addr)
	return (&httpserver.Server{Engine: a.Router}).Run(ctx, a.Cfg.HTTP.Addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Services.Workspace != nil {
		a.Services.Workspace.Close()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Log.Warn("close credential store", "error", err)
		}
	}
	if a.stopTracing != nil {
		if err := a.stopTracing(context.Background()); err != nil {
			a.Log.Warn("stop tracing", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
