package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/soyeahso/maitred/internal/config"
	"github.com/soyeahso/maitred/internal/docstore"
	"github.com/soyeahso/maitred/internal/handler"
	"github.com/soyeahso/maitred/internal/hooks"
	"github.com/soyeahso/maitred/internal/llm"
	"github.com/soyeahso/maitred/internal/logging"
	"github.com/soyeahso/maitred/internal/metrics"
	"github.com/soyeahso/maitred/internal/orchestrator"
	"github.com/soyeahso/maitred/internal/router"
	"github.com/soyeahso/maitred/internal/session"
)

// runtime holds the wired application components shared by serve and chat.
type runtime struct {
	cfg      config.Config
	log      *logging.Logger
	db       *docstore.DB
	recorder *metrics.Recorder
	sessions session.Store
	registry *handler.Registry
	events   *hooks.Manager
	orch     *orchestrator.Orchestrator
}

// close releases everything the runtime opened, in reverse order.
func (rt *runtime) close() {
	if rt.registry != nil {
		rt.registry.Shutdown()
	}
	if rt.recorder != nil {
		rt.recorder.Close()
	}
	if rt.db != nil {
		rt.db.Close()
	}
}

// buildRuntime loads the config and wires the full conversation stack.
func buildRuntime() (*runtime, error) {
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return nil, err
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return nil, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	if err := paths.EnsureDirs(); err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, log: runtimeLogger(cfg)}
	rt.events = hooks.NewManager(rt.log)

	client, err := buildLLMClient(cfg.LLM, rt.log)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Store.Path
	if dbPath == "" {
		dbPath = filepath.Join(paths.Data, "maitred.db")
	}
	rt.db, err = docstore.Open(dbPath, rt.log)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	store := docstore.NewDocuments(rt.db)
	if cfg.Store.Seed {
		if err := docstore.Seed(context.Background(), store); err != nil {
			rt.close()
			return nil, fmt.Errorf("seeding demo data: %w", err)
		}
	}

	idle := time.Duration(cfg.Session.IdleMinutes) * time.Minute
	if cfg.Session.Store == "sqlite" {
		rt.sessions = session.NewSQLiteStore(rt.db, cfg.Session.WindowSize, idle)
		rt.log.Info().Str("path", dbPath).Msg("using SQLite session store")
	} else {
		rt.sessions = session.NewMemoryStore(
			session.WithWindowSize(cfg.Session.WindowSize),
			session.WithIdleTimeout(idle),
		)
		rt.log.Info().Msg("using in-memory session store")
	}

	if cfg.Metrics.Enabled {
		dir := cfg.Metrics.Dir
		if dir == "" {
			dir = paths.Logs
		}
		rt.recorder, err = metrics.NewRecorder(dir, rt.log)
		if err != nil {
			rt.close()
			return nil, err
		}
	}

	rt.registry = handler.NewRegistry(rt.log)
	for name, factory := range map[string]handler.Factory{
		handler.NameMenu:        func() (handler.Handler, error) { return handler.NewMenu(client, store, rt.log), nil },
		handler.NameReservation: func() (handler.Handler, error) { return handler.NewReservation(client, store, rt.log), nil },
		handler.NameOrder:       func() (handler.Handler, error) { return handler.NewOrder(client, store, rt.log), nil },
		handler.NameFAQ:         func() (handler.Handler, error) { return handler.NewFAQ(client, store, rt.log), nil },
	} {
		if err := rt.registry.RegisterFactory(name, factory); err != nil {
			rt.close()
			return nil, err
		}
	}

	opts := []orchestrator.Option{
		orchestrator.WithRecorder(rt.recorder),
		orchestrator.WithEvents(rt.events),
	}
	if cfg.LLM.TimeoutSeconds > 0 {
		opts = append(opts, orchestrator.WithRequestTimeout(time.Duration(cfg.LLM.TimeoutSeconds)*time.Second))
	}
	rt.orch = orchestrator.New(rt.sessions, rt.registry, router.NewClassifier(client, rt.log), rt.log, opts...)
	return rt, nil
}

func runtimeLogger(cfg config.Config) *logging.Logger {
	level := logLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	if cfg.Logging.Style == "json" {
		return logging.NewJSON(os.Stderr, level)
	}
	return logging.New(nil, level)
}

func buildLLMClient(cfg config.LLMConfig, log *logging.Logger) (llm.Client, error) {
	registry := llm.NewRegistry(log)

	switch cfg.Provider {
	case "mistral":
		registry.Register("mistral", llm.NewMistralClient(cfg.APIKey, cfg.Model, cfg.Endpoint))
	case "mock":
		registry.Register("mock", &llm.MockClient{})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	registry.SetFallback(cfg.Provider)
	if cfg.Model != "" {
		registry.Alias(cfg.Model, cfg.Provider)
	}

	return registry.Resolve(cfg.Model)
}
