package main

import (
	"context"
	"fmt"

	"github.com/JaimeStill/docket/internal/artifacts"
	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/infrastructure"
	"github.com/JaimeStill/docket/internal/stages"
	"github.com/JaimeStill/docket/workflow"
)

// app holds the wired pipeline for the lifetime of one command.
type app struct {
	cfg          *config.Config
	infra        *infrastructure.Infrastructure
	runner       *workflow.Runner
	orchestrator *workflow.Orchestrator
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	infra, err := infrastructure.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return wire(cfg, infra)
}

// wire starts infra and assembles the pipeline over it. Infrastructure is
// shut down again when any step fails.
func wire(cfg *config.Config, infra *infrastructure.Infrastructure) (*app, error) {
	a := &app{cfg: cfg, infra: infra}

	if err := infra.Start(); err != nil {
		a.close()
		return nil, err
	}

	rt, err := stages.NewRuntime(cfg, infra.Public, infra.Logger)
	if err != nil {
		a.close()
		return nil, err
	}

	pipeline := stages.Pipeline(rt)
	store := artifacts.New(infra.Output, infra.Content, workflow.Formats(pipeline), infra.Logger)

	runner, err := workflow.NewRunner(pipeline, store, infra.Logger)
	if err != nil {
		a.close()
		return nil, err
	}

	infra.Logger.Debug(
		"docket initialized",
		"version", cfg.Version,
		"env", cfg.Env(),
		"extract", cfg.Extract.Method,
		"storage", cfg.Storage.Backend,
	)

	a.runner = runner
	a.orchestrator = workflow.NewOrchestrator(runner, infra.Logger)
	return a, nil
}

func (a *app) close() {
	if err := a.infra.Lifecycle.Shutdown(a.cfg.ShutdownTimeoutDuration()); err != nil {
		a.infra.Logger.Warn("shutdown incomplete", "error", err)
	}
}

// documents discovers every source PDF in the configured source directory.
func (a *app) documents() ([]workflow.Document, error) {
	docs, err := workflow.Discover(a.cfg.Pipeline.SourceDir)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no pdf documents in %s", a.cfg.Pipeline.SourceDir)
	}
	return docs, nil
}
