package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/wilhg/wellagent/pkg/adapters/llm"
	_ "github.com/wilhg/wellagent/pkg/adapters/llm/anthropic"
	_ "github.com/wilhg/wellagent/pkg/adapters/llm/gemini"
	_ "github.com/wilhg/wellagent/pkg/adapters/llm/openai"
	"github.com/wilhg/wellagent/pkg/assembler"
	"github.com/wilhg/wellagent/pkg/config"
	"github.com/wilhg/wellagent/pkg/logger"
	"github.com/wilhg/wellagent/pkg/monitoring"
	"github.com/wilhg/wellagent/pkg/orchestrator"
	"github.com/wilhg/wellagent/pkg/otel"
	"github.com/wilhg/wellagent/pkg/prompt"
	"github.com/wilhg/wellagent/pkg/reasoning"
	"github.com/wilhg/wellagent/pkg/store/gormstore"
)

// app holds the wired process components.
type app struct {
	cfg   config.Config
	log   *logger.Logger
	st    *gormstore.Store
	orch  *orchestrator.Orchestrator
	close []func(context.Context) error
}

func loadConfig(path string) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}

func loadPrompts(cfg config.Config) (*prompt.Store, error) {
	ps := prompt.Defaults()
	if cfg.PromptsDir != "" {
		if err := ps.Load(os.DirFS(cfg.PromptsDir), "."); err != nil {
			return nil, fmt.Errorf("loading prompts from %s: %w", cfg.PromptsDir, err)
		}
	}
	return ps, nil
}

func newApp(ctx context.Context, path string) (*app, error) {
	cfg, log, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}

	shutdown, err := otel.Init(ctx, otel.Config{
		ServiceVersion: version,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		OTLPInsecure:   cfg.OTLPInsecure,
		UseStdout:      cfg.OTelStdout,
	})
	if err != nil {
		return nil, err
	}
	a.close = append(a.close, shutdown)

	a.st, err = gormstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.close = append(a.close, func(context.Context) error { return a.st.Close() })

	prompts, err := loadPrompts(cfg)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	var gw reasoning.Gateway = reasoning.Disabled{}
	enabled := cfg.ReasoningEnabled()
	if enabled {
		m, err := llm.New(ctx, cfg.LLM.Provider, cfg.ProviderConfig())
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		gw = reasoning.NewLLMGateway(m, reasoning.WithTimeout(cfg.LLM.Timeout), reasoning.WithLogger(log))
	} else {
		log.Warn("no model credentials configured, using deterministic fallbacks", "provider", cfg.LLM.Provider)
	}

	opts := []orchestrator.Option{
		orchestrator.WithLogger(log),
		orchestrator.WithPrompts(prompts),
		orchestrator.WithReasoning(enabled),
		orchestrator.WithReflectionInterval(cfg.ReflectionInterval),
		orchestrator.WithAssembler(assembler.New(
			assembler.WithTokenEstimator(assembler.EstimatorFor(cfg.LLM.Model)),
			assembler.WithMaxTokens(cfg.PromptBudget),
		)),
	}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.close = append(a.close, func(context.Context) error { return rdb.Close() })
		opts = append(opts, orchestrator.WithRecorderOptions(monitoring.WithLocker(monitoring.NewRedisLocker(rdb))))
	}
	a.orch = orchestrator.New(a.st, gw, opts...)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) {
	for i := len(a.close) - 1; i >= 0; i-- {
		if err := a.close[i](ctx); err != nil {
			a.log.Warn("shutdown step failed", "error", err)
		}
	}
	a.log.Sync()
}
