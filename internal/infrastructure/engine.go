package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/bluecite/internal/config"
	"github.com/JaimeStill/bluecite/internal/inference"
	"github.com/JaimeStill/bluecite/internal/metrics"
	"github.com/JaimeStill/bluecite/internal/pipeline"
	"github.com/JaimeStill/bluecite/internal/rules"
	"github.com/JaimeStill/bluecite/internal/stages"
	"github.com/JaimeStill/bluecite/pkg/retry"
	"github.com/JaimeStill/bluecite/pkg/storage"
)

// Engine holds the immutable validation components built once at startup:
// the rule corpus and its index, the regex patterns, the inference client,
// and the metrics registry.
type Engine struct {
	Corpus    *rules.Corpus
	Index     *rules.Index
	Retriever *rules.Retriever
	Patterns  *stages.Patterns
	Inference inference.Client
	Metrics   *metrics.Metrics

	pipeline pipeline.Config
	retry    retry.Policy
	logger   *slog.Logger
}

// NewEngine loads the corpus and patterns named by cfg and builds the index and
// inference client. store is consulted only for a blob corpus source and may be nil.
func NewEngine(ctx context.Context, cfg *config.Config, store storage.System, logger *slog.Logger) (*Engine, error) {
	corpus, err := rules.Open(ctx, &cfg.Corpus, store)
	if err != nil {
		return nil, err
	}

	index, err := rules.Build(corpus, rules.NewWordTokenizer())
	if err != nil {
		return nil, fmt.Errorf("index corpus: %w", err)
	}

	patterns, err := loadPatterns(cfg.Corpus.Patterns)
	if err != nil {
		return nil, err
	}

	client, err := inference.New(&cfg.Inference)
	if err != nil {
		return nil, fmt.Errorf("inference init failed: %w", err)
	}

	stats := corpus.Stats()
	logger.Info("rule corpus loaded",
		"source", cfg.Corpus.Source(),
		"version", stats.Version,
		"rules", stats.Total,
	)

	return &Engine{
		Corpus:    corpus,
		Index:     index,
		Retriever: rules.NewRetriever(index),
		Patterns:  patterns,
		Inference: client,
		Metrics:   metrics.New(),
		pipeline:  cfg.Pipeline,
		retry:     cfg.Retry.Policy(),
		logger:    logger,
	}, nil
}

// Orchestrator assembles the stages and the router around the engine. A nil
// instructions source uses the built-in tier instructions.
func (e *Engine) Orchestrator(instructions stages.InstructionSource) *pipeline.Orchestrator {
	llm := stages.NewLLMStage(e.Inference, stages.LLMOptions{
		Policy:       e.retry,
		Instructions: instructions,
		Observer:     e.Metrics.InferenceAttempt,
	}, e.logger)

	router := pipeline.NewRouter(
		&e.pipeline,
		pipeline.Stages{
			Regex: stages.NewRegexStage(e.Patterns, e.Corpus),
			Rule:  stages.NewRuleStage(e.Corpus),
			LLM:   llm,
		},
		e.Retriever,
		e.Corpus,
		e.Metrics,
		e.logger,
	)

	return pipeline.NewOrchestrator(router, e.pipeline.Workers, e.logger)
}

func loadPatterns(path string) (*stages.Patterns, error) {
	if path == "" {
		return stages.DefaultPatterns()
	}
	return stages.LoadPatterns(path)
}
