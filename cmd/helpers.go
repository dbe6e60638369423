package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ziadkadry99/supportdesk/internal/analysis"
	"github.com/ziadkadry99/supportdesk/internal/audit"
	"github.com/ziadkadry99/supportdesk/internal/clock"
	"github.com/ziadkadry99/supportdesk/internal/config"
	"github.com/ziadkadry99/supportdesk/internal/contextmerge"
	"github.com/ziadkadry99/supportdesk/internal/db"
	"github.com/ziadkadry99/supportdesk/internal/llm"
	"github.com/ziadkadry99/supportdesk/internal/logging"
	"github.com/ziadkadry99/supportdesk/internal/notify"
	"github.com/ziadkadry99/supportdesk/internal/queue"
	"github.com/ziadkadry99/supportdesk/internal/related"
	"github.com/ziadkadry99/supportdesk/internal/timeline"
	"github.com/ziadkadry99/supportdesk/internal/triage"
)

// app is the fully wired set of components every command works with.
type app struct {
	cfg       *config.Config
	log       *slog.Logger
	db        *db.DB
	audit     *audit.Store
	scheduler *queue.Scheduler
	engine    *contextmerge.Engine
	stream    *timeline.Stream
	index     *related.Index
	triage    *triage.Service
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `supportdesk init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openApp loads the config, opens the database and builds every component.
// Analysis and the related-ticket index are optional: when their provider
// cannot be created the app runs without them and says so in the log.
func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger := logging.New(level, cfg.Log.Format)

	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	clk := clock.NewMonotonic()
	auditStore := audit.NewStore(database)

	a := &app{
		cfg:   cfg,
		log:   logger,
		db:    database,
		audit: auditStore,
		scheduler: queue.NewScheduler(database, clk, queueOptions(cfg),
			queue.WithAudit(auditStore),
			queue.WithLogger(logger),
		),
		engine: contextmerge.NewEngine(database, clk,
			contextmerge.WithAudit(auditStore),
			contextmerge.WithLogger(logger),
		),
		stream: timeline.NewStream(database, clk,
			timeline.WithTriggerEvery(cfg.Analysis.TriggerEvery),
			timeline.WithLogger(logger),
		),
	}

	opts := []triage.Option{
		triage.WithAudit(auditStore),
		triage.WithLogger(logger),
		triage.WithTimeout(cfg.Analysis.Timeout),
		triage.WithNotifier(notify.NewDispatcher(cfg.Webhooks, logger)),
	}

	if cfg.Analysis.Enabled {
		analyzer, err := createAnalyzerFromConfig(cfg)
		if err != nil {
			logger.Warn("transcript analysis disabled", "provider", cfg.Provider, "error", err)
		} else {
			opts = append(opts, triage.WithAnalyzer(analyzer))
		}
	}

	if cfg.Analysis.RelatedIndex {
		ix, err := related.NewPersistentIndex(cfg.IndexDir(), createEmbedderFromConfig(cfg))
		if err != nil {
			logger.Warn("related-ticket index disabled", "dir", cfg.IndexDir(), "error", err)
		} else {
			a.index = ix
			opts = append(opts, triage.WithIndex(ix))
		}
	}

	a.triage = triage.NewService(a.stream, a.engine, opts...)
	return a, nil
}

// Close waits for background analysis to finish and closes the database.
func (a *app) Close() error {
	a.triage.Wait()
	return a.db.Close()
}

func queueOptions(cfg *config.Config) queue.Options {
	opts := queue.DefaultOptions()
	opts.MinPriority = cfg.Queue.MinPriority
	opts.MaxPriority = cfg.Queue.MaxPriority
	opts.MinutesPerTicket = cfg.Queue.MinutesPerTicket
	if cfg.Queue.PollInterval > 0 {
		opts.PollInterval = cfg.Queue.PollInterval
	}
	return opts
}

// createAnalyzerFromConfig builds the rate-limited LLM analyzer.
func createAnalyzerFromConfig(cfg *config.Config) (analysis.Analyzer, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	provider = llm.NewRateLimitedProvider(provider, cfg.Analysis.RequestsPerMinute)
	return analysis.NewLLMAnalyzer(provider, cfg.Model, cfg.Analysis.MaxTokens), nil
}

// createEmbedderFromConfig picks the embeddings endpoint. Ollama serves
// embeddings itself; every other provider falls back to OpenAI.
func createEmbedderFromConfig(cfg *config.Config) related.Embedder {
	if cfg.Provider == config.ProviderOllama {
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return related.NewOpenAIEmbedder("ollama", strings.TrimRight(host, "/")+"/v1", cfg.EmbeddingModel)
	}
	return related.NewOpenAIEmbedder(os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI)), "", cfg.EmbeddingModel)
}
