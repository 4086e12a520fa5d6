package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"MentionsScanner/internal/config"
	"MentionsScanner/internal/infrastructure/ner"
	"MentionsScanner/internal/infrastructure/storage"
	"MentionsScanner/internal/infrastructure/transcript"
	"MentionsScanner/internal/logging"
	"MentionsScanner/internal/mentions"
	"MentionsScanner/internal/ports"
	"MentionsScanner/internal/source"
	"MentionsScanner/internal/usecase"
)

// Application wires configs to use cases and owns adapter lifecycles.
type Application struct {
	pipeline *usecase.Pipeline
	closers  []func() error
}

// New builds the adapters described by cfg and connects them to the pipeline.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{}

	rules, err := buildRules(cfg.Rules)
	if err != nil {
		return nil, err
	}

	store := transcript.NewFileStore(cfg.Episodes.Dir)
	youtube := transcript.NewYouTubeSource(
		&http.Client{Timeout: cfg.YouTube.Timeout},
		cfg.YouTube.BaseURL,
		cfg.YouTube.Language,
		baseLogger.With("component", "source.youtube"),
	)

	registry := source.NewRegistry(store, youtube)
	parseSource, err := registry.Resolve(cfg.Source.Name)
	if err != nil {
		return nil, fmt.Errorf("resolve source: %w", err)
	}

	recognizer, err := buildRecognizer(cfg.Recognizer)
	if err != nil {
		return nil, err
	}

	results, err := a.buildRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	engine := mentions.NewEngine(rules, recognizer,
		mentions.WithWorkers(cfg.Recognizer.Workers),
		mentions.WithLogger(baseLogger.With("component", "mentions")),
	)

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Remote:    youtube,
		Segments:  store,
		Source:    parseSource,
		Extractor: engine,
		Results:   results,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	baseLogger.Debug("application ready",
		"source", parseSource.Name(),
		"sources", registry.Names(),
		"recognizer", cfg.Recognizer.Driver,
		"storage", cfg.Storage.Driver,
	)
	return a, nil
}

// Pipeline exposes the use case layer to the command line.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Close releases storage connections.
func (a *Application) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func buildRules(cfg config.RulesConfig) (*mentions.Rules, error) {
	rs := mentions.DefaultRuleSet().WithExtraSkipBrands(cfg.ExtraSkipBrands...)
	rs.AdWindow = cfg.AdWindow
	rs.SuppressAdReads = cfg.SuppressAdReads

	rules, err := mentions.Compile(rs)
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}
	return rules, nil
}

func buildRecognizer(cfg config.RecognizerConfig) (ports.Recognizer, error) {
	switch cfg.Driver {
	case "http":
		return ner.NewClient(cfg.Endpoint, cfg.APIKey, cfg.Models, cfg.Timeout), nil
	case "prose":
		return ner.NewProseRecognizer(cfg.LabelMap), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported recognizer driver %q", cfg.Driver)
	}
}

func (a *Application) buildRepository(ctx context.Context, cfg config.Config) (ports.ResultRepository, error) {
	switch cfg.Storage.Driver {
	case "file":
		repo, err := storage.NewFileRepository(cfg.Episodes.Dir)
		if err != nil {
			return nil, fmt.Errorf("file repository: %w", err)
		}
		return repo, nil
	case storage.DriverPostgres, storage.DriverSQLite:
		repo, err := storage.OpenSQL(ctx, cfg.Storage.Driver, cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("sql repository: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
