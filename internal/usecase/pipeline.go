package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"MentionsScanner/internal/domain"
	"MentionsScanner/internal/ports"
)

// ErrNotConfigured is returned when an operation needs an adapter the pipeline was built without.
var ErrNotConfigured = errors.New("pipeline dependency not configured")

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	// Remote downloads fresh transcripts (fetch runs).
	Remote ports.SegmentSource
	// Segments keeps downloaded transcripts between fetch and parse runs.
	Segments ports.SegmentStore
	// Source feeds parse runs; defaults to Segments.
	Source    ports.SegmentSource
	Extractor ports.Extractor
	Results   ports.ResultRepository
	Logger    *slog.Logger
}

// Pipeline implements the fetch, parse and read-back workflows for episodes.
type Pipeline struct {
	remote    ports.SegmentSource
	segments  ports.SegmentStore
	source    ports.SegmentSource
	extractor ports.Extractor
	results   ports.ResultRepository
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	source := deps.Source
	if source == nil && deps.Segments != nil {
		source = deps.Segments
	}
	return &Pipeline{
		remote:    deps.Remote,
		segments:  deps.Segments,
		source:    source,
		extractor: deps.Extractor,
		results:   deps.Results,
		logger:    deps.Logger,
	}
}

// FetchEpisode downloads the transcript of an episode into the segment store
// and returns the number of segments written.
func (p *Pipeline) FetchEpisode(ctx context.Context, episodeID string) (int, error) {
	if p.remote == nil || p.segments == nil {
		return 0, fmt.Errorf("fetch episode: %w", ErrNotConfigured)
	}
	if err := domain.ValidateEpisodeID(episodeID); err != nil {
		return 0, err
	}

	segments, err := p.remote.FetchSegments(ctx, episodeID)
	if err != nil {
		return 0, fmt.Errorf("fetch transcript %s: %w", episodeID, err)
	}

	if err := p.segments.SaveSegments(ctx, episodeID, segments); err != nil {
		return 0, fmt.Errorf("save segments %s: %w", episodeID, err)
	}

	p.info("transcript fetched", "episode", episodeID, "segments", len(segments))
	return len(segments), nil
}

// ProcessEpisode runs extraction over the stored segments of an episode and
// persists the result, replacing any earlier one. Nothing is written when
// reading or extraction fails.
func (p *Pipeline) ProcessEpisode(ctx context.Context, episodeID string) (domain.EpisodeResult, error) {
	if p.source == nil || p.extractor == nil || p.results == nil {
		return domain.EpisodeResult{}, fmt.Errorf("process episode: %w", ErrNotConfigured)
	}
	if err := domain.ValidateEpisodeID(episodeID); err != nil {
		return domain.EpisodeResult{}, err
	}

	runID := uuid.NewString()
	started := time.Now()
	p.debug("episode run started", "run", runID, "episode", episodeID)

	segments, err := p.source.FetchSegments(ctx, episodeID)
	if err != nil {
		return domain.EpisodeResult{}, fmt.Errorf("load segments %s: %w", episodeID, err)
	}

	extraction, err := p.extractor.Extract(ctx, segments)
	if err != nil {
		return domain.EpisodeResult{}, fmt.Errorf("extract mentions %s: %w", episodeID, err)
	}

	result := extraction.Result(episodeID)
	if err := p.results.Save(ctx, result); err != nil {
		return domain.EpisodeResult{}, fmt.Errorf("persist result %s: %w", episodeID, err)
	}

	stats := extraction.Stats
	p.info("episode parsed",
		"run", runID,
		"episode", episodeID,
		"segments", stats.Segments,
		"products", len(result.Products),
		"media", len(result.Media),
		"ad_segments", stats.AdSegments,
		"ad_window_segments", stats.AdWindowSegments,
		"suppressed", stats.SuppressedMentions,
		"recognizer_failures", stats.RecognizerFailures,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)
	return result, nil
}

// RunEpisode fetches the transcript and then processes it.
func (p *Pipeline) RunEpisode(ctx context.Context, episodeID string) (domain.EpisodeResult, error) {
	if _, err := p.FetchEpisode(ctx, episodeID); err != nil {
		return domain.EpisodeResult{}, err
	}
	return p.ProcessEpisode(ctx, episodeID)
}

// Result returns the stored result of one episode.
func (p *Pipeline) Result(ctx context.Context, episodeID string) (domain.EpisodeResult, error) {
	if p.results == nil {
		return domain.EpisodeResult{}, fmt.Errorf("load result: %w", ErrNotConfigured)
	}
	result, err := p.results.Load(ctx, episodeID)
	if err != nil {
		return domain.EpisodeResult{}, fmt.Errorf("load result %s: %w", episodeID, err)
	}
	return result, nil
}

// Results returns every stored result ordered by episode id.
func (p *Pipeline) Results(ctx context.Context) ([]domain.EpisodeResult, error) {
	if p.results == nil {
		return nil, fmt.Errorf("list results: %w", ErrNotConfigured)
	}
	results, err := p.results.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Info(msg, args...)
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(msg, args...)
}
