package ports

import (
	"context"

	"MentionsScanner/internal/domain"
)

// SegmentSource yields the ordered transcript segments of one episode.
type SegmentSource interface {
	FetchSegments(ctx context.Context, episodeID string) ([]domain.TranscriptSegment, error)
}

// SegmentStore keeps raw segment lists between fetch and parse runs.
type SegmentStore interface {
	SegmentSource
	SaveSegments(ctx context.Context, episodeID string, segments []domain.TranscriptSegment) error
}

// Recognizer finds named entities in a piece of text.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]domain.Entity, error)
}

// RecognizerFunc adapts a plain function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, text string) ([]domain.Entity, error)

// Recognize calls f.
func (f RecognizerFunc) Recognize(ctx context.Context, text string) ([]domain.Entity, error) {
	return f(ctx, text)
}

// Extractor turns a segment list into mentions and media cues.
type Extractor interface {
	Extract(ctx context.Context, segments []domain.TranscriptSegment) (domain.Extraction, error)
}

// ResultRepository persists episode results with overwrite semantics.
type ResultRepository interface {
	Save(ctx context.Context, result domain.EpisodeResult) error
	Load(ctx context.Context, episodeID string) (domain.EpisodeResult, error)
	List(ctx context.Context) ([]domain.EpisodeResult, error)
}
