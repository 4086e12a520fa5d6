package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"MentionsScanner/internal/domain"
	"MentionsScanner/internal/fileutil"
	"MentionsScanner/internal/ports"
)

// FileStore keeps raw segment lists as {dir}/{episode}.json.
type FileStore struct {
	dir string
}

var _ ports.SegmentStore = (*FileStore)(nil)

// NewFileStore roots the store at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Name identifies the strategy inside the registry.
func (s *FileStore) Name() string {
	return "file"
}

// Path returns the raw segment file of an episode.
func (s *FileStore) Path(episodeID string) string {
	return filepath.Join(s.dir, episodeID+".json")
}

type rawSegment struct {
	Start    json.RawMessage `json:"start"`
	Text     *string         `json:"text"`
	Duration json.RawMessage `json:"duration"`
}

// FetchSegments loads a segment list. Elements that are not objects or have
// no string text keep their position as empty segments so indices stay
// aligned with the recording; the engine skips them. A start or duration that
// is missing, negative or not a number reads as 0.
func (s *FileStore) FetchSegments(ctx context.Context, episodeID string) ([]domain.TranscriptSegment, error) {
	if err := domain.ValidateEpisodeID(episodeID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(episodeID)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingInput, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read segments: %w", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode segments %s: %w", path, err)
	}

	segments := make([]domain.TranscriptSegment, len(items))
	for i, item := range items {
		var seg rawSegment
		if err := json.Unmarshal(item, &seg); err != nil {
			continue
		}
		if seg.Text == nil {
			continue
		}
		segments[i] = domain.TranscriptSegment{
			Start:    seconds(seg.Start),
			Text:     *seg.Text,
			Duration: seconds(seg.Duration),
		}
	}

	return segments, nil
}

func seconds(raw json.RawMessage) float64 {
	var v float64
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil || v < 0 {
		return 0
	}
	return v
}

// SaveSegments writes the list, replacing any earlier copy.
func (s *FileStore) SaveSegments(ctx context.Context, episodeID string, segments []domain.TranscriptSegment) error {
	if err := domain.ValidateEpisodeID(episodeID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if segments == nil {
		segments = []domain.TranscriptSegment{}
	}

	data, err := fileutil.MarshalJSON(segments)
	if err != nil {
		return fmt.Errorf("encode segments: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.Path(episodeID), data, 0o644); err != nil {
		return fmt.Errorf("write segments: %w", err)
	}
	return nil
}
