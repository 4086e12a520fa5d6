package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"MentionsScanner/internal/domain"
	"MentionsScanner/internal/fileutil"
	"MentionsScanner/internal/ports"
)

const (
	parsedSuffix   = domain.ParsedSuffix + ".json"
	lockRetryDelay = 50 * time.Millisecond
)

// FileRepository stores each episode result as {dir}/{episode}-parsed.json.
// Writes replace the whole file under a per-episode lock.
type FileRepository struct {
	dir       string
	validator *ResultValidator
}

var _ ports.ResultRepository = (*FileRepository)(nil)

// NewFileRepository roots the repository at dir.
func NewFileRepository(dir string) (*FileRepository, error) {
	validator, err := NewResultValidator()
	if err != nil {
		return nil, err
	}
	return &FileRepository{dir: dir, validator: validator}, nil
}

// Path returns the result file of an episode.
func (r *FileRepository) Path(episodeID string) string {
	return filepath.Join(r.dir, episodeID+parsedSuffix)
}

// Save validates and writes the result, replacing any earlier one.
func (r *FileRepository) Save(ctx context.Context, result domain.EpisodeResult) error {
	if err := domain.ValidateEpisodeID(result.EpisodeID); err != nil {
		return err
	}
	result.Normalize()

	data, err := fileutil.MarshalJSON(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := r.validator.Validate(data); err != nil {
		return err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create episodes dir: %w", err)
	}

	path := r.Path(result.EpisodeID)
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", path)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// Load reads back one episode result.
func (r *FileRepository) Load(ctx context.Context, episodeID string) (domain.EpisodeResult, error) {
	if err := domain.ValidateEpisodeID(episodeID); err != nil {
		return domain.EpisodeResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.EpisodeResult{}, err
	}
	return r.readFile(r.Path(episodeID))
}

// List returns every stored result ordered by episode id.
func (r *FileRepository) List(ctx context.Context) ([]domain.EpisodeResult, error) {
	paths, err := filepath.Glob(filepath.Join(r.dir, "*"+parsedSuffix))
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	sort.Strings(paths)

	results := make([]domain.EpisodeResult, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.HasPrefix(filepath.Base(path), ".") {
			continue
		}
		result, err := r.readFile(path)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (r *FileRepository) readFile(path string) (domain.EpisodeResult, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.EpisodeResult{}, fmt.Errorf("%w: %s", domain.ErrResultNotFound, path)
	}
	if err != nil {
		return domain.EpisodeResult{}, fmt.Errorf("read result: %w", err)
	}

	if err := r.validator.Validate(data); err != nil {
		return domain.EpisodeResult{}, fmt.Errorf("%s: %w", path, err)
	}

	var result domain.EpisodeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return domain.EpisodeResult{}, fmt.Errorf("decode result %s: %w", path, err)
	}
	result.Normalize()
	return result, nil
}
