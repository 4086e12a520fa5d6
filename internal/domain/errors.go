package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrMissingInput is returned when no segment list exists for an episode.
	ErrMissingInput = errors.New("transcript segments not found")
	// ErrResultNotFound is returned when no parsed result exists for an episode.
	ErrResultNotFound = errors.New("episode result not found")
	// ErrTranscriptUnavailable is returned when the upstream has no captions.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	// ErrInvalidEpisodeID is returned for ids that cannot be used as file names.
	ErrInvalidEpisodeID = errors.New("invalid episode id")
)

// ParsedSuffix marks result files that share a directory with raw segment
// files; an id carrying it would alias another episode's result.
const ParsedSuffix = "-parsed"

var episodeIDExpr = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateEpisodeID checks that id is safe to embed in paths and URLs.
func ValidateEpisodeID(id string) error {
	if !episodeIDExpr.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidEpisodeID, id)
	}
	if strings.HasSuffix(id, ParsedSuffix) {
		return fmt.Errorf("%w: %q ends with %s", ErrInvalidEpisodeID, id, ParsedSuffix)
	}
	return nil
}
