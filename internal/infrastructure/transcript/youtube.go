package transcript

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"MentionsScanner/internal/domain"
	"MentionsScanner/internal/ports"
)

const youtubeBaseURL = "https://www.youtube.com"

// YouTubeSource downloads caption tracks from the timedtext endpoint.
type YouTubeSource struct {
	client   *http.Client
	baseURL  string
	language string
	logger   *slog.Logger
}

var _ ports.SegmentSource = (*YouTubeSource)(nil)

// NewYouTubeSource wires an HTTP client; baseURL defaults to youtube.com and language to "en".
func NewYouTubeSource(client *http.Client, baseURL, language string, logger *slog.Logger) *YouTubeSource {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if baseURL == "" {
		baseURL = youtubeBaseURL
	}
	if language == "" {
		language = "en"
	}
	return &YouTubeSource{
		client:   client,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		language: language,
		logger:   logger,
	}
}

// Name identifies the strategy inside the registry.
func (y *YouTubeSource) Name() string {
	return "youtube"
}

// FetchSegments returns the caption track of a video as ordered segments.
func (y *YouTubeSource) FetchSegments(ctx context.Context, videoID string) ([]domain.TranscriptSegment, error) {
	if err := domain.ValidateEpisodeID(videoID); err != nil {
		return nil, err
	}

	trackURL, err := y.trackURL(videoID)
	if err != nil {
		return nil, err
	}
	y.debug("fetch captions", "video", videoID, "url", trackURL)

	doc, err := y.fetchDocument(ctx, trackURL)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", videoID, err)
	}

	segments := parseTimedText(doc)
	if len(segments) == 0 {
		return nil, fmt.Errorf("video %s (%s): %w", videoID, y.language, domain.ErrTranscriptUnavailable)
	}

	y.debug("captions parsed", "video", videoID, "segments", len(segments))
	return segments, nil
}

func (y *YouTubeSource) trackURL(videoID string) (string, error) {
	parsed, err := url.Parse(y.baseURL + "/api/timedtext")
	if err != nil {
		return "", fmt.Errorf("invalid base url %s: %w", y.baseURL, err)
	}

	query := parsed.Query()
	query.Set("lang", y.language)
	query.Set("v", videoID)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (y *YouTubeSource) fetchDocument(ctx context.Context, trackURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "MentionsScanner/1.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request captions: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrTranscriptUnavailable
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("youtube returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse captions: %w", err)
	}

	return doc, nil
}

// parseTimedText reads <text start="" dur=""> nodes. Caption bodies arrive
// entity-encoded twice, so the node text is unescaped once more.
func parseTimedText(doc *goquery.Document) []domain.TranscriptSegment {
	var segments []domain.TranscriptSegment

	doc.Find("text").Each(func(_ int, sel *goquery.Selection) {
		text := html.UnescapeString(sel.Text())
		text = strings.Join(strings.Fields(text), " ")

		segments = append(segments, domain.TranscriptSegment{
			Start:    parseSeconds(sel.AttrOr("start", "")),
			Duration: parseSeconds(sel.AttrOr("dur", "")),
			Text:     text,
		})
	})

	return segments
}

func parseSeconds(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func (y *YouTubeSource) debug(msg string, args ...any) {
	if y.logger != nil {
		y.logger.Debug(msg, args...)
	}
}
