// Package mentions finds product mentions and media cues in podcast transcripts.
//
// The Engine walks segments in order. Each segment is checked for sponsor-read
// phrases (which move the ad window forward), media cue directives, named
// entities from the configured Recognizer and nicotine keywords. Ad windows are
// reported in the run stats; they only drop mentions when the rule set enables
// SuppressAdReads, and nicotine mentions are kept either way.
package mentions

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"MentionsScanner/internal/domain"
	"MentionsScanner/internal/ports"
)

// Engine extracts mentions from one episode per Extract call. It holds no
// per-episode state and may be reused across episodes and goroutines.
type Engine struct {
	rules      *Rules
	recognizer ports.Recognizer
	workers    int
	logger     *slog.Logger
}

var _ ports.Extractor = (*Engine)(nil)

// Option customises an Engine.
type Option func(*Engine)

// WithWorkers runs up to n recognizer calls concurrently ahead of the main
// pass. Output order does not depend on n.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger used for per-segment warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine builds an engine. A nil recognizer disables entity extraction;
// media cues and the nicotine safety net still run.
func NewEngine(rules *Rules, recognizer ports.Recognizer, opts ...Option) *Engine {
	if rules == nil {
		rules = MustCompile(DefaultRuleSet())
	}
	e := &Engine{
		rules:      rules,
		recognizer: recognizer,
		workers:    1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules exposes the compiled tables the engine was built with.
func (e *Engine) Rules() *Rules {
	return e.rules
}

type recognition struct {
	entities []domain.Entity
	err      error
}

// Extract processes segments in index order. Recognizer errors are absorbed
// per segment; only context cancellation aborts the run.
func (e *Engine) Extract(ctx context.Context, segments []domain.TranscriptSegment) (domain.Extraction, error) {
	var (
		out    domain.Extraction
		window = newAdWindow(e.rules.AdWindow())
		ahead  []recognition
	)

	if e.recognizer != nil && e.workers > 1 {
		var err error
		ahead, err = e.recognizeAhead(ctx, segments)
		if err != nil {
			return domain.Extraction{}, err
		}
	}

	for idx, seg := range segments {
		if err := ctx.Err(); err != nil {
			return domain.Extraction{}, err
		}
		out.Stats.Segments++

		text := strings.TrimSpace(seg.Text)
		if text == "" {
			out.Stats.EmptySegments++
			continue
		}

		if e.rules.IsAdRead(text) {
			window.open(idx)
			out.Stats.AdSegments++
		}
		inAdRead := window.covers(idx)
		if inAdRead {
			out.Stats.AdWindowSegments++
		}

		if typ, ok := e.rules.MatchCue(text); ok {
			out.Media = append(out.Media, domain.MediaCue{T: seg.Start, Cue: text, Type: typ})
		}

		var rec recognition
		if ahead != nil {
			rec = ahead[idx]
		} else {
			rec = e.recognize(ctx, seg.Text)
		}
		if rec.err != nil {
			if err := ctx.Err(); err != nil {
				return domain.Extraction{}, err
			}
			out.Stats.RecognizerFailures++
			e.warn("recognizer failed, segment skipped", "segment", idx, "start", seg.Start, "error", rec.err)
		}

		for _, ent := range rec.entities {
			if ent.Label != domain.LabelOrganization && ent.Label != domain.LabelProduct {
				continue
			}
			// A blank span names nothing; results require a non-empty name.
			name := strings.TrimSpace(ent.Text)
			if name == "" || e.rules.IsSkipBrand(name) {
				continue
			}
			if inAdRead && e.rules.SuppressAdReads() {
				out.Stats.SuppressedMentions++
				continue
			}
			out.Products = append(out.Products, domain.ProductMention{
				T:       seg.Start,
				Name:    name,
				Context: text,
				Tags:    e.rules.Categorize(name, text),
			})
		}

		if e.rules.MentionsNicotine(text) {
			out.Products = append(out.Products, domain.ProductMention{
				T:       seg.Start,
				Name:    NicotineMentionName,
				Context: text,
				Tags:    []string{TagRegulatory, TagNicotine},
			})
		}
	}

	return out, nil
}

func (e *Engine) recognize(ctx context.Context, text string) (rec recognition) {
	if e.recognizer == nil {
		return rec
	}
	defer func() {
		if r := recover(); r != nil {
			rec = recognition{err: fmt.Errorf("recognizer panic: %v", r)}
		}
	}()
	rec.entities, rec.err = e.recognizer.Recognize(ctx, text)
	if rec.err != nil {
		rec.entities = nil
	}
	return rec
}

// recognizeAhead fills one slot per non-empty segment using a bounded pool.
func (e *Engine) recognizeAhead(ctx context.Context, segments []domain.TranscriptSegment) ([]recognition, error) {
	results := make([]recognition, len(segments))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, seg := range segments {
		if ctx.Err() != nil {
			break
		}
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		g.Go(func() error {
			results[i] = e.recognize(ctx, seg.Text)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Engine) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
