package mentions

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MentionsScanner/internal/domain"
	"MentionsScanner/internal/ports"
)

// dictRecognizer tags every known word found in the text.
type dictRecognizer map[string]string

func (d dictRecognizer) Recognize(_ context.Context, text string) ([]domain.Entity, error) {
	var out []domain.Entity
	for word, label := range d {
		if strings.Contains(text, word) {
			out = append(out, domain.Entity{Text: " " + word + " ", Label: label})
		}
	}
	return out, nil
}

func newTestEngine(t *testing.T, rec ports.Recognizer, opts ...Option) *Engine {
	t.Helper()
	rules, err := Compile(DefaultRuleSet())
	require.NoError(t, err)
	return NewEngine(rules, rec, opts...)
}

func TestExtract_SkipBrandInSponsorRead(t *testing.T) {
	engine := newTestEngine(t, dictRecognizer{"DraftKings": domain.LabelOrganization})

	out, err := engine.Extract(context.Background(), []domain.TranscriptSegment{
		{Start: 12.5, Text: "This episode is brought to you by DraftKings, use code JRE"},
	})
	require.NoError(t, err)

	assert.Empty(t, out.Products)
	assert.Empty(t, out.Media)
	assert.Equal(t, 1, out.Stats.AdSegments)
	assert.Equal(t, 1, out.Stats.AdWindowSegments)
}

func TestExtract_SkipBrandIsCaseInsensitive(t *testing.T) {
	engine := newTestEngine(t, dictRecognizer{"gatorade": domain.LabelProduct})

	out, err := engine.Extract(context.Background(), []domain.TranscriptSegment{
		{Start: 1, Text: "I drank a gatorade"},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Products)
}

func TestExtract_PullThatUpCue(t *testing.T) {
	engine := newTestEngine(t, dictRecognizer{})

	out, err := engine.Extract(context.Background(), []domain.TranscriptSegment{
		{Start: 340.0, Text: "  Jamie, pull that up "},
	})
	require.NoError(t, err)

	require.Len(t, out.Media, 1)
	assert.Equal(t, domain.MediaCue{T: 340.0, Cue: "Jamie, pull that up", Type: domain.MediaVideo}, out.Media[0])
	assert.Empty(t, out.Products)
}

func TestExtract_NicotineSafetyNet(t *testing.T) {
	engine := newTestEngine(t, nil)

	out, err := engine.Extract(context.Background(), []domain.TranscriptSegment{
		{Start: 500.2, Text: "I started using Zyn pouches every day"},
	})
	require.NoError(t, err)

	require.Len(t, out.Products, 1)
	got := out.Products[0]
	assert.Equal(t, 500.2, got.T)
	assert.Equal(t, NicotineMentionName, got.Name)
	assert.Equal(t, "I started using Zyn pouches every day", got.Context)
	assert.Equal(t, []string{TagRegulatory, TagNicotine}, got.Tags)
}

func TestExtract_NicotineAlongsideEntityMention(t *testing.T) {
	engine := newTestEngine(t, dictRecognizer{"Lucy": domain.LabelProduct})

	out, err := engine.Extract(context.Background(), []domain.TranscriptSegment{
		{Start: 7, Text: "Lucy makes a nicotine gum"},
	})
	require.NoError(t, err)

	require.Len(t, out.Products, 2)
	assert.Equal(t, "Lucy", out.Products[0].Name)
	assert.Equal(t, []string{TagRegulatory, TagNicotine}, out.Products[0].Tags)
	assert.Equal(t, NicotineMentionName, out.Products[1].Name)
}

func TestExtract_NicotineNeverSuppressed(t *testing.T) {
	rs := DefaultRuleSet()
	rs.SuppressAdReads = true
	rules, err := Compile(rs)
	require.NoError(t, err)
	engine := NewEngine(rules, dictRecognizer{"Lucy": domain.LabelProduct})

	out, err := engine.Extract(context.Background(), []domain.TranscriptSegment{
		{Start: 1, Text: "Go to lucy dot com slash rogan"},
		{Start: 2, Text: "Lucy nicotine pouches are great"},
	})
	require.NoError(t, err)

	require.Len(t, out.Products, 1)
	assert.Equal(t, NicotineMentionName, out.Products[0].Name)
	assert.Equal(t, 1, out.Stats.SuppressedMentions)
}

func TestExtract_AdWindowTrackedNotEnforcedByDefault(t *testing.T) {
	engine := newTestEngine(t, dictRecognizer{"Tesla": domain.LabelOrganization})

	out, err := engine.Extract(context.Background(), []domain.TranscriptSegment{
		{Start: 1, Text: "Use code ROGAN for ten percent off"},
		{Start: 2, Text: "Tesla is building a new plant"},
	})
	require.NoError(t, err)

	require.Len(t, out.Products, 1)
	assert.Equal(t, "Tesla", out.Products[0].Name)
	assert.Equal(t, 2, out.Stats.AdWindowSegments)
	assert.Zero(t, out.Stats.SuppressedMentions)
}

func TestExtract_SuppressAdReadsWindowBounds(t *testing.T) {
	rs := DefaultRuleSet()
	rs.SuppressAdReads = true
	rs.AdWindow = 2
	rules, err := Compile(rs)
	require.NoError(t, err)
	engine := NewEngine(rules, dictRecognizer{"Tesla": domain.LabelOrganization})

	segments := []domain.TranscriptSegment{
		{Start: 0, Text: "promo code JOE"},
		{Start: 1, Text: "Tesla one"},
		{Start: 2, Text: "Tesla two"},
		{Start: 3, Text: "Tesla three"},
	}
	out, err := engine.Extract(context.Background(), segments)
	require.NoError(t, err)

	require.Len(t, out.Products, 1)
	assert.Equal(t, 3.0, out.Products[0].T)
	assert.Equal(t, 2, out.Stats.SuppressedMentions)
}

func TestExtract_IgnoresOtherLabels(t *testing.T) {
	engine := newTestEngine(t, dictRecognizer{"Austin": "GPE", "Elon": "PERSON", "Neuralink": domain.LabelOrganization})

	out, err := engine.Extract(context.Background(), []domain.TranscriptSegment{
		{Start: 3, Text: "Elon moved Neuralink to Austin"},
	})
	require.NoError(t, err)

	require.Len(t, out.Products, 1)
	assert.Equal(t, "Neuralink", out.Products[0].Name)
	assert.Equal(t, "Elon moved Neuralink to Austin", out.Products[0].Context)
}

func TestExtract_BlankEntityTextDropped(t *testing.T) {
	rec := ports.RecognizerFunc(func(context.Context, string) ([]domain.Entity, error) {
		return []domain.Entity{
			{Text: "   ", Label: domain.LabelProduct},
			{Text: "", Label: domain.LabelOrganization},
			{Text: " Notion ", Label: domain.LabelProduct},
		}, nil
	})
	engine := newTestEngine(t, rec)

	out, err := engine.Extract(context.Background(), []domain.TranscriptSegment{
		{Start: 8, Text: "we draft everything in Notion"},
	})
	require.NoError(t, err)

	require.Len(t, out.Products, 1)
	assert.Equal(t, "Notion", out.Products[0].Name)
}

func TestExtract_EmptySegmentsSkipped(t *testing.T) {
	var calls atomic.Int32
	rec := ports.RecognizerFunc(func(context.Context, string) ([]domain.Entity, error) {
		calls.Add(1)
		return nil, nil
	})
	engine := newTestEngine(t, rec)

	out, err := engine.Extract(context.Background(), []domain.TranscriptSegment{
		{Start: 1, Text: ""},
		{Start: 2, Text: "   \n"},
		{Start: 3, Text: "hello"},
	})
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 3, out.Stats.Segments)
	assert.Equal(t, 2, out.Stats.EmptySegments)
}

func TestExtract_RecognizerFailureFailsOpen(t *testing.T) {
	rec := ports.RecognizerFunc(func(_ context.Context, text string) ([]domain.Entity, error) {
		if strings.Contains(text, "boom") {
			return []domain.Entity{{Text: "Ghost", Label: domain.LabelOrganization}}, errors.New("model crashed")
		}
		if strings.Contains(text, "panic") {
			panic("tokenizer exploded")
		}
		return []domain.Entity{{Text: "Apple", Label: domain.LabelOrganization}}, nil
	})
	engine := newTestEngine(t, rec)

	out, err := engine.Extract(context.Background(), []domain.TranscriptSegment{
		{Start: 1, Text: "boom goes the vape"},
		{Start: 2, Text: "panic at the disco"},
		{Start: 3, Text: "Apple released a new app"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, out.Stats.RecognizerFailures)
	require.Len(t, out.Products, 2)
	assert.Equal(t, NicotineMentionName, out.Products[0].Name)
	assert.Equal(t, "Apple", out.Products[1].Name)
	assert.Equal(t, []string{"software"}, out.Products[1].Tags)
}

func TestExtract_CancelledContext(t *testing.T) {
	engine := newTestEngine(t, dictRecognizer{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Extract(ctx, []domain.TranscriptSegment{{Start: 1, Text: "hi"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtract_TimestampsMatchSegments(t *testing.T) {
	engine := newTestEngine(t, dictRecognizer{"Onnit": domain.LabelOrganization, "Kindle": domain.LabelProduct})

	segments := []domain.TranscriptSegment{
		{Start: 0.25, Text: "Roll the clip"},
		{Start: 10.75, Text: "I read it on my Kindle"},
		{Start: 99.5, Text: "listen to this, Onnit makes a vape"},
	}
	out, err := engine.Extract(context.Background(), segments)
	require.NoError(t, err)

	starts := map[float64]bool{}
	for _, s := range segments {
		starts[s.Start] = true
	}
	for _, p := range out.Products {
		assert.True(t, starts[p.T], "product %q has foreign timestamp %v", p.Name, p.T)
	}
	for _, m := range out.Media {
		assert.True(t, starts[m.T], "cue %q has foreign timestamp %v", m.Cue, m.T)
	}
	require.Len(t, out.Media, 2)
	assert.Equal(t, domain.MediaAudio, out.Media[1].Type)
}

func TestExtract_ParallelMatchesSequential(t *testing.T) {
	rec := dictRecognizer{
		"Tesla":     domain.LabelOrganization,
		"Kindle":    domain.LabelProduct,
		"Neuralink": domain.LabelOrganization,
	}
	var segments []domain.TranscriptSegment
	texts := []string{
		"Tesla and Neuralink",
		"",
		"read it on the Kindle app",
		"use code JOE",
		"Jamie pull it up",
		"zyn is nicotine",
		"Neuralink website",
	}
	for i := 0; i < 40; i++ {
		segments = append(segments, domain.TranscriptSegment{Start: float64(i) * 1.5, Text: texts[i%len(texts)]})
	}

	seq, err := newTestEngine(t, rec).Extract(context.Background(), segments)
	require.NoError(t, err)
	par, err := newTestEngine(t, rec, WithWorkers(8)).Extract(context.Background(), segments)
	require.NoError(t, err)

	// dictRecognizer iterates a map, so compare as per-timestamp multisets.
	assert.ElementsMatch(t, seq.Products, par.Products)
	assert.Equal(t, seq.Media, par.Media)
	assert.Equal(t, seq.Stats, par.Stats)
	for i := 1; i < len(par.Products); i++ {
		assert.LessOrEqual(t, par.Products[i-1].T, par.Products[i].T)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	engine := newTestEngine(t, ports.RecognizerFunc(func(context.Context, string) ([]domain.Entity, error) {
		return []domain.Entity{{Text: "Athletic Brewing", Label: domain.LabelOrganization}}, nil
	}))
	segments := []domain.TranscriptSegment{{Start: 4, Text: "Athletic Brewing sells a vitamin powder"}}

	first, err := engine.Extract(context.Background(), segments)
	require.NoError(t, err)
	second, err := engine.Extract(context.Background(), segments)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first.Products, 1)
	assert.Equal(t, []string{"supplement"}, first.Products[0].Tags)
}
