package ner

import (
	"context"
	"fmt"
	"sync"

	"github.com/jdkato/prose/v2"

	"MentionsScanner/internal/domain"
	"MentionsScanner/internal/ports"
)

// ProseRecognizer runs the prose entity extractor in-process. prose only
// emits PERSON and GPE, so labels go through a mapping table (GPE→ORG by default).
type ProseRecognizer struct {
	labels  map[string]string
	mu      sync.Mutex
	extract func(text string) ([]prose.Entity, error)
}

var _ ports.Recognizer = (*ProseRecognizer)(nil)

// NewProseRecognizer builds a recognizer; a nil labelMap uses GPE→ORG.
func NewProseRecognizer(labelMap map[string]string) *ProseRecognizer {
	if labelMap == nil {
		labelMap = map[string]string{"GPE": domain.LabelOrganization}
	}
	return &ProseRecognizer{
		labels:  labelMap,
		extract: proseEntities,
	}
}

func proseEntities(text string) ([]prose.Entity, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, err
	}
	return doc.Entities(), nil
}

// Recognize extracts entities and rewrites their labels.
func (p *ProseRecognizer) Recognize(ctx context.Context, text string) ([]domain.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	found, err := p.extract(text)
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("prose extract: %w", err)
	}

	entities := make([]domain.Entity, 0, len(found))
	for _, ent := range found {
		label := ent.Label
		if mapped, ok := p.labels[label]; ok {
			label = mapped
		}
		entities = append(entities, domain.Entity{Text: ent.Text, Label: label})
	}
	return entities, nil
}
