package ner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

// companySuffixPattern tags lines carrying a corporate suffix as
// organization spans. The stock prose model only emits PERSON and GPE
// labels, so company names need a pattern pass of their own.
var companySuffixPattern = regexp.MustCompile(`(?im)^.{0,80}\b(?:Inc\.?|LLC|LLP|Ltd\.?|GmbH|S\.?A\.?|Corp\.?|Corporation|Company|Co\.|Group|Holdings|Solutions|Technologies|Labs|Studio|Agency)\b.{0,80}$`)

// ProseRecognizer runs the pure-Go prose model over raw text. The model is
// embedded in the library, so the recognizer needs no external files.
type ProseRecognizer struct{}

func NewProseRecognizer() *ProseRecognizer { return &ProseRecognizer{} }

func (r *ProseRecognizer) Name() string { return RecognizerNameProse }

// Recognize tags entities in the input text. Model spans come first, then
// pattern-derived organization spans; Bucket re-sorts by position.
func (r *ProseRecognizer) Recognize(ctx context.Context, in Input) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	doc, err := prose.NewDocument(in.Text)
	if err != nil {
		return Output{}, fmt.Errorf("prose document: %w", err)
	}

	var entities []Entity
	cursor := 0
	for _, ent := range doc.Entities() {
		start := strings.Index(in.Text[cursor:], ent.Text)
		if start < 0 {
			continue
		}
		start += cursor
		cursor = start + len(ent.Text)
		entities = append(entities, Entity{
			Text:       ent.Text,
			Label:      ent.Label,
			Start:      start,
			End:        start + len(ent.Text),
			Confidence: 1.0,
		})
	}

	entities = append(entities, organizationSpans(in.Text, entities)...)

	return Output{Text: in.Text, Entities: entities}, nil
}

func (r *ProseRecognizer) Close() error { return nil }

// organizationSpans returns company-suffix lines not already covered by a
// model entity. Lines that look like contact details rather than names are
// skipped.
func organizationSpans(text string, existing []Entity) []Entity {
	var spans []Entity
	for _, match := range companySuffixPattern.FindAllStringIndex(text, -1) {
		line := strings.TrimSpace(text[match[0]:match[1]])
		if line == "" || strings.Contains(line, "@") || strings.Contains(strings.ToLower(line), "www.") {
			continue
		}
		if overlapsOrganization(match[0], match[1], existing) {
			continue
		}
		spans = append(spans, Entity{
			Text:       line,
			Label:      "ORG",
			Start:      match[0],
			End:        match[1],
			Confidence: 0.8,
		})
	}
	return spans
}

func overlapsOrganization(start, end int, entities []Entity) bool {
	for _, e := range entities {
		if category, ok := Categorize(e.Label); !ok || category != CategoryOrganization {
			continue
		}
		if start < e.End && e.Start < end {
			return true
		}
	}
	return false
}
