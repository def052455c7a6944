package extract

import (
	"strings"

	"github.com/hannes/cardscan/ner"
)

// firstSpan returns the text of the earliest entity, or "" when the
// category is empty.
func firstSpan(entities []ner.Entity) string {
	if len(entities) == 0 {
		return ""
	}
	return strings.TrimSpace(entities[0].Text)
}

// joinSpans concatenates all entity texts in reading order, comma
// separated. Location entities on a card are usually fragments of one
// postal address.
func joinSpans(entities []ner.Entity) string {
	parts := make([]string, 0, len(entities))
	for _, entity := range entities {
		if text := strings.TrimSpace(entity.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, ", ")
}
