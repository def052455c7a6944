// Package ner wraps named-entity recognition models behind a small
// Recognizer contract and normalizes their open label sets into the
// categories the contact extractor cares about.
package ner

import (
	"context"
	"sort"
	"strings"
)

// Category is the normalized semantic bucket for an entity span.
type Category string

const (
	CategoryPerson       Category = "person"
	CategoryOrganization Category = "organization"
	CategoryLocation     Category = "location"
)

// Input represents the text handed to a recognizer.
type Input struct {
	Text string `json:"text"`
}

// Entity is a contiguous text span tagged with a model label.
type Entity struct {
	Text       string  `json:"text"`
	Label      string  `json:"label"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
}

// Output is the result of running a recognizer over one input.
type Output struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities"`
}

// Recognizer is the NER model contract.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Output, error)
	Close() error
}

// RecognizerProvider yields the current recognizer handle. The Manager
// implements it; tests supply fakes.
type RecognizerProvider interface {
	Recognizer() (Recognizer, error)
}

// Categorize maps an open-set model label onto a category. BIO prefixes are
// stripped first. ok is false for labels with no bucket.
func Categorize(label string) (Category, bool) {
	normalized := strings.TrimPrefix(strings.TrimPrefix(label, "B-"), "I-")
	switch strings.ToUpper(normalized) {
	case "PERSON", "PER":
		return CategoryPerson, true
	case "ORG", "ORGANIZATION", "COMPANY":
		return CategoryOrganization, true
	case "GPE", "LOC", "LOCATION", "FAC", "ADDRESS":
		return CategoryLocation, true
	}
	return "", false
}

// Bucket partitions recognizer output by category, preserving text order.
// Every category key is always present; a category with no spans maps to an
// empty slice, never nil. Labels without a bucket are dropped.
func Bucket(out Output) map[Category][]Entity {
	buckets := map[Category][]Entity{
		CategoryPerson:       {},
		CategoryOrganization: {},
		CategoryLocation:     {},
	}

	entities := make([]Entity, len(out.Entities))
	copy(entities, out.Entities)
	sort.SliceStable(entities, func(i, j int) bool { return entities[i].Start < entities[j].Start })

	for _, entity := range entities {
		category, ok := Categorize(entity.Label)
		if !ok {
			continue
		}
		buckets[category] = append(buckets[category], entity)
	}
	return buckets
}
