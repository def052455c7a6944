package extract

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hannes/cardscan/fields"
	"github.com/hannes/cardscan/geocode"
	"github.com/hannes/cardscan/imgproc"
	"github.com/hannes/cardscan/metrics"
	"github.com/hannes/cardscan/ner"
	"github.com/hannes/cardscan/ocr"
)

// Pipeline wires the extraction stages together. It is safe for
// concurrent use; all stage dependencies are read-only after
// construction.
type Pipeline struct {
	engine      ocr.Engine
	recognizers ner.RecognizerProvider
	normalizer  geocode.Normalizer
	languages   []string
	phoneRegion string
	logger      *logrus.Entry
}

// NewPipeline assembles a pipeline from its stage implementations.
func NewPipeline(engine ocr.Engine, recognizers ner.RecognizerProvider, normalizer geocode.Normalizer, languages []string, phoneRegion string, logger *logrus.Entry) *Pipeline {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Pipeline{
		engine:      engine,
		recognizers: recognizers,
		normalizer:  normalizer,
		languages:   languages,
		phoneRegion: phoneRegion,
		logger:      logger,
	}
}

// Extract runs the full pipeline on a raw uploaded image and returns the
// parsed contact record. Failures carry the stage that produced them.
func (p *Pipeline) Extract(ctx context.Context, image []byte) (ContactRecord, error) {
	start := time.Now()
	prepared, err := imgproc.Preprocess(image)
	metrics.ObserveStage(StagePreprocess, time.Since(start))
	if err != nil {
		return ContactRecord{}, &StageError{Stage: StagePreprocess, Err: err}
	}

	start = time.Now()
	recognized, err := p.engine.Recognize(ctx, ocr.Input{Image: prepared, Languages: p.languages})
	metrics.ObserveStage(StageRecognize, time.Since(start))
	if err != nil {
		return ContactRecord{}, &StageError{Stage: StageRecognize, Err: err}
	}

	start = time.Now()
	record, err := p.parse(ctx, recognized.PlainText)
	metrics.ObserveStage(StageParse, time.Since(start))
	if err != nil {
		return ContactRecord{}, &StageError{Stage: StageParse, Err: err}
	}
	return record, nil
}

// parse turns recognized text into a contact record. Empty text short
// circuits to an all-placeholder record; a card with no readable text is
// a valid outcome, not an error.
func (p *Pipeline) parse(ctx context.Context, text string) (ContactRecord, error) {
	var name, company, address string
	if text != "" {
		recognizer, err := p.recognizers.Recognizer()
		if err != nil {
			return ContactRecord{}, err
		}
		output, err := recognizer.Recognize(ctx, ner.Input{Text: text})
		if err != nil {
			return ContactRecord{}, err
		}

		buckets := ner.Bucket(output)
		name = firstSpan(buckets[ner.CategoryPerson])
		company = firstSpan(buckets[ner.CategoryOrganization])
		address = p.extractAddress(ctx, buckets[ner.CategoryLocation])
	}

	phones := fields.Phones(text, p.phoneRegion)
	email := fields.Email(text)
	website := fields.Website(text)

	metrics.RecordField("name", name != "")
	metrics.RecordField("company", company != "")
	metrics.RecordField("address", address != "")
	metrics.RecordField("phones", len(phones) > 0)
	metrics.RecordField("email", email != "")
	metrics.RecordField("website", website != "")

	return AssembleRecord(name, company, address, phones, email, website), nil
}

// extractAddress joins location spans into one candidate and asks the
// normalizer for a canonical form. Normalization failures degrade to the
// raw candidate.
func (p *Pipeline) extractAddress(ctx context.Context, locations []ner.Entity) string {
	candidate := joinSpans(locations)
	if candidate == "" {
		return ""
	}

	normalized, err := p.normalizer.Normalize(ctx, candidate)
	if err != nil {
		p.logger.WithError(err).WithField("normalizer", p.normalizer.Name()).
			Warn("address normalization failed, keeping raw candidate")
		return candidate
	}
	if normalized == "" {
		return candidate
	}
	return normalized
}
