// Package keyword_extractor implements vocabulary-driven extraction of
// clinical entities from free text.  Matching is case-insensitive substring
// search with byte-accurate offsets into the original text; there is no
// tokenisation, no word-boundary logic, and no model inference, which keeps
// the engine deterministic and fast enough to run inline per request.
package keyword_extractor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/ClinFHIR-Bridge/internal/domain/clinical"
	"github.com/turtacn/ClinFHIR-Bridge/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClinFHIR-Bridge/pkg/errors"
)

// ---------------------------------------------------------------------------
// Confidence model
// ---------------------------------------------------------------------------

// Keywords longer than longKeywordLen are considered specific enough to score
// the higher confidence; everything else scores the lower one.  These values
// are part of the engine's contract and are asserted by downstream consumers,
// so they are deliberately not configurable.
const (
	longKeywordLen  = 5
	confidenceLong  = 0.7
	confidenceShort = 0.6
)

// confidenceFor returns the confidence score for a matched keyword.
func confidenceFor(keyword string) float64 {
	if len(keyword) > longKeywordLen {
		return confidenceLong
	}
	return confidenceShort
}

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// ExtractorConfig holds tuneable parameters for the extraction engine.
type ExtractorConfig struct {
	// MaxTextLength caps the input size in bytes.  Longer inputs are
	// rejected rather than truncated so that reported offsets always refer
	// to the caller's text.
	MaxTextLength int `json:"max_text_length" yaml:"max_text_length" mapstructure:"max_text_length"`

	// BatchConcurrency bounds the number of texts processed in parallel by
	// ExtractBatch.  Values below 1 are treated as 1.
	BatchConcurrency int `json:"batch_concurrency" yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
}

// DefaultExtractorConfig returns production-ready defaults.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxTextLength:    100000,
		BatchConcurrency: 4,
	}
}

// ---------------------------------------------------------------------------
// Result
// ---------------------------------------------------------------------------

// ExtractionResult is the output of a single Extract call.  Entities are
// grouped by category in the fixed category order, with source-text scan
// order preserved inside each group.
type ExtractionResult struct {
	Entities         []clinical.Entity `json:"entities"`
	EntityCount      int               `json:"entity_count"`
	ProcessingTimeMs int64             `json:"processing_time_ms"`
	TextLength       int               `json:"text_length"`
}

// ---------------------------------------------------------------------------
// Extractor interface
// ---------------------------------------------------------------------------

// Extractor is the top-level API for clinical entity extraction.
type Extractor interface {
	Extract(ctx context.Context, text string) (*ExtractionResult, error)
	ExtractBatch(ctx context.Context, texts []string) ([]*ExtractionResult, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type keywordExtractorImpl struct {
	vocabulary *clinical.Vocabulary
	config     ExtractorConfig
	logger     logging.Logger
}

// NewKeywordExtractor constructs an extractor over the given vocabulary.
// The vocabulary is required; logger may be nil, in which case output is
// discarded.
func NewKeywordExtractor(vocabulary *clinical.Vocabulary, config ExtractorConfig, logger logging.Logger) (Extractor, error) {
	if vocabulary == nil {
		return nil, errors.InvalidParam("vocabulary is required")
	}
	if config.MaxTextLength <= 0 {
		config.MaxTextLength = DefaultExtractorConfig().MaxTextLength
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &keywordExtractorImpl{
		vocabulary: vocabulary,
		config:     config,
		logger:     logger.Named("extractor"),
	}, nil
}

// Extract locates every vocabulary keyword in text.
//
// The source text is lowercased once (ASCII-only fold, so byte offsets are
// identical between the folded and the original text) and each keyword is
// matched with a forward cursor: after a match at [start, end) the scan for
// that keyword resumes at end, so matches of the same keyword never overlap.
// Matches of different keywords may overlap freely.
//
// Entity.Text always holds the original-cased substring text[Start:End].
func (e *keywordExtractorImpl) Extract(ctx context.Context, text string) (*ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTimeout, "extraction cancelled")
	}
	if len(text) > e.config.MaxTextLength {
		return nil, errors.Newf(errors.ErrCodeTextTooLong,
			"text length %d exceeds limit %d", len(text), e.config.MaxTextLength)
	}
	if text == "" {
		return &ExtractionResult{
			Entities:    []clinical.Entity{},
			EntityCount: 0,
			TextLength:  0,
		}, nil
	}

	start := time.Now()
	lower := asciiLower(text)

	entities := make([]clinical.Entity, 0, 8)
	for _, category := range clinical.CategoryOrder() {
		for _, keyword := range e.vocabulary.Terms(category) {
			entities = appendKeywordMatches(entities, text, lower, keyword, category)
		}
	}

	elapsed := time.Since(start).Milliseconds()
	e.logger.Debug("extraction finished",
		logging.Int("text_length", len(text)),
		logging.Int("entity_count", len(entities)),
		logging.Int64("elapsed_ms", elapsed),
	)

	return &ExtractionResult{
		Entities:         entities,
		EntityCount:      len(entities),
		ProcessingTimeMs: elapsed,
		TextLength:       len(text),
	}, nil
}

// appendKeywordMatches scans lower for keyword with a forward cursor and
// appends one entity per match, with text slices taken from the original.
func appendKeywordMatches(entities []clinical.Entity, text, lower, keyword string, category clinical.Category) []clinical.Entity {
	confidence := confidenceFor(keyword)
	cursor := 0
	for {
		idx := strings.Index(lower[cursor:], keyword)
		if idx < 0 {
			return entities
		}
		matchStart := cursor + idx
		matchEnd := matchStart + len(keyword)
		entities = append(entities, clinical.Entity{
			Text:       text[matchStart:matchEnd],
			Type:       category,
			Start:      matchStart,
			End:        matchEnd,
			Confidence: confidence,
		})
		cursor = matchEnd
	}
}

// ExtractBatch runs Extract over each text with bounded concurrency.
// Result order matches input order.  Individual failures produce empty
// results; an error is returned only when every extraction failed.
func (e *keywordExtractorImpl) ExtractBatch(ctx context.Context, texts []string) ([]*ExtractionResult, error) {
	if len(texts) == 0 {
		return []*ExtractionResult{}, nil
	}

	results := make([]*ExtractionResult, len(texts))
	errs := make([]error, len(texts))

	concurrency := e.config.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, txt := range texts {
		wg.Add(1)
		go func(idx int, t string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := e.Extract(ctx, t)
			results[idx] = res
			errs[idx] = err
		}(i, txt)
	}
	wg.Wait()

	allFailed := true
	for i := range results {
		if errs[i] == nil {
			allFailed = false
		} else if results[i] == nil {
			results[i] = &ExtractionResult{Entities: []clinical.Entity{}}
		}
	}
	if allFailed {
		return results, fmt.Errorf("all %d extractions failed; first error: %w", len(texts), errs[0])
	}
	return results, nil
}

// ---------------------------------------------------------------------------
// Text utilities
// ---------------------------------------------------------------------------

// asciiLower folds ASCII A-Z to a-z and leaves every other byte untouched.
// A full Unicode fold could change byte lengths (e.g. İ) and break the
// offset identity between the folded text and the original, so only ASCII
// is folded.  Vocabulary terms are validated to be lowercase ASCII, which
// makes this sufficient for matching.
func asciiLower(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
