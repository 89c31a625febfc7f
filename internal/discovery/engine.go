package discovery

import (
	"context"
	"log/slog"
	"sort"

	"FeedCurator/internal/domain"
	"FeedCurator/internal/feed"
)

// validator is the slice of the feed validator the engine needs; tests plug
// in fakes.
type validator interface {
	Validate(ctx context.Context, url string) *feed.ValidationResult
}

// Engine merges strategy proposals, ranks them by confidence, and validates
// only the top few so one recovery attempt costs a bounded number of
// round-trips.
type Engine struct {
	strategies    []Strategy
	validator     validator
	maxCandidates int
	logger        *slog.Logger
}

// NewEngine builds the engine. A zero maxCandidates defaults to 3.
func NewEngine(strategies []Strategy, v validator, maxCandidates int, logger *slog.Logger) *Engine {
	if maxCandidates <= 0 {
		maxCandidates = 3
	}
	return &Engine{
		strategies:    strategies,
		validator:     v,
		maxCandidates: maxCandidates,
		logger:        logger,
	}
}

// DefaultStrategies returns the ranked-strategy table applied to every entry.
// Strategy applicability is decided inside each Propose by source type.
func DefaultStrategies(pathGuess *PathGuessStrategy) []Strategy {
	return []Strategy{
		NewKnownMappingStrategy(nil),
		ProtocolUpgradeStrategy{},
		PatternStrategy{},
		pathGuess,
	}
}

// Discover returns the first candidate that validates, or nil when none of
// the probed candidates do. A nil result is not an error: it means no
// replacement could be confirmed.
func (e *Engine) Discover(ctx context.Context, entry *domain.CatalogEntry) (*Candidate, error) {
	if entry == nil {
		return nil, nil
	}

	var merged []Candidate
	for _, strategy := range e.strategies {
		merged = append(merged, strategy.Propose(ctx, entry)...)
	}
	if len(merged) == 0 {
		return nil, nil
	}

	// Stable sort preserves each strategy's internal ordering (the
	// known-mapping tie-break) among equal confidences.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})

	probeLimit := e.maxCandidates
	if probeLimit > len(merged) {
		probeLimit = len(merged)
	}

	for i := 0; i < probeLimit; i++ {
		candidate := merged[i]
		e.debug("probing candidate",
			"entry", entry.Name,
			"url", candidate.URL,
			"confidence", candidate.Confidence,
			"method", candidate.Method,
		)
		result := e.validator.Validate(ctx, candidate.URL)
		if result != nil && result.Valid {
			e.debug("candidate validated", "entry", entry.Name, "url", candidate.URL)
			return &candidate, nil
		}
	}
	return nil, nil
}

func (e *Engine) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
