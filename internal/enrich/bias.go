package enrich

import (
	"fmt"
	"strings"

	"FeedCurator/internal/domain"
	"FeedCurator/internal/ports"
)

// conflictFragments are keyword fragments that signal industry funding. This
// is a lexical heuristic with an advisory role; false positives and negatives
// are expected.
var conflictFragments = []string{
	"pharma",
	"pfizer",
	"novartis",
	"merck",
	"astrazeneca",
	"glaxo",
	"sanofi",
	"bayer",
	"eli lilly",
	"abbott",
	"monsanto",
	"syngenta",
	"cargill",
	"tobacco",
	"sugar association",
	"beverage association",
	"food industry",
	"agribusiness",
}

// KeywordFlagger flags funders by case-insensitive substring match against a
// fixed fragment list.
type KeywordFlagger struct {
	fragments []string
}

var _ ports.FunderFlagger = (*KeywordFlagger)(nil)

// NewKeywordFlagger uses the built-in fragment list when fragments is nil.
func NewKeywordFlagger(fragments []string) *KeywordFlagger {
	if fragments == nil {
		fragments = conflictFragments
	}
	return &KeywordFlagger{fragments: fragments}
}

// Flag reports whether a funding-source string matches any conflict fragment.
func (f *KeywordFlagger) Flag(funder string) bool {
	lowered := strings.ToLower(funder)
	for _, fragment := range f.fragments {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}

// detectBias runs the flagger over funding sources, setting the
// conflict-of-interest flag and one human-readable bias flag per match.
func detectBias(flagger ports.FunderFlagger, funders []string, preprint bool) domain.BiasMetrics {
	bias := domain.BiasMetrics{
		FundingSources: funders,
		Preprint:       preprint,
	}
	if flagger == nil {
		return bias
	}

	for _, funder := range funders {
		if flagger.Flag(funder) {
			bias.ConflictOfInterest = true
			bias.SuspiciousFunders++
			bias.Flags = append(bias.Flags, fmt.Sprintf("industry funding: %s", funder))
		}
	}
	return bias
}
