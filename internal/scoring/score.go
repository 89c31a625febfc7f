// Package scoring turns a quality-metrics bundle into a weighted, capped,
// explainable score. Everything here is pure: identical inputs always yield
// an identical breakdown.
package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"FeedCurator/internal/domain"
)

const (
	hIndexCeiling          = 50
	authorCitationExponent = 4
	velocityCeiling        = 20.0 // citations/year treated as maximal momentum

	preprintPenalty    = 5.0
	conflictPenalty    = 5.0
	biasFlagPenalty    = 3.0
	funderPenalty      = 2.0
	communityNeutral   = 5.0
	voteThreshold      = 10
	voteCeiling        = 100
	confidenceFloor    = 0.75
	confidenceSpread   = 0.25
	maxPublicationDays = 1825
)

var sourceTypePenalty = map[domain.SourceType]float64{
	domain.SourceAcademicJournal: 0,
	domain.SourcePodcast:         2,
	domain.SourceVideoChannel:    2,
	domain.SourceNewsletter:      3,
	domain.SourceGenericBlog:     3,
	domain.SourceForumCommunity:  6,
	domain.SourceUnknown:         4,
}

// recency decay segments: flat at 10 through day 30, then linear between
// breakpoints down to 0 at day 1825.
var recencyBreakpoints = []struct {
	day   float64
	value float64
}{
	{30, 10},
	{90, 8},
	{365, 5},
	{730, 3},
	{maxPublicationDays, 0},
}

// Score computes the full breakdown for an item and its metrics bundle. The
// only time dependency is the item's own recency, measured against now.
func Score(item domain.Item, metrics domain.QualityMetrics, now time.Time) domain.ScoreBreakdown {
	breakdown := domain.ScoreBreakdown{
		Citation:    CitationScore(metrics.Citations),
		Author:      AuthorScore(metrics.Author),
		Methodology: MethodologyScore(item.SourceType, metrics.Bias),
		Community:   CommunityScore(metrics.Community),
		Recency:     RecencyScore(item.PublishedAt, now),
	}
	total := breakdown.Citation + breakdown.Author + breakdown.Methodology +
		breakdown.Community + breakdown.Recency
	breakdown.Total = math.Round(total*10) / 10
	breakdown.Explanation = explain(item, metrics, breakdown)
	return breakdown
}

// CitationScore maps raw citation counts onto a log scale, with bonuses for
// influential-citation ratio and citation velocity.
func CitationScore(c domain.CitationMetrics) float64 {
	if c.Count <= 0 {
		return 0
	}

	base := math.Log10(float64(c.Count)+1) / 3
	if base > 1 {
		base = 1
	}

	ratio := float64(c.InfluentialCount) / float64(c.Count)
	if ratio > 1 {
		ratio = 1
	}
	influentialBonus := ratio * 0.3

	velocityBonus := clamp01(c.Velocity/velocityCeiling) * 0.2

	return clamp01(base+influentialBonus+velocityBonus) * domain.CitationScoreMax
}

// AuthorScore blends h-index (60%) against a ceiling of 50 with log-scaled
// lifetime citations (40%) against a ceiling exponent of 4.
func AuthorScore(a domain.AuthorMetrics) float64 {
	hPart := clamp01(float64(a.HIndex) / hIndexCeiling)

	var citePart float64
	if a.CitationCount > 0 {
		citePart = clamp01(math.Log10(float64(a.CitationCount)+1) / authorCitationExponent)
	}

	return (0.6*hPart + 0.4*citePart) * domain.AuthorScoreMax
}

// MethodologyScore starts at the category maximum and subtracts fixed
// penalties for credibility concerns, floored at zero.
func MethodologyScore(sourceType domain.SourceType, bias domain.BiasMetrics) float64 {
	score := domain.MethodologyScoreMax

	if bias.Preprint {
		score -= preprintPenalty
	}
	if bias.ConflictOfInterest {
		score -= conflictPenalty
	}
	score -= float64(len(bias.Flags)) * biasFlagPenalty
	score -= float64(bias.SuspiciousFunders) * funderPenalty
	score -= sourceTypePenalty[sourceType]

	if score < 0 {
		score = 0
	}
	return score
}

// CommunityScore returns a neutral midpoint with no votes, blends toward the
// rating below the confidence threshold, and above it scales the rating by a
// confidence factor saturating at the vote ceiling.
func CommunityScore(c domain.CommunityMetrics) float64 {
	if c.VoteCount <= 0 {
		return communityNeutral
	}

	ratingScore := clamp01(c.Rating/5) * domain.CommunityScoreMax

	if c.VoteCount < voteThreshold {
		weight := float64(c.VoteCount) / voteThreshold
		return ratingScore*weight + communityNeutral*(1-weight)
	}

	confidence := confidenceFloor + confidenceSpread*clamp01(float64(c.VoteCount)/voteCeiling)
	score := ratingScore * confidence
	if score > domain.CommunityScoreMax {
		score = domain.CommunityScoreMax
	}
	return score
}

// RecencyScore applies a piecewise-linear decay over days since publication.
// Unknown publication dates score the floor of the freshest segment's tail.
func RecencyScore(publishedAt, now time.Time) float64 {
	if publishedAt.IsZero() {
		return 0
	}

	days := now.Sub(publishedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	if days <= recencyBreakpoints[0].day {
		return recencyBreakpoints[0].value
	}
	if days >= maxPublicationDays {
		return 0
	}

	for i := 1; i < len(recencyBreakpoints); i++ {
		prev, next := recencyBreakpoints[i-1], recencyBreakpoints[i]
		if days <= next.day {
			fraction := (days - prev.day) / (next.day - prev.day)
			return prev.value + fraction*(next.value-prev.value)
		}
	}
	return 0
}

// explain assembles a pipe-delimited summary from signals that were actually
// present; absent signals are omitted rather than rendered as zero.
func explain(item domain.Item, metrics domain.QualityMetrics, b domain.ScoreBreakdown) string {
	var parts []string

	if metrics.Citations.Count > 0 {
		part := fmt.Sprintf("%d citations", metrics.Citations.Count)
		if metrics.Citations.InfluentialCount > 0 {
			part += fmt.Sprintf(" (%d influential)", metrics.Citations.InfluentialCount)
		}
		parts = append(parts, part)
	}
	if metrics.Author.HIndex > 0 {
		parts = append(parts, fmt.Sprintf("author h-index %d", metrics.Author.HIndex))
	}
	if metrics.Bias.ConflictOfInterest || len(metrics.Bias.Flags) > 0 {
		parts = append(parts, fmt.Sprintf("%d credibility concerns", len(metrics.Bias.Flags)))
	}
	if metrics.Community.VoteCount > 0 {
		parts = append(parts, fmt.Sprintf("community %.1f/5 from %d votes",
			metrics.Community.Rating, metrics.Community.VoteCount))
	}
	if item.SourceType != "" && item.SourceType != domain.SourceUnknown {
		parts = append(parts, string(item.SourceType))
	}
	parts = append(parts, fmt.Sprintf("total %.1f", b.Total))

	return strings.Join(parts, " | ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
