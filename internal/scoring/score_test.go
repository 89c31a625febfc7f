package scoring

import (
	"math"
	"strings"
	"testing"
	"time"

	"FeedCurator/internal/domain"
)

func approx(t *testing.T, got, want, eps float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("got %.4f, want %.4f (±%.4f)", got, want, eps)
	}
}

func TestCitationScore(t *testing.T) {
	t.Parallel()

	if got := CitationScore(domain.CitationMetrics{}); got != 0 {
		t.Fatalf("no citations should score 0, got %.2f", got)
	}

	// log10(121)/3 plus a 40/120 influential ratio bonus.
	got := CitationScore(domain.CitationMetrics{Count: 120, InfluentialCount: 40})
	approx(t, got, 23.83, 0.05)

	// Velocity at or past the ceiling adds the full 0.2 bonus.
	fast := CitationScore(domain.CitationMetrics{Count: 120, InfluentialCount: 40, Velocity: 25})
	approx(t, fast, 29.83, 0.05)

	// Absurd inputs stay within the category maximum.
	huge := CitationScore(domain.CitationMetrics{Count: 10_000_000, InfluentialCount: 10_000_000, Velocity: 1000})
	if huge > domain.CitationScoreMax {
		t.Fatalf("citation score exceeded maximum: %.2f", huge)
	}
}

func TestCitationScoreMonotonic(t *testing.T) {
	t.Parallel()

	prev := -1.0
	for _, count := range []int{1, 5, 20, 100, 500, 2000} {
		got := CitationScore(domain.CitationMetrics{Count: count})
		if got <= prev {
			t.Fatalf("score did not grow at count=%d: %.3f <= %.3f", count, got, prev)
		}
		prev = got
	}
}

func TestAuthorScore(t *testing.T) {
	t.Parallel()

	if got := AuthorScore(domain.AuthorMetrics{}); got != 0 {
		t.Fatalf("unknown author should score 0, got %.2f", got)
	}

	// Both components saturated.
	top := AuthorScore(domain.AuthorMetrics{HIndex: 50, CitationCount: 100_000})
	approx(t, top, domain.AuthorScoreMax, 0.01)

	// h=35 gives 0.42 of the weight; 20k citations saturate the log component.
	mid := AuthorScore(domain.AuthorMetrics{HIndex: 35, CitationCount: 20_000})
	approx(t, mid, 20.5, 0.05)
}

func TestMethodologyScore(t *testing.T) {
	t.Parallel()

	if got := MethodologyScore(domain.SourceAcademicJournal, domain.BiasMetrics{}); got != domain.MethodologyScoreMax {
		t.Fatalf("clean journal should get the full %v, got %.2f", domain.MethodologyScoreMax, got)
	}

	bias := domain.BiasMetrics{
		Preprint:           true,
		ConflictOfInterest: true,
		Flags:              []string{"industry funding: acme pharma", "undisclosed affiliation"},
		SuspiciousFunders:  1,
	}
	// 25 - 5 (preprint) - 5 (COI) - 6 (two flags) - 2 (funder) = 7
	if got := MethodologyScore(domain.SourceAcademicJournal, bias); got != 7 {
		t.Fatalf("expected 7, got %.2f", got)
	}

	// Forum penalty stacks with everything else but never goes negative.
	bias.Flags = append(bias.Flags, "a", "b", "c", "d")
	if got := MethodologyScore(domain.SourceForumCommunity, bias); got != 0 {
		t.Fatalf("expected floor of 0, got %.2f", got)
	}
}

func TestCommunityScore(t *testing.T) {
	t.Parallel()

	if got := CommunityScore(domain.CommunityMetrics{}); got != 5 {
		t.Fatalf("no votes should be neutral 5, got %.2f", got)
	}

	// Below the confidence threshold the rating blends toward neutral.
	blended := CommunityScore(domain.CommunityMetrics{Rating: 5, VoteCount: 5})
	approx(t, blended, 7.5, 0.01)

	// Many votes at a perfect rating reach the maximum.
	full := CommunityScore(domain.CommunityMetrics{Rating: 5, VoteCount: 100})
	approx(t, full, domain.CommunityScoreMax, 0.01)

	// At the threshold the confidence factor discounts the raw rating.
	discounted := CommunityScore(domain.CommunityMetrics{Rating: 4, VoteCount: 10})
	approx(t, discounted, 6.2, 0.01)
}

func TestRecencyScore(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	at := func(daysAgo float64) time.Time {
		return now.Add(-time.Duration(daysAgo * 24 * float64(time.Hour)))
	}

	if got := RecencyScore(time.Time{}, now); got != 0 {
		t.Fatalf("unknown publication date should score 0, got %.2f", got)
	}
	if got := RecencyScore(at(0), now); got != 10 {
		t.Fatalf("today should score 10, got %.2f", got)
	}
	if got := RecencyScore(at(30), now); got != 10 {
		t.Fatalf("day 30 still scores 10, got %.2f", got)
	}
	approx(t, RecencyScore(at(31), now), 9.9667, 0.001)
	approx(t, RecencyScore(at(90), now), 8, 0.001)
	approx(t, RecencyScore(at(365), now), 5, 0.001)
	approx(t, RecencyScore(at(730), now), 3, 0.001)
	if got := RecencyScore(at(1825), now); got != 0 {
		t.Fatalf("five-year-old content should score 0, got %.2f", got)
	}
	if got := RecencyScore(at(4000), now); got != 0 {
		t.Fatalf("ancient content should score 0, got %.2f", got)
	}
}

func TestRecencyScoreNonIncreasing(t *testing.T) {
	t.Parallel()

	now := time.Now()
	prev := math.Inf(1)
	for days := 0.0; days <= 2000; days += 7 {
		got := RecencyScore(now.Add(-time.Duration(days*24*float64(time.Hour))), now)
		if got > prev {
			t.Fatalf("recency increased at day %.0f: %.3f > %.3f", days, got, prev)
		}
		prev = got
	}
}

func TestScoreDeterministic(t *testing.T) {
	t.Parallel()

	item := domain.Item{
		Title:       "Randomized trial of something",
		SourceType:  domain.SourceAcademicJournal,
		PublishedAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}
	metrics := domain.QualityMetrics{
		Citations: domain.CitationMetrics{Count: 40, InfluentialCount: 8, Velocity: 12},
		Author:    domain.AuthorMetrics{HIndex: 22, CitationCount: 4000},
		Community: domain.CommunityMetrics{Rating: 4.2, VoteCount: 31},
	}
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	first := Score(item, metrics, now)
	second := Score(item, metrics, now)
	if first != second {
		t.Fatalf("same inputs produced different breakdowns:\n%+v\n%+v", first, second)
	}
}

func TestScoreJournalScenario(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	item := domain.Item{
		Title:       "Landmark trial",
		SourceType:  domain.SourceAcademicJournal,
		PublishedAt: now.AddDate(0, 0, -10),
	}
	metrics := domain.QualityMetrics{
		Citations: domain.CitationMetrics{Count: 120, InfluentialCount: 40, Velocity: 24},
		Author:    domain.AuthorMetrics{HIndex: 35, CitationCount: 20_000},
		Community: domain.CommunityMetrics{Rating: 4.6, VoteCount: 150},
	}

	breakdown := Score(item, metrics, now)

	approx(t, breakdown.Citation, 29.83, 0.05)
	approx(t, breakdown.Author, 20.5, 0.05)
	approx(t, breakdown.Methodology, 25, 0.001)
	approx(t, breakdown.Community, 9.2, 0.01)
	approx(t, breakdown.Recency, 10, 0.001)
	approx(t, breakdown.Total, 94.5, 0.1)

	for _, want := range []string{"120 citations", "40 influential", "h-index 35", "academic-journal", "total"} {
		if !strings.Contains(breakdown.Explanation, want) {
			t.Fatalf("explanation missing %q: %s", want, breakdown.Explanation)
		}
	}
}

func TestScoreExplanationOmitsAbsentSignals(t *testing.T) {
	t.Parallel()

	breakdown := Score(domain.Item{SourceType: domain.SourceUnknown}, domain.QualityMetrics{}, time.Now())

	for _, absent := range []string{"citations", "h-index", "community", "concerns"} {
		if strings.Contains(breakdown.Explanation, absent) {
			t.Fatalf("explanation mentions absent signal %q: %s", absent, breakdown.Explanation)
		}
	}
	if !strings.Contains(breakdown.Explanation, "total") {
		t.Fatalf("explanation should always carry the total: %s", breakdown.Explanation)
	}
}
