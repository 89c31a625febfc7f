package enrich

import "FeedCurator/internal/domain"

// Per-source-type base values for the deterministic content-quality fallback.
// Journals rank highest and forums lowest, mirroring the relative editorial
// bar of each platform.
var fallbackBase = map[domain.SourceType]float64{
	domain.SourceAcademicJournal: 6,
	domain.SourcePodcast:         5,
	domain.SourceVideoChannel:    5,
	domain.SourceNewsletter:      4,
	domain.SourceGenericBlog:     4,
	domain.SourceForumCommunity:  3,
	domain.SourceUnknown:         3,
}

const (
	// One bonus point per 2000 characters of content, capped at 2 points.
	fallbackLengthUnit  = 2000
	fallbackLengthCap   = 2.0
	fallbackSubScoreMax = 10
)

// fallbackQuality produces a deterministic baseline when the assessor is
// degraded: a per-source-type base plus a small length bonus, distributed
// evenly across the four sub-scores. The reasoning string flags that AI
// analysis was unavailable so the score stays explainable.
func fallbackQuality(sourceType domain.SourceType, content string) domain.ContentQuality {
	base := fallbackBase[sourceType]
	if base == 0 {
		base = fallbackBase[domain.SourceUnknown]
	}

	bonus := float64(len(content)) / fallbackLengthUnit
	if bonus > fallbackLengthCap {
		bonus = fallbackLengthCap
	}

	score := int(base + bonus)
	if score > fallbackSubScoreMax {
		score = fallbackSubScoreMax
	}

	return domain.ContentQuality{
		EvidenceQuality: score,
		ClinicalValue:   score,
		Clarity:         score,
		Applicability:   score,
		Reasoning:       "AI analysis unavailable; baseline estimate from source type and content length",
	}
}
