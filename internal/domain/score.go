package domain

// Category maxima for the weighted sub-scores. Their sum bounds Total at 100.
const (
	CitationScoreMax    = 30.0
	AuthorScoreMax      = 25.0
	MethodologyScoreMax = 25.0
	CommunityScoreMax   = 10.0
	RecencyScoreMax     = 10.0
)

// ScoreBreakdown is the transparent output of the scoring engine: one clamped
// sub-score per category, their arithmetic sum, and a human-readable
// explanation assembled from whichever signals were present.
type ScoreBreakdown struct {
	Citation    float64 `json:"citation"`
	Author      float64 `json:"author"`
	Methodology float64 `json:"methodology"`
	Community   float64 `json:"community"`
	Recency     float64 `json:"recency"`
	Total       float64 `json:"total"`
	Explanation string  `json:"explanation"`
}
