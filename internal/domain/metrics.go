package domain

// CitationMetrics are citation-graph signals for an academic item.
type CitationMetrics struct {
	Count            int     `json:"count"`
	InfluentialCount int     `json:"influentialCount"`
	Velocity         float64 `json:"velocity"` // citations per year since publication
}

// AuthorMetrics capture credibility signals for the primary author.
type AuthorMetrics struct {
	HIndex        int `json:"hIndex"`
	CitationCount int `json:"citationCount"`
}

// BiasMetrics collect funding and conflict-of-interest evidence.
type BiasMetrics struct {
	FundingSources     []string `json:"fundingSources,omitempty"`
	ConflictOfInterest bool     `json:"conflictOfInterest"`
	Flags              []string `json:"flags,omitempty"`
	SuspiciousFunders  int      `json:"suspiciousFunders"`
	Preprint           bool     `json:"preprint"`
}

// CommunityMetrics are reader-rating signals.
type CommunityMetrics struct {
	Rating    float64 `json:"rating"` // 0-5 scale
	VoteCount int     `json:"voteCount"`
}

// ContentQuality holds the four 0-10 sub-scores from the text-generation
// assessor plus its one-sentence rationale.
type ContentQuality struct {
	EvidenceQuality int    `json:"evidenceQuality"`
	ClinicalValue   int    `json:"clinicalValue"`
	Clarity         int    `json:"clarity"`
	Applicability   int    `json:"applicability"`
	Reasoning       string `json:"reasoning"`
}

// EngagementMetrics are raw platform interaction counts.
type EngagementMetrics struct {
	Votes    int `json:"votes"`
	Comments int `json:"comments"`
	Views    int `json:"views"`
}

// QualityMetrics is the evidence bundle assembled by enrichment for one item.
// It is a value object: consumed once by the scoring engine and stored with
// the computed score, never persisted on its own.
type QualityMetrics struct {
	Citations  CitationMetrics   `json:"citations"`
	Author     AuthorMetrics     `json:"author"`
	Bias       BiasMetrics       `json:"bias"`
	Community  CommunityMetrics  `json:"community"`
	Content    ContentQuality    `json:"content"`
	Engagement EngagementMetrics `json:"engagement"`
	SourceTier int               `json:"sourceTier"` // 1 = most credible
}
