package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FeedCurator/internal/ports"
)

// SemanticScholarClient supplies influential-citation signals and author
// credibility stats from the Semantic Scholar graph API.
type SemanticScholarClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	now     func() time.Time
}

var _ ports.ScholarlyGraphProvider = (*SemanticScholarClient)(nil)

// NewSemanticScholarClient creates a reusable HTTP client.
func NewSemanticScholarClient(baseURL, apiKey string) *SemanticScholarClient {
	return &SemanticScholarClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		now:     time.Now,
	}
}

// Paper fetches influential-citation count and derives citation velocity
// (citations per year since publication). Unknown DOIs return nil.
func (c *SemanticScholarClient) Paper(ctx context.Context, doi string) (*ports.ScholarlyPaper, error) {
	if doi == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/paper/DOI:%s?fields=citationCount,influentialCitationCount,year,authors",
		c.baseURL, url.PathEscape(doi))

	var payload struct {
		CitationCount            int `json:"citationCount"`
		InfluentialCitationCount int `json:"influentialCitationCount"`
		Year                     int `json:"year"`
		Authors                  []struct {
			AuthorID string `json:"authorId"`
		} `json:"authors"`
	}
	found, err := c.get(ctx, endpoint, &payload)
	if err != nil || !found {
		return nil, err
	}

	paper := &ports.ScholarlyPaper{
		InfluentialCitations: payload.InfluentialCitationCount,
	}
	if len(payload.Authors) > 0 {
		paper.AuthorID = payload.Authors[0].AuthorID
	}
	if payload.Year > 0 {
		years := float64(c.now().Year() - payload.Year)
		if years < 1 {
			years = 1
		}
		paper.CitationVelocity = float64(payload.CitationCount) / years
	}
	return paper, nil
}

// Author fetches h-index and lifetime citation count for an author handle.
func (c *SemanticScholarClient) Author(ctx context.Context, authorID string) (*ports.ScholarlyAuthor, error) {
	if authorID == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/author/%s?fields=hIndex,citationCount", c.baseURL, url.PathEscape(authorID))

	var payload struct {
		HIndex        int `json:"hIndex"`
		CitationCount int `json:"citationCount"`
	}
	found, err := c.get(ctx, endpoint, &payload)
	if err != nil || !found {
		return nil, err
	}

	return &ports.ScholarlyAuthor{
		HIndex:        payload.HIndex,
		CitationCount: payload.CitationCount,
	}, nil
}

func (c *SemanticScholarClient) get(ctx context.Context, endpoint string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("new request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("scholarly graph request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("scholarly graph returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("decode scholarly response: %w", err)
	}
	return true, nil
}
