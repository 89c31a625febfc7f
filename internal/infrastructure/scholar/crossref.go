// Package scholar holds clients for the external bibliographic and
// scholarly-graph metric providers. Both follow a return-or-null contract:
// absence of data is missing signal, not an error.
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

// CrossrefClient resolves citation counts and funding sources from the
// Crossref works API.
type CrossrefClient struct {
	baseURL string
	mailto  string
	http    *http.Client
}

var _ ports.BibliographicProvider = (*CrossrefClient)(nil)

// NewCrossrefClient creates a reusable HTTP client. The mailto lands in the
// User-Agent per Crossref's polite-pool convention.
func NewCrossrefClient(baseURL, mailto string) *CrossrefClient {
	return &CrossrefClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		mailto:  mailto,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Lookup fetches the work record for a DOI. A 404 is a nil record, not an
// error.
func (c *CrossrefClient) Lookup(ctx context.Context, doi string) (*ports.BibliographicRecord, error) {
	if doi == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/works/%s", c.baseURL, url.PathEscape(doi))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	ua := "FeedCurator/1.0"
	if c.mailto != "" {
		ua += " (mailto:" + c.mailto + ")"
	}
	req.Header.Set("User-Agent", ua)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crossref request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crossref returned %s", resp.Status)
	}

	var envelope struct {
		Message struct {
			IsReferencedByCount int    `json:"is-referenced-by-count"`
			Subtype             string `json:"subtype"`
			Funder              []struct {
				Name string `json:"name"`
			} `json:"funder"`
		} `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode crossref response: %w", err)
	}

	record := &ports.BibliographicRecord{
		CitationCount: envelope.Message.IsReferencedByCount,
		Preprint:      strings.EqualFold(envelope.Message.Subtype, "preprint"),
	}
	for _, f := range envelope.Message.Funder {
		if name := strings.TrimSpace(f.Name); name != "" {
			record.FundingSources = append(record.FundingSources, name)
		}
	}
	return record, nil
}
