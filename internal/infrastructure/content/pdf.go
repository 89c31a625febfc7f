// Package content fetches full text for items: open-access PDFs for journal
// articles and transcripts for video or podcast entries.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"FeedCurator/internal/domain"
	"FeedCurator/internal/ports"
)

// maxPDFBytes caps how much of a PDF is downloaded before extraction.
const maxPDFBytes = 20 << 20

// PDFFetcher resolves an open-access PDF for a DOI and extracts its text.
type PDFFetcher struct {
	resolverURL string
	mailto      string
	http        *http.Client
}

var _ ports.ContentFetcher = (*PDFFetcher)(nil)

// NewPDFFetcher wires the open-access resolver endpoint.
func NewPDFFetcher(resolverURL, mailto string) *PDFFetcher {
	return &PDFFetcher{
		resolverURL: strings.TrimRight(resolverURL, "/"),
		mailto:      mailto,
		http:        &http.Client{Timeout: 30 * time.Second},
	}
}

// Available reports whether an open-access location exists for the item's DOI.
func (f *PDFFetcher) Available(ctx context.Context, item domain.Item) bool {
	location, err := f.resolve(ctx, item.DOI)
	return err == nil && location != ""
}

// FullContent downloads the resolved PDF and returns its plain text.
func (f *PDFFetcher) FullContent(ctx context.Context, item domain.Item) (string, error) {
	location, err := f.resolve(ctx, item.DOI)
	if err != nil {
		return "", err
	}
	if location == "" {
		return "", fmt.Errorf("no open-access location for %s", item.DOI)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pdf host returned %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	return extractText(data)
}

// resolve asks the open-access resolver for a direct PDF URL; absence of a
// location is not an error.
func (f *PDFFetcher) resolve(ctx context.Context, doi string) (string, error) {
	if doi == "" {
		return "", nil
	}

	endpoint := fmt.Sprintf("%s/%s?email=%s", f.resolverURL, url.PathEscape(doi), url.QueryEscape(f.mailto))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolver request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("resolver returned %s", resp.Status)
	}

	var payload struct {
		BestOALocation struct {
			URLForPDF string `json:"url_for_pdf"`
		} `json:"best_oa_location"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode resolver response: %w", err)
	}
	return payload.BestOALocation.URLForPDF, nil
}

func extractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	text, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(string(text)), nil
}
