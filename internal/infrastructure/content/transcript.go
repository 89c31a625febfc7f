package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FeedCurator/internal/domain"
	"FeedCurator/internal/ports"
)

// TranscriptFetcher retrieves transcripts for video and podcast items from
// the transcript service.
type TranscriptFetcher struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ ports.ContentFetcher = (*TranscriptFetcher)(nil)

// NewTranscriptFetcher wires the transcript service endpoint.
func NewTranscriptFetcher(baseURL, token string) *TranscriptFetcher {
	return &TranscriptFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Available probes whether a transcript exists without downloading it.
func (f *TranscriptFetcher) Available(ctx context.Context, item domain.Item) bool {
	req, err := f.newRequest(ctx, http.MethodHead, item.URL)
	if err != nil {
		return false
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// FullContent fetches the transcript text for the item's media URL.
func (f *TranscriptFetcher) FullContent(ctx context.Context, item domain.Item) (string, error) {
	req, err := f.newRequest(ctx, http.MethodGet, item.URL)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcript request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("no transcript for %s", item.URL)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcript service returned %s", resp.Status)
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode transcript response: %w", err)
	}
	return strings.TrimSpace(payload.Text), nil
}

func (f *TranscriptFetcher) newRequest(ctx context.Context, method, mediaURL string) (*http.Request, error) {
	endpoint := f.baseURL + "/transcripts?media=" + url.QueryEscape(mediaURL)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	return req, nil
}
