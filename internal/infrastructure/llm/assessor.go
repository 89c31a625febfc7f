package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"FeedCurator/internal/config"
	"FeedCurator/internal/domain"
	"FeedCurator/internal/ports"
)

// maxContentChars bounds how much item content is sent per assessment.
const maxContentChars = 5000

// ErrRateLimited marks a rate-limit-class provider failure; callers retry
// these with backoff before falling back.
var ErrRateLimited = errors.New("assessor rate limited")

const systemPrompt = `You assess content quality. Respond with ONLY a JSON object of this exact shape:
{"evidenceQuality": 0-10, "clinicalValue": 0-10, "clarity": 0-10, "applicability": 0-10, "reasoning": "one sentence"}`

// Assessor implements ports.QualityAssessor backed by OpenAI-compatible APIs.
type Assessor struct {
	endpoint    string
	model       string
	apiKey      string
	maxAttempts int
	retryBase   time.Duration
	httpClient  *http.Client
}

var _ ports.QualityAssessor = (*Assessor)(nil)

// NewAssessor builds a client from configuration.
func NewAssessor(cfg config.AssessorConfig) *Assessor {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	base := cfg.RetryBase.Std()
	if base <= 0 {
		base = time.Second
	}
	return &Assessor{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		maxAttempts: attempts,
		retryBase:   base,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Assess requests the four 0-10 sub-scores for the given content, retrying
// rate-limit failures with exponential backoff (1s, 2s, 4s...). Any schema
// violation in the response is a failure; callers apply their own fallback.
func (a *Assessor) Assess(ctx context.Context, sourceType domain.SourceType, content string) (domain.ContentQuality, error) {
	if a.apiKey == "" || a.endpoint == "" || a.model == "" {
		return domain.ContentQuality{}, fmt.Errorf("assessor misconfigured")
	}

	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	var lastErr error
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := a.retryBase << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return domain.ContentQuality{}, ctx.Err()
			}
		}

		quality, err := a.assessOnce(ctx, sourceType, content)
		if err == nil {
			return quality, nil
		}
		lastErr = err
		if !errors.Is(err, ErrRateLimited) {
			return domain.ContentQuality{}, err
		}
	}
	return domain.ContentQuality{}, fmt.Errorf("assess after %d attempts: %w", a.maxAttempts, lastErr)
}

func (a *Assessor) assessOnce(ctx context.Context, sourceType domain.SourceType, content string) (domain.ContentQuality, error) {
	userPrompt := fmt.Sprintf("Source type: %s\n\nContent:\n%s", sourceType, content)
	body, err := json.Marshal(map[string]any{
		"model": a.model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": 0,
	})
	if err != nil {
		return domain.ContentQuality{}, fmt.Errorf("marshal assessor payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.ContentQuality{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return domain.ContentQuality{}, fmt.Errorf("assess request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
		return domain.ContentQuality{}, ErrRateLimited
	}
	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ContentQuality{}, fmt.Errorf("assessor error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return domain.ContentQuality{}, fmt.Errorf("decode assessor response: %w", err)
	}
	if len(envelope.Choices) == 0 {
		return domain.ContentQuality{}, fmt.Errorf("assessor returned no choices")
	}

	return parseQuality(envelope.Choices[0].Message.Content)
}

// parseQuality enforces the strict response shape: four integer 0-10 fields
// plus a reasoning string.
func parseQuality(raw string) (domain.ContentQuality, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var quality domain.ContentQuality
	if err := json.Unmarshal([]byte(raw), &quality); err != nil {
		return domain.ContentQuality{}, fmt.Errorf("parse quality json: %w", err)
	}

	for _, v := range []int{quality.EvidenceQuality, quality.ClinicalValue, quality.Clarity, quality.Applicability} {
		if v < 0 || v > 10 {
			return domain.ContentQuality{}, fmt.Errorf("sub-score %d outside 0-10", v)
		}
	}
	if strings.TrimSpace(quality.Reasoning) == "" {
		return domain.ContentQuality{}, fmt.Errorf("missing reasoning")
	}
	return quality, nil
}
