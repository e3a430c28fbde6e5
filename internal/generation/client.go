// Package generation calls the external MCQ generation service (the RAG
// backend) over HTTP. Failures are reported as ErrGenerationUnavailable so the
// engine can apply its degrade-not-fail policy.
package generation

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"snapquiz-service/internal/domain"
	"snapquiz-service/internal/engine"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 60 * time.Second

// Client implements engine.Generator against a JSON HTTP endpoint.
// Concurrent identical requests are collapsed into a single upstream call.
type Client struct {
	url string
	hc  *http.Client
	sf  singleflight.Group
}

func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url: url,
		hc:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) Generate(ctx context.Context, req engine.GenerateRequest) (engine.GenerateResult, error) {
	result, err, _ := c.sf.Do(requestKey(req), func() (interface{}, error) {
		return c.generate(ctx, req)
	})
	if err != nil {
		return engine.GenerateResult{}, err
	}
	return result.(engine.GenerateResult), nil
}

func (c *Client) generate(ctx context.Context, req engine.GenerateRequest) (engine.GenerateResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return engine.GenerateResult{}, fmt.Errorf("marshal generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return engine.GenerateResult{}, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return engine.GenerateResult{}, fmt.Errorf("%w: %v", domain.ErrGenerationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return engine.GenerateResult{}, fmt.Errorf("%w: status %d", domain.ErrGenerationUnavailable, resp.StatusCode)
	}

	var result engine.GenerateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return engine.GenerateResult{}, fmt.Errorf("%w: decode response: %v", domain.ErrGenerationUnavailable, err)
	}
	if len(result.Questions) == 0 {
		return engine.GenerateResult{}, fmt.Errorf("%w: empty question set", domain.ErrGenerationUnavailable)
	}
	return result, nil
}

// requestKey dedupes concurrent generations. Every field that changes the
// upstream response is part of the key, so requests differing only in time
// limit cannot collapse into one call.
func requestKey(req engine.GenerateRequest) string {
	h := sha256.New()
	h.Write([]byte(req.Document))
	fmt.Fprintf(h, "|%s|%d|%d", req.Title, req.QuestionCount, req.TimeLimitMinutes)
	return hex.EncodeToString(h.Sum(nil))
}
