package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"classcribe/internal/clients"
	"classcribe/internal/pkg/errs"
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Request struct {
	Transcript string `json:"transcript"`
	Subject    string `json:"subject,omitempty"`
	GradeLevel string `json:"grade_level,omitempty"`
	Model      string `json:"model"`
}

type Result struct {
	Result           json.RawMessage `json:"result"`
	Model            string          `json:"model"`
	TokensUsed       int             `json:"tokens_used"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Analyze runs the LLM lesson analysis over a finished transcript.
func (c *Client) Analyze(ctx context.Context, req Request) (*Result, error) {
	if req.Model == "" {
		req.Model = c.cfg.Model
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, errs.Wrap(err, "failed to encode analysis request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/analyses", bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(err, "failed to build analysis request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &clients.ProviderError{Provider: "analysis", Message: err.Error(), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &clients.ProviderError{
			Provider:  "analysis",
			Status:    resp.StatusCode,
			Message:   string(msg),
			Retryable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &clients.ProviderError{Provider: "analysis", Message: "undecodable response: " + err.Error(), Retryable: false}
	}
	if len(result.Result) == 0 {
		return nil, &clients.ProviderError{Provider: "analysis", Message: "empty analysis result", Retryable: false}
	}

	return &result, nil
}
