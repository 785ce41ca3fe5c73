package transcription

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
	Timeout time.Duration
}

type Result struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
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

// Transcribe sends the recording to the speech-to-text provider and blocks
// until the transcript is ready. The per-request timeout is the ceiling for
// one attempt; retries are the caller's concern.
func (c *Client) Transcribe(ctx context.Context, mediaURL, mediaType string) (*Result, error) {
	body, err := json.Marshal(map[string]string{
		"media_url":  mediaURL,
		"media_type": mediaType,
	})
	if err != nil {
		return nil, errs.Wrap(err, "failed to encode transcription request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/transcriptions", bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(err, "failed to build transcription request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &clients.ProviderError{Provider: "transcription", Message: err.Error(), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &clients.ProviderError{
			Provider:  "transcription",
			Status:    resp.StatusCode,
			Message:   string(msg),
			Retryable: resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &clients.ProviderError{Provider: "transcription", Message: "undecodable response: " + err.Error(), Retryable: false}
	}
	if result.Text == "" {
		return nil, &clients.ProviderError{Provider: "transcription", Message: "empty transcript", Retryable: false}
	}

	return &result, nil
}
