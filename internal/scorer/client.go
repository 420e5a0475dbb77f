// Package scorer is the HTTP client for the AI scoring service.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sharonlnl728/content-audit-platform/internal/config"
)

const (
	textPath  = "/ai/text/audit"
	imagePath = "/ai/image/audit"

	// maxResponseBytes caps how much of a scorer reply is read.
	maxResponseBytes = 1 << 20
)

// ErrMalformedResponse is returned when the scorer answers 2xx with a body
// that cannot be used to derive a verdict.
var ErrMalformedResponse = errors.New("malformed scorer response")

// Scorer classifies content. Implementations must be safe for concurrent use.
type Scorer interface {
	ScoreText(ctx context.Context, content string, templateConfig map[string]any) (*Score, error)
	ScoreImage(ctx context.Context, imageURL, imageBase64 string) (*Score, error)
}

// Score is the scorer's opinion. IsViolation defaults to false when the
// scorer omits it; Confidence is always present on a successful call.
type Score struct {
	IsViolation bool
	Confidence  float64
	Reason      string
	Categories  []string

	// Raw is the response body as received, kept for the ledger.
	Raw json.RawMessage
}

// textRequest carries TemplateConfig pre-encoded so an empty but present
// config ({}) is still sent; only a nil config is left out.
type textRequest struct {
	Content        string          `json:"content"`
	TemplateConfig json.RawMessage `json:"template_config,omitempty"`
}

type imageRequest struct {
	ImageURL    string `json:"image_url,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

type response struct {
	IsViolation *bool    `json:"is_violation"`
	Confidence  *float64 `json:"confidence"`
	Reason      string   `json:"reason"`
	Categories  []string `json:"categories"`
	Status      string   `json:"status"`
}

// Client talks to the scorer over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ Scorer = (*Client)(nil)

// NewClient builds a client whose transport emits OpenTelemetry spans.
func NewClient(cfg config.UpstreamConfig) *Client {
	return NewClientWithHTTP(cfg.BaseURL, &http.Client{
		Timeout:   cfg.Timeout(),
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

// NewClientWithHTTP uses hc as-is.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

func (c *Client) ScoreText(ctx context.Context, content string, templateConfig map[string]any) (*Score, error) {
	req := textRequest{Content: content}
	if templateConfig != nil {
		cfg, err := json.Marshal(templateConfig)
		if err != nil {
			return nil, fmt.Errorf("encode template config: %w", err)
		}
		req.TemplateConfig = cfg
	}
	return c.post(ctx, textPath, req)
}

func (c *Client) ScoreImage(ctx context.Context, imageURL, imageBase64 string) (*Score, error) {
	return c.post(ctx, imagePath, imageRequest{ImageURL: imageURL, ImageBase64: imageBase64})
}

func (c *Client) post(ctx context.Context, path string, body any) (*Score, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode scorer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build scorer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call scorer %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read scorer response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("scorer %s returned %d: %s", path, resp.StatusCode, truncate(raw, 256))
	}

	return parse(raw)
}

func parse(raw []byte) (*Score, error) {
	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if r.Confidence == nil {
		return nil, fmt.Errorf("%w: confidence missing", ErrMalformedResponse)
	}
	if c := *r.Confidence; math.IsNaN(c) || c < 0 || c > 1 {
		return nil, fmt.Errorf("%w: confidence %v outside [0,1]", ErrMalformedResponse, c)
	}

	s := &Score{
		Confidence: *r.Confidence,
		Reason:     r.Reason,
		Categories: r.Categories,
		Raw:        json.RawMessage(raw),
	}
	if r.IsViolation != nil {
		s.IsViolation = *r.IsViolation
	}
	if s.Categories == nil {
		s.Categories = []string{}
	}
	return s, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
