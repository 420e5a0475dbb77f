// Package study pushes batch audit outcomes to the study-record service.
package study

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sharonlnl728/content-audit-platform/internal/config"
	"github.com/sharonlnl728/content-audit-platform/internal/logging"
	"github.com/sharonlnl728/content-audit-platform/internal/metrics"
	"github.com/sharonlnl728/content-audit-platform/internal/model"
)

// reviewedAtLayout matches the local date-time format the study service parses.
const reviewedAtLayout = "2006-01-02T15:04:05.000"

// Pusher reports per-record outcomes. Failures are absorbed: the audit that
// produced the outcome has already been decided and cached.
type Pusher interface {
	PushVerdict(ctx context.Context, studyID, recordID int64, result model.AuditResult)
	PushError(ctx context.Context, studyID, recordID int64, msg string)
}

type updateRequest struct {
	Status     model.Status `json:"status"`
	Confidence *float64     `json:"confidence,omitempty"`
	Reason     string       `json:"reason"`
	AIResult   string       `json:"aiResult"`
	ReviewedAt string       `json:"reviewedAt"`
}

// Client is an HTTP Pusher.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logging.Logger
	metrics    *metrics.AuditMetrics
	now        func() time.Time
}

var _ Pusher = (*Client)(nil)

func NewClient(cfg config.UpstreamConfig, log *logging.Logger, m *metrics.AuditMetrics) *Client {
	return NewClientWithHTTP(cfg.BaseURL, &http.Client{
		Timeout:   cfg.Timeout(),
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}, log, m)
}

func NewClientWithHTTP(baseURL string, hc *http.Client, log *logging.Logger, m *metrics.AuditMetrics) *Client {
	if log == nil {
		log = logging.Nop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		log:        log.With("study_client"),
		metrics:    m,
		now:        time.Now,
	}
}

func (c *Client) PushVerdict(ctx context.Context, studyID, recordID int64, result model.AuditResult) {
	blob, err := json.Marshal(result)
	if err != nil {
		c.fail(studyID, recordID, fmt.Errorf("encode audit result: %w", err))
		return
	}
	confidence := result.Confidence
	c.put(ctx, studyID, recordID, updateRequest{
		Status:     result.Status,
		Confidence: &confidence,
		Reason:     result.Reason,
		AIResult:   string(blob),
	})
}

func (c *Client) PushError(ctx context.Context, studyID, recordID int64, msg string) {
	blob, _ := json.Marshal(map[string]string{"error": msg})
	c.put(ctx, studyID, recordID, updateRequest{
		Status:   model.StatusReject,
		Reason:   "AI processing failed: " + msg,
		AIResult: string(blob),
	})
}

func (c *Client) put(ctx context.Context, studyID, recordID int64, body updateRequest) {
	body.ReviewedAt = c.now().In(c.log.Location()).Format(reviewedAtLayout)

	if err := c.send(ctx, c.recordURL(studyID, recordID), body); err != nil {
		c.fail(studyID, recordID, err)
		return
	}
	c.metrics.Propagation("ok")
	c.log.Info("study_record_updated", map[string]any{
		"study_id":  studyID,
		"record_id": recordID,
		"status":    body.Status,
	})
}

func (c *Client) send(ctx context.Context, url string, body updateRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode update: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("put %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("put %s: status %d", url, resp.StatusCode)
	}
	return nil
}

func (c *Client) recordURL(studyID, recordID int64) string {
	return fmt.Sprintf("%s/api/study/%d/records/%d/update-from-audit", c.baseURL, studyID, recordID)
}

func (c *Client) fail(studyID, recordID int64, err error) {
	c.metrics.Propagation("failed")
	c.log.Error("study_record_update_failed", err, map[string]any{
		"study_id":  studyID,
		"record_id": recordID,
	})
}
