package model

import (
	"encoding/json"
	"time"
)

// ContentType is the kind of content submitted for audit.
type ContentType string

const (
	ContentText  ContentType = "TEXT"
	ContentImage ContentType = "IMAGE"
)

// Status is the verdict of an audit.
type Status string

const (
	StatusPass   Status = "PASS"
	StatusReject Status = "REJECT"
	StatusReview Status = "REVIEW"
	// StatusError only appears on batch placeholders and is never persisted.
	StatusError Status = "ERROR"
)

// ReviewThreshold is the confidence above which the scorer's opinion is
// trusted without a human.
const ReviewThreshold = 0.9

// DeriveStatus maps scorer output to a verdict. It is the whole decision policy.
func DeriveStatus(confidence float64, isViolation bool) Status {
	if confidence > ReviewThreshold {
		if isViolation {
			return StatusReject
		}
		return StatusPass
	}
	return StatusReview
}

// AuditResult is returned to callers and stored in the result cache.
// Cached and freshly computed values share this exact shape.
type AuditResult struct {
	ContentHash string      `json:"contentHash"`
	ContentType ContentType `json:"contentType"`
	IsViolation bool        `json:"isViolation"`
	Confidence  float64     `json:"confidence"`
	Reason      string      `json:"reason"`
	Categories  []string    `json:"categories"`
	Status      Status      `json:"status"`
	Timestamp   int64       `json:"timestamp"`
}

// ErrorResult is the placeholder a batch reports for an item that failed.
func ErrorResult(reason string) AuditResult {
	return AuditResult{Status: StatusError, Reason: reason}
}

// AuditRecord is a durable ledger entry for one fresh audit decision.
type AuditRecord struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"userId"`
	ContentType  ContentType     `json:"contentType"`
	ContentText  string          `json:"contentText,omitempty"`
	ContentURL   string          `json:"contentUrl,omitempty"`
	ContentHash  string          `json:"contentHash"`
	AuditResult  json.RawMessage `json:"auditResult,omitempty"`
	AIResult     json.RawMessage `json:"aiResult,omitempty"`
	Confidence   float64         `json:"confidence"`
	Status       Status          `json:"status"`
	ManualResult json.RawMessage `json:"manualResult,omitempty"`
	ReviewerID   *int64          `json:"reviewerId,omitempty"`
	ReviewedAt   *time.Time      `json:"reviewedAt,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`

	// PreviewURL is a short-lived link to an archived image; never stored.
	PreviewURL string `json:"previewUrl,omitempty"`
}

// OwnedBy is the single ownership predicate for ledger records.
func (r *AuditRecord) OwnedBy(id Identity) bool {
	return r != nil && id.Valid() && r.UserID == id.ID
}

// TrendPoint holds one day of verdict counts.
type TrendPoint struct {
	Date   string `json:"date"`
	Pass   int64  `json:"pass"`
	Reject int64  `json:"reject"`
	Review int64  `json:"review"`
}

// AuditStatistics summarizes a caller's ledger.
type AuditStatistics struct {
	TotalCount  int64        `json:"totalCount"`
	PassCount   int64        `json:"passCount"`
	RejectCount int64        `json:"rejectCount"`
	ReviewCount int64        `json:"reviewCount"`
	TextCount   int64        `json:"textCount"`
	ImageCount  int64        `json:"imageCount"`
	TrendData   []TrendPoint `json:"trendData"`
}
