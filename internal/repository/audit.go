package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sharonlnl728/content-audit-platform/internal/model"
)

// AuditRepository is the audit ledger. Records are appended by the persistence
// queue and mutated only by the review workflow; nothing is deleted.
type AuditRepository interface {
	// Create inserts one record and returns it with the generated id and timestamps.
	Create(ctx context.Context, rec *model.AuditRecord) (*model.AuditRecord, error)

	// CreateBatch inserts all records in a single transaction.
	CreateBatch(ctx context.Context, recs []*model.AuditRecord) error

	// FindByID returns ErrNotFound when the id is unknown.
	FindByID(ctx context.Context, id int64) (*model.AuditRecord, error)

	// ListByUser returns a user's records, newest first.
	ListByUser(ctx context.Context, userID int64, pq PageQuery) (*PageResult[model.AuditRecord], error)

	// Count returns the number of records matching every non-zero filter field.
	Count(ctx context.Context, f CountFilter) (int64, error)

	// ApplyReview moves a REVIEW record to its manual verdict atomically.
	// It returns ErrStateConflict if the record is no longer in REVIEW.
	ApplyReview(ctx context.Context, u ReviewUpdate) (*model.AuditRecord, error)
}

// CountFilter narrows Count. From is inclusive and To exclusive.
type CountFilter struct {
	UserID      int64
	Status      model.Status
	ContentType model.ContentType
	From        time.Time
	To          time.Time
}

// ReviewUpdate carries a manual review decision.
type ReviewUpdate struct {
	ID           int64
	Status       model.Status
	ReviewerID   int64
	ReviewedAt   time.Time
	ManualResult json.RawMessage
}
