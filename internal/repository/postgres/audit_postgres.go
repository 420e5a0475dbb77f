package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sharonlnl728/content-audit-platform/internal/model"
	"github.com/sharonlnl728/content-audit-platform/internal/repository"
)

// AuditPostgres is a PostgreSQL implementation of repository.AuditRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type AuditPostgres struct {
	db *sql.DB
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditRepository = (*AuditPostgres)(nil)

const recordColumns = `id, user_id, content_type, content_text, content_url, content_hash,
		audit_result, ai_result, confidence::float8, status, manual_result,
		reviewer_id, reviewed_at, created_at, updated_at`

const insertRecord = `
	INSERT INTO audit_records (user_id, content_type, content_text, content_url, content_hash,
		audit_result, ai_result, confidence, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8, $9, $10, $10)
	RETURNING ` + recordColumns

type rowScanner interface {
	Scan(dest ...any) error
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Create inserts a new audit record and returns the stored row.
func (r *AuditPostgres) Create(ctx context.Context, rec *model.AuditRecord) (*model.AuditRecord, error) {
	return insert(ctx, r.db, rec)
}

// CreateBatch inserts every record inside one transaction; any failure rolls back all of them.
func (r *AuditPostgres) CreateBatch(ctx context.Context, recs []*model.AuditRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, rec := range recs {
		stored, err := insert(ctx, tx, rec)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		*rec = *stored
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insert(ctx context.Context, q querier, rec *model.AuditRecord) (*model.AuditRecord, error) {
	row := q.QueryRowContext(ctx, insertRecord,
		rec.UserID,
		string(rec.ContentType),
		nullString(rec.ContentText),
		nullString(rec.ContentURL),
		rec.ContentHash,
		nullJSON(rec.AuditResult),
		nullJSON(rec.AIResult),
		rec.Confidence,
		string(rec.Status),
		rec.CreatedAt,
	)
	return scanRecord(row)
}

// FindByID fetches a single audit record by its ID.
func (r *AuditPostgres) FindByID(ctx context.Context, id int64) (*model.AuditRecord, error) {
	const q = `SELECT ` + recordColumns + ` FROM audit_records WHERE id = $1`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListByUser returns a user's records using LIMIT/OFFSET pagination and a total count.
func (r *AuditPostgres) ListByUser(ctx context.Context, userID int64, pq repository.PageQuery) (*repository.PageResult[model.AuditRecord], error) {
	const qCount = `SELECT COUNT(*) FROM audit_records WHERE user_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, userID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `SELECT ` + recordColumns + `
		FROM audit_records
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, qList, userID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.AuditRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.AuditRecord]{
		Items: items,
		Total: total,
	}, nil
}

// Count returns the number of records matching the filter.
func (r *AuditPostgres) Count(ctx context.Context, f repository.CountFilter) (int64, error) {
	q, args := buildCount(f)
	var n int64
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func buildCount(f repository.CountFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}
	if f.UserID != 0 {
		add("user_id = $%d", f.UserID)
	}
	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if f.ContentType != "" {
		add("content_type = $%d", string(f.ContentType))
	}
	if !f.From.IsZero() {
		add("created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("created_at < $%d", f.To)
	}

	q := "SELECT COUNT(*) FROM audit_records"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	return q, args
}

// ApplyReview locks the row, checks it is still in REVIEW and writes the manual verdict.
func (r *AuditPostgres) ApplyReview(ctx context.Context, u repository.ReviewUpdate) (*model.AuditRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	const qLock = `SELECT status FROM audit_records WHERE id = $1 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, qLock, u.ID).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	if model.Status(current) != model.StatusReview {
		return nil, repository.ErrStateConflict
	}

	const qUpdate = `
		UPDATE audit_records
		SET status = $2, reviewer_id = $3, reviewed_at = $4, manual_result = $5::jsonb, updated_at = $4
		WHERE id = $1
		RETURNING ` + recordColumns
	rec, err := scanRecord(tx.QueryRowContext(ctx, qUpdate,
		u.ID,
		string(u.Status),
		u.ReviewerID,
		u.ReviewedAt,
		nullJSON(u.ManualResult),
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

func scanRecord(s rowScanner) (*model.AuditRecord, error) {
	var (
		rec         model.AuditRecord
		contentType string
		status      string
		text, url   sql.NullString
		auditResult []byte
		aiResult    []byte
		manual      []byte
		reviewerID  sql.NullInt64
		reviewedAt  sql.NullTime
	)
	if err := s.Scan(
		&rec.ID,
		&rec.UserID,
		&contentType,
		&text,
		&url,
		&rec.ContentHash,
		&auditResult,
		&aiResult,
		&rec.Confidence,
		&status,
		&manual,
		&reviewerID,
		&reviewedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.ContentType = model.ContentType(contentType)
	rec.Status = model.Status(status)
	rec.ContentText = text.String
	rec.ContentURL = url.String
	rec.AuditResult = rawJSON(auditResult)
	rec.AIResult = rawJSON(aiResult)
	rec.ManualResult = rawJSON(manual)
	if reviewerID.Valid {
		id := reviewerID.Int64
		rec.ReviewerID = &id
	}
	if reviewedAt.Valid {
		at := reviewedAt.Time
		rec.ReviewedAt = &at
	}
	return &rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullJSON(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
