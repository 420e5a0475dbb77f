package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sharonlnl728/content-audit-platform/internal/model"
	"github.com/sharonlnl728/content-audit-platform/internal/repository"
)

// trendDays is the number of daily points in the statistics trend, today included.
const trendDays = 7

const trendDateLayout = "2006-01-02"

func (s *auditService) Review(ctx context.Context, caller model.Identity, auditID int64, req ReviewRequest) (*model.AuditRecord, error) {
	if !caller.Valid() {
		return nil, ErrInvalidIdentity
	}
	if req.Status != model.StatusPass && req.Status != model.StatusReject {
		return nil, fmt.Errorf("%w: review status must be PASS or REJECT", ErrInvalidInput)
	}

	rec, err := s.repo.FindByID(ctx, auditID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load audit record: %w", err)
	}
	if !rec.OwnedBy(caller) {
		return nil, ErrForbidden
	}
	if rec.Status != model.StatusReview {
		return nil, ErrInvalidState
	}

	manual, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode review: %w", err)
	}

	updated, err := s.repo.ApplyReview(ctx, repository.ReviewUpdate{
		ID:           auditID,
		Status:       req.Status,
		ReviewerID:   caller.ID,
		ReviewedAt:   s.now(),
		ManualResult: manual,
	})
	switch {
	case errors.Is(err, repository.ErrStateConflict):
		return nil, ErrInvalidState
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("apply review: %w", err)
	}

	s.log.Info("audit_reviewed", map[string]any{
		"audit_id":    auditID,
		"reviewer_id": caller.ID,
		"status":      req.Status,
	})
	return updated, nil
}

func (s *auditService) Statistics(ctx context.Context, caller model.Identity) (*model.AuditStatistics, error) {
	if !caller.Valid() {
		return nil, ErrInvalidIdentity
	}

	var st model.AuditStatistics
	totals := []struct {
		dst    *int64
		filter repository.CountFilter
	}{
		{&st.TotalCount, repository.CountFilter{UserID: caller.ID}},
		{&st.PassCount, repository.CountFilter{UserID: caller.ID, Status: model.StatusPass}},
		{&st.RejectCount, repository.CountFilter{UserID: caller.ID, Status: model.StatusReject}},
		{&st.ReviewCount, repository.CountFilter{UserID: caller.ID, Status: model.StatusReview}},
		{&st.TextCount, repository.CountFilter{UserID: caller.ID, ContentType: model.ContentText}},
		{&st.ImageCount, repository.CountFilter{UserID: caller.ID, ContentType: model.ContentImage}},
	}
	for _, t := range totals {
		n, err := s.repo.Count(ctx, t.filter)
		if err != nil {
			return nil, fmt.Errorf("count audits: %w", err)
		}
		*t.dst = n
	}

	trend, err := s.trend(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	st.TrendData = trend
	return &st, nil
}

// trend returns one point per day, oldest first, ending today in the
// configured location.
func (s *auditService) trend(ctx context.Context, userID int64) ([]model.TrendPoint, error) {
	y, m, d := s.now().In(s.loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, s.loc)

	points := make([]model.TrendPoint, 0, trendDays)
	for i := trendDays - 1; i >= 0; i-- {
		from := today.AddDate(0, 0, -i)
		to := from.AddDate(0, 0, 1)
		p := model.TrendPoint{Date: from.Format(trendDateLayout)}

		for _, c := range []struct {
			dst    *int64
			status model.Status
		}{
			{&p.Pass, model.StatusPass},
			{&p.Reject, model.StatusReject},
			{&p.Review, model.StatusReview},
		} {
			n, err := s.repo.Count(ctx, repository.CountFilter{
				UserID: userID,
				Status: c.status,
				From:   from,
				To:     to,
			})
			if err != nil {
				return nil, fmt.Errorf("count trend %s: %w", p.Date, err)
			}
			*c.dst = n
		}
		points = append(points, p)
	}
	return points, nil
}
