package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sharonlnl728/content-audit-platform/internal/model"
	"github.com/sharonlnl728/content-audit-platform/internal/repository"
	repoMocks "github.com/sharonlnl728/content-audit-platform/internal/repository/mocks"
)

func TestAuditService_Review(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		caller     model.Identity
		req        ReviewRequest
		setupMocks func(mRepo *repoMocks.MockAuditRepository)
		wantErr    error
	}{
		{
			name:   "happy path",
			caller: user1,
			req:    ReviewRequest{Status: model.StatusPass, Reason: "looks fine"},
			setupMocks: func(mRepo *repoMocks.MockAuditRepository) {
				mRepo.On("FindByID", mock.Anything, int64(7)).
					Return(&model.AuditRecord{ID: 7, UserID: 1, Status: model.StatusReview}, nil).Once()
				mRepo.On("ApplyReview", mock.Anything, mock.MatchedBy(func(u repository.ReviewUpdate) bool {
					var manual map[string]string
					_ = json.Unmarshal(u.ManualResult, &manual)
					return u.ID == 7 &&
						u.Status == model.StatusPass &&
						u.ReviewerID == 1 &&
						u.ReviewedAt.Equal(testNow) &&
						manual["status"] == "PASS" &&
						manual["reason"] == "looks fine"
				})).Return(&model.AuditRecord{ID: 7, UserID: 1, Status: model.StatusPass}, nil).Once()
			},
		},
		{
			name:   "not found",
			caller: user1,
			req:    ReviewRequest{Status: model.StatusPass},
			setupMocks: func(mRepo *repoMocks.MockAuditRepository) {
				mRepo.On("FindByID", mock.Anything, int64(7)).Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: ErrNotFound,
		},
		{
			name:   "other user's record",
			caller: user2,
			req:    ReviewRequest{Status: model.StatusReject},
			setupMocks: func(mRepo *repoMocks.MockAuditRepository) {
				mRepo.On("FindByID", mock.Anything, int64(7)).
					Return(&model.AuditRecord{ID: 7, UserID: 1, Status: model.StatusReview}, nil).Once()
			},
			wantErr: ErrForbidden,
		},
		{
			name:   "already passed",
			caller: user1,
			req:    ReviewRequest{Status: model.StatusReject},
			setupMocks: func(mRepo *repoMocks.MockAuditRepository) {
				mRepo.On("FindByID", mock.Anything, int64(7)).
					Return(&model.AuditRecord{ID: 7, UserID: 1, Status: model.StatusPass}, nil).Once()
			},
			wantErr: ErrInvalidState,
		},
		{
			name:   "forbidden is checked before state",
			caller: user2,
			req:    ReviewRequest{Status: model.StatusReject},
			setupMocks: func(mRepo *repoMocks.MockAuditRepository) {
				mRepo.On("FindByID", mock.Anything, int64(7)).
					Return(&model.AuditRecord{ID: 7, UserID: 1, Status: model.StatusPass}, nil).Once()
			},
			wantErr: ErrForbidden,
		},
		{
			name:   "lost race with concurrent review",
			caller: user1,
			req:    ReviewRequest{Status: model.StatusReject},
			setupMocks: func(mRepo *repoMocks.MockAuditRepository) {
				mRepo.On("FindByID", mock.Anything, int64(7)).
					Return(&model.AuditRecord{ID: 7, UserID: 1, Status: model.StatusReview}, nil).Once()
				mRepo.On("ApplyReview", mock.Anything, mock.Anything).Return(nil, repository.ErrStateConflict).Once()
			},
			wantErr: ErrInvalidState,
		},
		{
			name:       "review status must be final",
			caller:     user1,
			req:        ReviewRequest{Status: model.StatusReview},
			setupMocks: func(mRepo *repoMocks.MockAuditRepository) {},
			wantErr:    ErrInvalidInput,
		},
		{
			name:       "missing identity",
			caller:     model.Identity{},
			req:        ReviewRequest{Status: model.StatusPass},
			setupMocks: func(mRepo *repoMocks.MockAuditRepository) {},
			wantErr:    ErrInvalidIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockAuditRepository)
			tt.setupMocks(mRepo)
			svc := NewAuditService(Dependencies{
				Repo: mRepo,
				Now:  func() time.Time { return testNow },
			})

			rec, err := svc.Review(ctx, tt.caller, 7, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, rec)
			} else {
				require.NoError(t, err)
				assert.Equal(t, model.StatusPass, rec.Status)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestAuditService_Review_RepositoryError(t *testing.T) {
	mRepo := new(repoMocks.MockAuditRepository)
	mRepo.On("FindByID", mock.Anything, int64(1)).Return(nil, errors.New("conn reset"))

	_, err := NewAuditService(Dependencies{Repo: mRepo}).Review(context.Background(), user1, 1, ReviewRequest{Status: model.StatusPass})
	assert.ErrorContains(t, err, "conn reset")
	assert.NotErrorIs(t, err, ErrNotFound)
}

// countingRepo answers Count from the filter so every query can be checked.
type countingRepo struct {
	*repoMocks.MockAuditRepository
	mu      sync.Mutex
	filters []repository.CountFilter
	fail    bool
}

func (r *countingRepo) Count(ctx context.Context, f repository.CountFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = append(r.filters, f)
	if r.fail {
		return 0, errors.New("db down")
	}
	if f.From.IsZero() {
		switch {
		case f.Status == model.StatusPass:
			return 60, nil
		case f.Status == model.StatusReject:
			return 25, nil
		case f.Status == model.StatusReview:
			return 15, nil
		case f.ContentType == model.ContentText:
			return 70, nil
		case f.ContentType == model.ContentImage:
			return 30, nil
		}
		return 100, nil
	}
	// trend: day of month for PASS, 1 for REJECT, 0 for REVIEW
	switch f.Status {
	case model.StatusPass:
		return int64(f.From.Day()), nil
	case model.StatusReject:
		return 1, nil
	}
	return 0, nil
}

func TestAuditService_Statistics(t *testing.T) {
	ctx := context.Background()
	jst := time.FixedZone("JST", 9*60*60)
	repo := &countingRepo{MockAuditRepository: new(repoMocks.MockAuditRepository)}

	// 20:00 UTC on the 9th is already the 10th in JST
	svc := NewAuditService(Dependencies{
		Repo:     repo,
		Location: jst,
		Now:      func() time.Time { return time.Date(2025, 3, 9, 20, 0, 0, 0, time.UTC) },
	})

	st, err := svc.Statistics(ctx, user1)
	require.NoError(t, err)

	assert.Equal(t, int64(100), st.TotalCount)
	assert.Equal(t, int64(60), st.PassCount)
	assert.Equal(t, int64(25), st.RejectCount)
	assert.Equal(t, int64(15), st.ReviewCount)
	assert.Equal(t, int64(70), st.TextCount)
	assert.Equal(t, int64(30), st.ImageCount)

	require.Len(t, st.TrendData, 7)
	wantDates := []string{"2025-03-04", "2025-03-05", "2025-03-06", "2025-03-07", "2025-03-08", "2025-03-09", "2025-03-10"}
	for i, p := range st.TrendData {
		assert.Equal(t, wantDates[i], p.Date)
		assert.Equal(t, int64(4+i), p.Pass)
		assert.Equal(t, int64(1), p.Reject)
		assert.Equal(t, int64(0), p.Review)
	}

	// 6 totals plus 3 statuses for each of 7 days, all scoped to the caller
	require.Len(t, repo.filters, 6+7*3)
	for _, f := range repo.filters {
		assert.Equal(t, int64(1), f.UserID)
	}
	first := repo.filters[6]
	assert.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, jst), first.From)
	assert.Equal(t, time.Date(2025, 3, 5, 0, 0, 0, 0, jst), first.To)
}

func TestAuditService_Statistics_Errors(t *testing.T) {
	repo := &countingRepo{MockAuditRepository: new(repoMocks.MockAuditRepository), fail: true}
	svc := NewAuditService(Dependencies{Repo: repo})

	_, err := svc.Statistics(context.Background(), user1)
	assert.ErrorContains(t, err, "db down")

	_, err = svc.Statistics(context.Background(), model.Identity{})
	assert.ErrorIs(t, err, ErrInvalidIdentity)
}
