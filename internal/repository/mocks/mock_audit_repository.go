package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sharonlnl728/content-audit-platform/internal/model"
	"github.com/sharonlnl728/content-audit-platform/internal/repository"
)

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, rec *model.AuditRecord) (*model.AuditRecord, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditRecord), args.Error(1)
}

func (m *MockAuditRepository) CreateBatch(ctx context.Context, recs []*model.AuditRecord) error {
	args := m.Called(ctx, recs)
	return args.Error(0)
}

func (m *MockAuditRepository) FindByID(ctx context.Context, id int64) (*model.AuditRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditRecord), args.Error(1)
}

func (m *MockAuditRepository) ListByUser(ctx context.Context, userID int64, pq repository.PageQuery) (*repository.PageResult[model.AuditRecord], error) {
	args := m.Called(ctx, userID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.AuditRecord]), args.Error(1)
}

func (m *MockAuditRepository) Count(ctx context.Context, f repository.CountFilter) (int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuditRepository) ApplyReview(ctx context.Context, u repository.ReviewUpdate) (*model.AuditRecord, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditRecord), args.Error(1)
}
