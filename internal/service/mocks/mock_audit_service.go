package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sharonlnl728/content-audit-platform/internal/model"
	"github.com/sharonlnl728/content-audit-platform/internal/service"
)

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) AuditText(ctx context.Context, caller model.Identity, req service.TextAuditRequest) (*model.AuditResult, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditResult), args.Error(1)
}

func (m *MockAuditService) AuditImage(ctx context.Context, caller model.Identity, req service.ImageAuditRequest) (*model.AuditResult, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditResult), args.Error(1)
}

func (m *MockAuditService) AuditBatch(ctx context.Context, caller model.Identity, items []service.BatchItem) ([]model.AuditResult, error) {
	args := m.Called(ctx, caller, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuditResult), args.Error(1)
}

func (m *MockAuditService) History(ctx context.Context, caller model.Identity, page, size int) (*service.HistoryResult, error) {
	args := m.Called(ctx, caller, page, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.HistoryResult), args.Error(1)
}

func (m *MockAuditService) Review(ctx context.Context, caller model.Identity, auditID int64, req service.ReviewRequest) (*model.AuditRecord, error) {
	args := m.Called(ctx, caller, auditID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditRecord), args.Error(1)
}

func (m *MockAuditService) Statistics(ctx context.Context, caller model.Identity) (*model.AuditStatistics, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuditStatistics), args.Error(1)
}
