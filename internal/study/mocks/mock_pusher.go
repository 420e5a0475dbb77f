package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sharonlnl728/content-audit-platform/internal/model"
)

type MockPusher struct {
	mock.Mock
}

func (m *MockPusher) PushVerdict(ctx context.Context, studyID, recordID int64, result model.AuditResult) {
	m.Called(ctx, studyID, recordID, result)
}

func (m *MockPusher) PushError(ctx context.Context, studyID, recordID int64, msg string) {
	m.Called(ctx, studyID, recordID, msg)
}
