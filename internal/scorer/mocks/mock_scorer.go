package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sharonlnl728/content-audit-platform/internal/scorer"
)

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) ScoreText(ctx context.Context, content string, templateConfig map[string]any) (*scorer.Score, error) {
	args := m.Called(ctx, content, templateConfig)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scorer.Score), args.Error(1)
}

func (m *MockScorer) ScoreImage(ctx context.Context, imageURL, imageBase64 string) (*scorer.Score, error) {
	args := m.Called(ctx, imageURL, imageBase64)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*scorer.Score), args.Error(1)
}
