package service

import (
	"context"
	"sync"

	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/repository"

	"github.com/stretchr/testify/mock"
)

type mockFinancialRepo struct {
	mock.Mock
}

func (m *mockFinancialRepo) FetchSnapshot(ctx context.Context, ticker string) (*entity.FeatureSnapshot, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	snapshot := *args.Get(0).(*entity.FeatureSnapshot)
	return &snapshot, args.Error(1)
}

func (m *mockFinancialRepo) FetchProfile(ctx context.Context, ticker string) (*dto.CompanyProfile, error) {
	args := m.Called(ctx, ticker)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CompanyProfile), args.Error(1)
}

type mockNewsRepo struct {
	mock.Mock
}

func (m *mockNewsRepo) FetchNews(ctx context.Context, q repository.NewsQuery) ([]dto.NewsArticle, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.NewsArticle), args.Error(1)
}

type mockSentimentRepo struct {
	mock.Mock
}

func (m *mockSentimentRepo) Analyze(ctx context.Context, texts []string) ([]float64, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float64), args.Error(1)
}

// recordingNotifier keeps every message it is asked to send.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) SendMessage(text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// refreshFunc adapts a function to RefreshService.
type refreshFunc func(ctx context.Context, ticker string, mode RefreshMode) (*RefreshResult, error)

func (f refreshFunc) Execute(ctx context.Context, ticker string, mode RefreshMode) (*RefreshResult, error) {
	return f(ctx, ticker, mode)
}
