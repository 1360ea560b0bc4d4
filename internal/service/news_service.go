package service

import (
	"context"
	"time"

	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/pkg/utils"
)

// NewsService answers read queries over stored news signals.
type NewsService interface {
	Recent(ctx context.Context, ticker string, days int, eventType string, limit int) ([]entity.NewsSignal, error)
}

// NewNewsService creates a new news query service.
func NewNewsService(companies CompanyService, newsRepo repository.NewsSignalRepository, now func() time.Time) NewsService {
	if now == nil {
		now = time.Now
	}
	return &newsService{companies: companies, newsRepo: newsRepo, now: now}
}

type newsService struct {
	companies CompanyService
	newsRepo  repository.NewsSignalRepository
	now       func() time.Time
}

func (s *newsService) Recent(ctx context.Context, ticker string, days int, eventType string, limit int) ([]entity.NewsSignal, error) {
	company, err := s.companies.Get(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return s.newsRepo.FindRecent(ctx, company.ID, utils.DaysAgo(s.now(), days), eventType, limit)
}
