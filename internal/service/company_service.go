package service

import (
	"context"
	"strings"
	"time"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/pkg/logger"

	"github.com/patrickmn/go-cache"
)

// CompanyService manages the registry of monitored companies.
type CompanyService interface {
	Register(ctx context.Context, ticker string) (*entity.Company, error)
	Get(ctx context.Context, ticker string) (*entity.Company, error)
	List(ctx context.Context, includeInactive bool) ([]entity.Company, error)
	ActiveTickers(ctx context.Context) ([]string, error)
	Deactivate(ctx context.Context, ticker string) error
}

// NewCompanyService creates a new company service.
func NewCompanyService(companyRepo repository.CompanyRepository, financialRepo repository.FinancialDataRepository, log *logger.Logger) CompanyService {
	return &companyService{
		companyRepo:   companyRepo,
		financialRepo: financialRepo,
		logger:        log,
		cache:         cache.New(5*time.Minute, 10*time.Minute),
	}
}

type companyService struct {
	companyRepo   repository.CompanyRepository
	financialRepo repository.FinancialDataRepository
	logger        *logger.Logger
	cache         *cache.Cache
}

// Register adds ticker to the monitored set using the provider profile. An
// inactive company is reactivated; an active one is returned unchanged.
func (s *companyService) Register(ctx context.Context, ticker string) (*entity.Company, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	existing, err := s.companyRepo.FindByTicker(ctx, ticker)
	if err != nil && !apperr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		if !existing.IsActive {
			existing.IsActive = true
			if err := s.companyRepo.Update(ctx, existing); err != nil {
				return nil, err
			}
			s.logger.Info("Company reactivated", logger.StringField("ticker", ticker))
		}
		s.cache.Delete(ticker)
		return existing, nil
	}

	profile, err := s.financialRepo.FetchProfile(ctx, ticker)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, err
		}
		return nil, asUpstream("financial", ticker, err)
	}

	company := &entity.Company{
		Ticker:   ticker,
		Name:     profile.Name,
		Sector:   profile.Sector,
		Industry: profile.Industry,
		IsActive: true,
	}
	if err := s.companyRepo.Create(ctx, company); err != nil {
		s.logger.Error("Failed to create company", logger.ErrorField(err), logger.StringField("ticker", ticker))
		return nil, err
	}

	s.logger.Info("Company registered", logger.StringField("ticker", ticker), logger.StringField("name", company.Name))
	return company, nil
}

// Get returns an active company, served from a short-lived cache.
func (s *companyService) Get(ctx context.Context, ticker string) (*entity.Company, error) {
	ticker = strings.ToUpper(ticker)
	if cached, ok := s.cache.Get(ticker); ok {
		return cached.(*entity.Company), nil
	}

	company, err := s.companyRepo.FindActiveByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ticker, company, cache.DefaultExpiration)
	return company, nil
}

func (s *companyService) List(ctx context.Context, includeInactive bool) ([]entity.Company, error) {
	if includeInactive {
		return s.companyRepo.FindAll(ctx)
	}
	return s.companyRepo.FindActive(ctx)
}

// ActiveTickers lists the tickers of every active company.
func (s *companyService) ActiveTickers(ctx context.Context) ([]string, error) {
	companies, err := s.companyRepo.FindActive(ctx)
	if err != nil {
		return nil, err
	}
	tickers := make([]string, 0, len(companies))
	for _, c := range companies {
		tickers = append(tickers, c.Ticker)
	}
	return tickers, nil
}

// Deactivate stops monitoring ticker. History is kept.
func (s *companyService) Deactivate(ctx context.Context, ticker string) error {
	company, err := s.companyRepo.FindActiveByTicker(ctx, ticker)
	if err != nil {
		return err
	}
	company.IsActive = false
	if err := s.companyRepo.Update(ctx, company); err != nil {
		return err
	}
	s.cache.Delete(company.Ticker)
	s.logger.Info("Company deactivated", logger.StringField("ticker", company.Ticker))
	return nil
}
