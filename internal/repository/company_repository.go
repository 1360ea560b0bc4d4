package repository

import (
	"context"
	"errors"
	"strings"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/entity"

	"gorm.io/gorm"
)

// CompanyRepository defines the interface for company data operations.
type CompanyRepository interface {
	Create(ctx context.Context, company *entity.Company) error
	FindByTicker(ctx context.Context, ticker string) (*entity.Company, error)
	FindActiveByTicker(ctx context.Context, ticker string) (*entity.Company, error)
	FindActive(ctx context.Context) ([]entity.Company, error)
	FindAll(ctx context.Context) ([]entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
}

// NewCompanyRepository creates a new GORM-based company repository.
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

type companyRepository struct {
	db *gorm.DB
}

func (r *companyRepository) Create(ctx context.Context, company *entity.Company) error {
	company.Ticker = strings.ToUpper(company.Ticker)
	return r.db.WithContext(ctx).Create(company).Error
}

// FindByTicker returns the company regardless of its active flag.
func (r *companyRepository) FindByTicker(ctx context.Context, ticker string) (*entity.Company, error) {
	var company entity.Company
	err := r.db.WithContext(ctx).Where("ticker = ?", strings.ToUpper(ticker)).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NewNotFound("company", strings.ToUpper(ticker))
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// FindActiveByTicker returns an active company or a NotFoundError.
func (r *companyRepository) FindActiveByTicker(ctx context.Context, ticker string) (*entity.Company, error) {
	var company entity.Company
	err := r.db.WithContext(ctx).
		Where("ticker = ? AND is_active = ?", strings.ToUpper(ticker), true).
		First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NewNotFound("company", strings.ToUpper(ticker))
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) FindActive(ctx context.Context) ([]entity.Company, error) {
	var companies []entity.Company
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("ticker").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *companyRepository) FindAll(ctx context.Context) ([]entity.Company, error) {
	var companies []entity.Company
	if err := r.db.WithContext(ctx).Order("ticker").Find(&companies).Error; err != nil {
		return nil, err
	}
	return companies, nil
}

// Update saves every field, including a false is_active.
func (r *companyRepository) Update(ctx context.Context, company *entity.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}
