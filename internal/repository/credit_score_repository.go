package repository

import (
	"context"
	"time"

	"credit-risk-monitor/internal/entity"

	"gorm.io/gorm"
)

// LeaderboardEntry is the latest score of an active company.
type LeaderboardEntry struct {
	CompanyID      uint                  `json:"company_id"`
	Ticker         string                `json:"ticker"`
	Name           string                `json:"name"`
	Sector         string                `json:"sector"`
	OverallScore   float64               `json:"overall_score"`
	ScoreChange    float64               `json:"score_change"`
	TrendDirection entity.TrendDirection `json:"trend_direction"`
	CalculatedAt   time.Time             `json:"calculated_at"`
}

// CreditScoreRepository defines the interface for credit score data operations.
type CreditScoreRepository interface {
	Create(ctx context.Context, score *entity.CreditScore) error
	FindLatest(ctx context.Context, companyID uint) (*entity.CreditScore, error)
	LoadScoreHistory(ctx context.Context, companyID uint, limit int) ([]float64, error)
	FindSince(ctx context.Context, companyID uint, since time.Time) ([]entity.CreditScore, error)
	Leaderboard(ctx context.Context, limit int, ascending bool) ([]LeaderboardEntry, error)
}

// NewCreditScoreRepository creates a new GORM-based credit score repository.
func NewCreditScoreRepository(db *gorm.DB) CreditScoreRepository {
	return &creditScoreRepository{db: db}
}

type creditScoreRepository struct {
	db *gorm.DB
}

// Create inserts a score. Scores are never updated afterwards.
func (r *creditScoreRepository) Create(ctx context.Context, score *entity.CreditScore) error {
	return r.db.WithContext(ctx).Create(score).Error
}

// FindLatest returns the most recent score, or nil when the company was never scored.
func (r *creditScoreRepository) FindLatest(ctx context.Context, companyID uint) (*entity.CreditScore, error) {
	var score entity.CreditScore
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("calculated_at desc, id desc").Limit(1).Find(&score).Error
	if err != nil {
		return nil, err
	}
	if score.ID == 0 {
		return nil, nil
	}
	return &score, nil
}

// LoadScoreHistory returns up to limit prior overall scores, most recent first.
func (r *creditScoreRepository) LoadScoreHistory(ctx context.Context, companyID uint, limit int) ([]float64, error) {
	var history []float64
	err := r.db.WithContext(ctx).Model(&entity.CreditScore{}).
		Where("company_id = ?", companyID).
		Order("calculated_at desc, id desc").
		Limit(limit).
		Pluck("overall_score", &history).Error
	if err != nil {
		return nil, err
	}
	return history, nil
}

// FindSince returns the company's scores calculated at or after since, oldest first.
func (r *creditScoreRepository) FindSince(ctx context.Context, companyID uint, since time.Time) ([]entity.CreditScore, error) {
	var scores []entity.CreditScore
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND calculated_at >= ?", companyID, since).
		Order("calculated_at asc, id asc").
		Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// Leaderboard ranks active companies by their latest overall score. Scores
// sharing a timestamp resolve to the highest id, matching FindLatest.
func (r *creditScoreRepository) Leaderboard(ctx context.Context, limit int, ascending bool) ([]LeaderboardEntry, error) {
	order := "cs.overall_score DESC"
	if ascending {
		order = "cs.overall_score ASC"
	}

	var entries []LeaderboardEntry
	err := r.db.WithContext(ctx).Raw(`
	SELECT
		cs.company_id,
		c.ticker,
		c.name,
		c.sector,
		cs.overall_score,
		cs.score_change,
		cs.trend_direction,
		cs.calculated_at
	FROM credit_scores AS cs
	JOIN (
		SELECT s.company_id, MAX(s.id) AS latest_id
		FROM credit_scores AS s
		JOIN (
			SELECT company_id, MAX(calculated_at) AS max_calculated_at
			FROM credit_scores
			GROUP BY company_id
		) AS m ON m.company_id = s.company_id AND m.max_calculated_at = s.calculated_at
		GROUP BY s.company_id
	) AS latest ON latest.latest_id = cs.id
	JOIN companies AS c ON c.id = cs.company_id
	WHERE c.is_active = ?
	ORDER BY `+order+`, c.ticker
	LIMIT ?`, true, limit).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
