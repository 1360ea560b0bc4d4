package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"credit-risk-monitor/internal/alerting"
	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/config"
	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/internal/metrics"
	"credit-risk-monitor/internal/repository"
	"credit-risk-monitor/internal/scoring"
	"credit-risk-monitor/pkg/logger"
	"credit-risk-monitor/pkg/telegram"
	"credit-risk-monitor/pkg/utils"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// RefreshMode selects how a refresh cycle obtains its inputs.
type RefreshMode string

const (
	// ModeFetch pulls fresh data from the providers before scoring.
	ModeFetch RefreshMode = "fetch"
	// ModeScore rescores from the stored snapshot and news.
	ModeScore RefreshMode = "score"
)

// ParseRefreshMode maps "" to ModeFetch and rejects unknown values.
func ParseRefreshMode(s string) (RefreshMode, error) {
	switch RefreshMode(strings.ToLower(s)) {
	case "", ModeFetch:
		return ModeFetch, nil
	case ModeScore:
		return ModeScore, nil
	default:
		return "", fmt.Errorf("unknown refresh mode %q", s)
	}
}

const calculationMethod = "weighted_average"

// RefreshResult is the outcome of one refresh cycle.
type RefreshResult struct {
	Ticker     string              `json:"ticker"`
	Mode       RefreshMode         `json:"mode"`
	Score      *entity.CreditScore `json:"score"`
	Alerts     []*entity.Alert     `json:"alerts"`
	NewSignals int                 `json:"new_signals"`
	Suppressed int                 `json:"suppressed_alerts"`
}

// RefreshService runs the per-company refresh cycle.
type RefreshService interface {
	Execute(ctx context.Context, ticker string, mode RefreshMode) (*RefreshResult, error)
}

// RefreshServiceParams groups the collaborators of the refresh cycle.
type RefreshServiceParams struct {
	Config          *config.Config
	Logger          *logger.Logger
	CompanyRepo     repository.CompanyRepository
	SnapshotRepo    repository.FeatureSnapshotRepository
	NewsSignalRepo  repository.NewsSignalRepository
	CreditScoreRepo repository.CreditScoreRepository
	AlertRepo       repository.AlertRepository
	FinancialRepo   repository.FinancialDataRepository
	NewsRepo        repository.NewsRepository
	SentimentRepo   repository.SentimentRepository
	StreamRepo      repository.StreamRepository
	Engine          *scoring.Engine
	Deriver         *alerting.Deriver
	Deduplicator    alerting.Deduplicator
	Notifier        telegram.Notifier
	Metrics         *metrics.Registry
	Now             func() time.Time
}

// NewRefreshService creates the refresh cycle service.
func NewRefreshService(p RefreshServiceParams) RefreshService {
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Notifier == nil {
		p.Notifier = telegram.NewNopNotifier()
	}
	if p.StreamRepo == nil {
		p.StreamRepo = repository.NewStreamRepository(nil, 0)
	}
	if p.Metrics == nil {
		p.Metrics = metrics.NewRegistry()
	}
	return &refreshService{
		p:                 p,
		providerTimeout:   config.MustDuration(p.Config.Scheduler.ProviderTimeout),
		scoreValidity:     config.MustDuration(p.Config.Scoring.ScoreValidity),
		notifyMinSeverity: entity.Severity(p.Config.Alert.NotifyMinSeverity),
	}
}

type refreshService struct {
	p                 RefreshServiceParams
	providerTimeout   time.Duration
	scoreValidity     time.Duration
	notifyMinSeverity entity.Severity
}

// Execute runs one cycle for ticker. Provider failures abort the cycle before
// anything is written; a company without any snapshot yields an
// InsufficientDataError and no score.
func (s *refreshService) Execute(ctx context.Context, ticker string, mode RefreshMode) (result *RefreshResult, err error) {
	ticker = strings.ToUpper(ticker)
	ctx = logger.WithTicker(ctx, ticker)
	log := s.p.Logger

	company, err := s.p.CompanyRepo.FindActiveByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	timer := s.p.Metrics.StartRefresh(string(mode))
	defer func() {
		if err != nil {
			timer.Stop("failed")
			s.p.Metrics.RecordRefreshError(apperr.Kind(err))
			return
		}
		timer.Stop("success")
	}()

	now := s.p.Now().UTC()
	since := utils.DaysAgo(now, s.p.Config.Scoring.NewsLookbackDays)
	result = &RefreshResult{Ticker: ticker, Mode: mode}

	var (
		snapshot   *entity.FeatureSnapshot
		newSignals []entity.NewsSignal
	)
	switch mode {
	case ModeScore:
		snapshot, err = s.p.SnapshotRepo.FindLatest(ctx, company.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
		}
		if snapshot == nil {
			return nil, &apperr.InsufficientDataError{Entity: ticker, Reason: "no feature snapshot stored"}
		}
	default:
		snapshot, newSignals, err = s.fetch(ctx, company, since)
		if err != nil {
			return nil, err
		}
	}
	result.NewSignals = len(newSignals)

	news, err := s.p.NewsSignalRepo.FindSince(ctx, company.ID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load news signals: %w", err)
	}

	history, err := s.p.CreditScoreRepo.LoadScoreHistory(ctx, company.ID, s.p.Config.Scoring.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load score history: %w", err)
	}

	scored := s.p.Engine.Score(snapshot, news)
	trend := scoring.Track(scored.Overall, history)
	explanation := scoring.Explain(ticker, snapshot, news, trend.ScoreChange)

	score := &entity.CreditScore{
		CompanyID:          company.ID,
		OverallScore:       scored.Overall,
		FinancialScore:     scored.Financial,
		MarketScore:        scored.Market,
		NewsScore:          scored.News,
		ScoreChange:        trend.ScoreChange,
		TrendDirection:     trend.Direction,
		Volatility:         trend.Volatility,
		ExplanationSummary: explanation.Summary,
		KeyFactors:         pq.StringArray(explanation.KeyFactors),
		RiskIndicators:     pq.StringArray(explanation.RiskIndicators),
		FeatureImportance:  datatypes.NewJSONType(explanation.FeatureImportance),
		ModelVersion:       s.p.Config.Scoring.ModelVersion,
		CalculationMethod:  calculationMethod,
		ConfidenceLevel:    s.p.Config.Scoring.ConfidenceLevel,
		CalculatedAt:       now,
		ValidUntil:         now.Add(s.scoreValidity),
	}
	if err := s.p.CreditScoreRepo.Create(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to persist credit score: %w", err)
	}
	result.Score = score
	s.p.Metrics.SetLatestScore(ticker, score.OverallScore)

	log.InfoContext(ctx, "Credit score computed",
		logger.FloatField("overall_score", score.OverallScore),
		logger.FloatField("score_change", score.ScoreChange),
		logger.StringField("trend", string(score.TrendDirection)),
		logger.IntField("news_count", len(news)),
		logger.IntField("new_signals", len(newSignals)),
	)

	var candidates []*entity.Alert
	if len(history) > 0 {
		if a := s.p.Deriver.ScoreChange(company.ID, history[0], scored.Overall, now); a != nil {
			candidates = append(candidates, a)
		}
	}
	for _, signal := range newSignals {
		if a := s.p.Deriver.NewsEvent(company.ID, signal, now); a != nil {
			candidates = append(candidates, a)
		}
	}

	result.Alerts, result.Suppressed = s.emitAlerts(ctx, ticker, candidates)
	return result, nil
}

// fetch pulls the snapshot and news from the providers, then persists both.
func (s *refreshService) fetch(ctx context.Context, company *entity.Company, since time.Time) (*entity.FeatureSnapshot, []entity.NewsSignal, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	snapshot, err := s.p.FinancialRepo.FetchSnapshot(fetchCtx, company.Ticker)
	if err != nil {
		return nil, nil, asUpstream("financial", company.Ticker, err)
	}

	articles, err := s.p.NewsRepo.FetchNews(fetchCtx, repository.NewsQuery{
		Ticker:      company.Ticker,
		CompanyName: company.Name,
		Since:       since,
	})
	if err != nil {
		return nil, nil, asUpstream("news", company.Ticker, err)
	}

	texts := make([]string, len(articles))
	for i, a := range articles {
		texts[i] = strings.TrimSpace(a.Title + " " + a.Description)
	}
	sentiments, err := s.p.SentimentRepo.Analyze(fetchCtx, texts)
	if err != nil {
		return nil, nil, asUpstream("sentiment", company.Ticker, err)
	}

	snapshot.CompanyID = company.ID
	if err := s.p.SnapshotRepo.Create(ctx, snapshot); err != nil {
		return nil, nil, fmt.Errorf("failed to persist feature snapshot: %w", err)
	}

	signals := make([]entity.NewsSignal, 0, len(articles))
	for i, a := range articles {
		signals = append(signals, BuildNewsSignal(company.ID, a, sentiments[i]))
	}
	if len(signals) == 0 {
		return snapshot, nil, nil
	}

	inserted, err := s.p.NewsSignalRepo.CreateIgnoreConflict(ctx, signals)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to persist news signals: %w", err)
	}
	return snapshot, inserted, nil
}

// emitAlerts deduplicates, persists, publishes and notifies. Delivery failures
// are logged; they never fail the cycle.
func (s *refreshService) emitAlerts(ctx context.Context, ticker string, candidates []*entity.Alert) ([]*entity.Alert, int) {
	var (
		emitted    []*entity.Alert
		notify     []*entity.Alert
		suppressed int
	)

	for _, a := range candidates {
		allowed, err := s.p.Deduplicator.Allow(ctx, a)
		if err != nil {
			s.p.Logger.WarnContext(ctx, "Alert deduplication unavailable, emitting alert", logger.ErrorField(err))
			allowed = true
		}
		if !allowed {
			suppressed++
			s.p.Metrics.RecordSuppressedAlert(string(a.AlertType))
			s.p.Logger.DebugContext(ctx, "Alert suppressed within dedupe window",
				logger.StringField("alert_type", string(a.AlertType)),
				logger.StringField("severity", string(a.Severity)),
			)
			continue
		}

		if err := s.p.AlertRepo.Create(ctx, a); err != nil {
			s.p.Logger.ErrorContext(ctx, "Failed to persist alert", logger.ErrorField(err), logger.StringField("title", a.Title))
			continue
		}
		emitted = append(emitted, a)
		s.p.Metrics.RecordAlert(string(a.AlertType), string(a.Severity))

		if err := s.p.StreamRepo.PublishAlert(ctx, ticker, a); err != nil {
			s.p.Logger.ErrorContext(ctx, "Failed to publish alert event", logger.ErrorField(err), logger.Field("alert_id", a.ID))
		}
		if a.Severity.Rank() >= s.notifyMinSeverity.Rank() {
			notify = append(notify, a)
		}
	}

	for _, msg := range telegram.FormatAlertsForTelegram(ticker, notify) {
		if err := s.p.Notifier.SendMessage(msg); err != nil {
			s.p.Logger.ErrorContext(ctx, "Failed to send telegram alert", logger.ErrorField(err))
		}
	}
	return emitted, suppressed
}

// BuildNewsSignal classifies an article and derives its risk score.
func BuildNewsSignal(companyID uint, a dto.NewsArticle, sentiment float64) entity.NewsSignal {
	event := scoring.ClassifyEvent(a.Title + " " + a.Description)
	published := a.PublishedAt.UTC()

	return entity.NewsSignal{
		CompanyID:       companyID,
		Headline:        a.Title,
		Summary:         utils.Truncate(a.Description, 500),
		URL:             a.URL,
		Source:          a.Source,
		PublishedAt:     published,
		SentimentScore:  sentiment,
		SentimentLabel:  entity.SentimentLabelFor(sentiment),
		EventType:       event.EventType,
		EventConfidence: event.Confidence,
		Keywords:        pq.StringArray(event.Keywords),
		RiskScore:       scoring.NewsRiskScore(sentiment, event.EventType),
		RiskFactors:     pq.StringArray(scoring.NewsRiskFactors(sentiment, event.EventType)),
		HashIdentifier:  utils.HashIdentifier(strconv.FormatUint(uint64(companyID), 10), a.URL, published.Format(time.RFC3339)),
	}
}

func asUpstream(provider, ticker string, err error) error {
	var upstream *apperr.UpstreamFetchError
	if errors.As(err, &upstream) {
		return err
	}
	return &apperr.UpstreamFetchError{Provider: provider, Entity: ticker, Err: err}
}
