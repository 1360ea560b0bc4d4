package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/config"
	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/internal/entity"
	"credit-risk-monitor/pkg/logger"

	"gonum.org/v1/gonum/stat"
)

const (
	yahooSummaryModules = "financialData,defaultKeyStatistics,summaryDetail,price,assetProfile"
	tradingDaysPerYear  = 252
)

// FinancialDataRepository fetches financial and market metrics for a ticker.
type FinancialDataRepository interface {
	FetchSnapshot(ctx context.Context, ticker string) (*entity.FeatureSnapshot, error)
	FetchProfile(ctx context.Context, ticker string) (*dto.CompanyProfile, error)
}

type yahooFinanceRepository struct {
	cfg    *config.Config
	log    *logger.Logger
	client *providerClient
	now    func() time.Time
}

// NewYahooFinanceRepository creates a Yahoo Finance connector.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) FinancialDataRepository {
	return &yahooFinanceRepository{
		cfg: cfg,
		log: log,
		client: newProviderClient("yahoo_finance", log,
			cfg.Providers.Financial.MaxRequestPerMinute,
			cfg.Providers.MaxRetries,
			config.MustDuration(cfg.Providers.RetryDelay),
		),
		now: time.Now,
	}
}

// FetchSnapshot returns the current metrics of ticker. CompanyID is left for the caller.
func (r *yahooFinanceRepository) FetchSnapshot(ctx context.Context, ticker string) (*entity.FeatureSnapshot, error) {
	summary, err := r.quoteSummary(ctx, ticker)
	if err != nil {
		return nil, err
	}

	snapshot := &entity.FeatureSnapshot{
		DataSource: "yahoo_finance",
		CapturedAt: r.now().UTC(),
	}

	if fd := summary.FinancialData; fd != nil {
		if fd.DebtToEquity.Raw != nil {
			// Yahoo reports debt/equity as a percentage.
			v := *fd.DebtToEquity.Raw / 100
			snapshot.DebtToEquity = &v
		}
		snapshot.CurrentRatio = fd.CurrentRatio.Raw
		snapshot.QuickRatio = fd.QuickRatio.Raw
		snapshot.ReturnOnEquity = fd.ReturnOnEquity.Raw
		snapshot.ReturnOnAssets = fd.ReturnOnAssets.Raw
		snapshot.RevenueGrowth = fd.RevenueGrowth.Raw
		snapshot.StockPrice = fd.CurrentPrice.Raw
	}
	if ks := summary.DefaultKeyStatistics; ks != nil {
		snapshot.Beta = ks.Beta.Raw
	}
	if sd := summary.SummaryDetail; sd != nil {
		if snapshot.Beta == nil {
			snapshot.Beta = sd.Beta.Raw
		}
		if sd.MarketCap.Raw != nil {
			v := *sd.MarketCap.Raw / 1e6
			snapshot.MarketCap = &v
		}
		snapshot.PERatio = sd.TrailingPE.Raw
	}

	closes, price, err := r.dailyCloses(ctx, ticker)
	if err != nil {
		r.log.WarnContext(ctx, "Price history unavailable, volatility left empty",
			logger.StringField("ticker", ticker), logger.ErrorField(err))
	} else {
		snapshot.PriceVolatility = AnnualizedVolatility(closes)
		if snapshot.StockPrice == nil && price > 0 {
			snapshot.StockPrice = &price
		}
	}

	return snapshot, nil
}

// FetchProfile returns the descriptive data of ticker.
func (r *yahooFinanceRepository) FetchProfile(ctx context.Context, ticker string) (*dto.CompanyProfile, error) {
	summary, err := r.quoteSummary(ctx, ticker)
	if err != nil {
		return nil, err
	}

	profile := &dto.CompanyProfile{Ticker: strings.ToUpper(ticker), Name: strings.ToUpper(ticker)}
	if p := summary.Price; p != nil {
		if p.LongName != "" {
			profile.Name = p.LongName
		} else if p.ShortName != "" {
			profile.Name = p.ShortName
		}
	}
	if ap := summary.AssetProfile; ap != nil {
		profile.Sector = ap.Sector
		profile.Industry = ap.Industry
	}
	return profile, nil
}

func (r *yahooFinanceRepository) quoteSummary(ctx context.Context, ticker string) (*dto.YahooQuoteSummaryResult, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		r.cfg.Providers.Financial.BaseURL, url.PathEscape(strings.ToUpper(ticker)), yahooSummaryModules)

	body, err := r.client.fetch(ctx, ticker, u, nil)
	if err != nil {
		return nil, err
	}

	var response dto.YahooQuoteSummaryResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &apperr.UpstreamFetchError{Provider: r.client.name, Entity: ticker, Err: fmt.Errorf("failed to decode quote summary: %w", err)}
	}
	if e := response.QuoteSummary.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, apperr.NewNotFound("ticker", strings.ToUpper(ticker))
		}
		return nil, &apperr.UpstreamFetchError{Provider: r.client.name, Entity: ticker, Err: fmt.Errorf("%s: %s", e.Code, e.Description)}
	}
	if len(response.QuoteSummary.Result) == 0 {
		return nil, apperr.NewNotFound("ticker", strings.ToUpper(ticker))
	}
	return &response.QuoteSummary.Result[0], nil
}

func (r *yahooFinanceRepository) dailyCloses(ctx context.Context, ticker string) ([]float64, float64, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?range=1y&interval=1d",
		r.cfg.Providers.Financial.BaseURL, url.PathEscape(strings.ToUpper(ticker)))

	body, err := r.client.fetch(ctx, ticker, u, nil)
	if err != nil {
		return nil, 0, err
	}

	var response dto.YahooChartResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, 0, fmt.Errorf("failed to decode chart: %w", err)
	}
	if e := response.Chart.Error; e != nil {
		return nil, 0, fmt.Errorf("%s: %s", e.Code, e.Description)
	}
	if len(response.Chart.Result) == 0 || len(response.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, 0, fmt.Errorf("empty chart for %s", ticker)
	}

	result := response.Chart.Result[0]
	var closes []float64
	for _, c := range result.Indicators.Quote[0].Close {
		if c != nil && *c > 0 {
			closes = append(closes, *c)
		}
	}
	return closes, result.Meta.RegularMarketPrice, nil
}

// AnnualizedVolatility is the sample standard deviation of daily simple
// returns scaled by sqrt(252). Nil when fewer than two returns exist.
func AnnualizedVolatility(closes []float64) *float64 {
	if len(closes) < 3 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns = append(returns, closes[i]/closes[i-1]-1)
	}
	v := stat.StdDev(returns, nil) * math.Sqrt(tradingDaysPerYear)
	return &v
}
