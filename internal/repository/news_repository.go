package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"credit-risk-monitor/internal/apperr"
	"credit-risk-monitor/internal/config"
	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/pkg/logger"
	"credit-risk-monitor/pkg/utils"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"
)

// NewsQuery describes which articles to fetch for a company.
type NewsQuery struct {
	Ticker      string
	CompanyName string
	Since       time.Time
}

// NewsRepository fetches recent news articles about a company.
type NewsRepository interface {
	FetchNews(ctx context.Context, query NewsQuery) ([]dto.NewsArticle, error)
}

// NewNewsRepository returns the connector selected by providers.news.source.
func NewNewsRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	if cfg.Providers.News.Source == "newsapi" {
		return NewNewsAPIRepository(cfg, log)
	}
	return NewGoogleNewsRepository(cfg, log)
}

type newsAPIRepository struct {
	cfg    *config.Config
	log    *logger.Logger
	client *providerClient
}

// NewNewsAPIRepository creates a NewsAPI connector.
func NewNewsAPIRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	return &newsAPIRepository{
		cfg: cfg,
		log: log,
		client: newProviderClient("newsapi", log,
			cfg.Providers.News.MaxRequestPerMinute,
			cfg.Providers.MaxRetries,
			config.MustDuration(cfg.Providers.RetryDelay),
		),
	}
}

func (r *newsAPIRepository) FetchNews(ctx context.Context, query NewsQuery) ([]dto.NewsArticle, error) {
	params := url.Values{}
	params.Set("q", searchTerm(query))
	params.Set("from", query.Since.UTC().Format(time.RFC3339))
	params.Set("sortBy", "publishedAt")
	params.Set("language", r.cfg.Providers.News.Language)
	params.Set("pageSize", fmt.Sprint(r.cfg.Providers.News.MaxArticles))

	u := r.cfg.Providers.News.BaseURL + "/v2/everything?" + params.Encode()
	body, err := r.client.fetch(ctx, query.Ticker, u, map[string]string{"X-Api-Key": r.cfg.Providers.News.APIKey})
	if err != nil {
		return nil, err
	}

	var response dto.NewsAPIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &apperr.UpstreamFetchError{Provider: r.client.name, Entity: query.Ticker, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if response.Status != "ok" {
		return nil, &apperr.UpstreamFetchError{Provider: r.client.name, Entity: query.Ticker, Err: fmt.Errorf("%s: %s", response.Code, response.Message)}
	}

	articles := make([]dto.NewsArticle, 0, len(response.Articles))
	for _, a := range response.Articles {
		if a.Title == "" || a.PublishedAt.Before(query.Since) {
			continue
		}
		articles = append(articles, dto.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: a.PublishedAt.UTC(),
		})
	}

	r.log.DebugContext(ctx, "NewsAPI articles fetched",
		logger.StringField("ticker", query.Ticker), logger.IntField("count", len(articles)))
	return limitArticles(articles, r.cfg.Providers.News.MaxArticles), nil
}

type googleNewsRepository struct {
	cfg    *config.Config
	log    *logger.Logger
	client *providerClient
}

// NewGoogleNewsRepository creates a Google News RSS connector.
func NewGoogleNewsRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	return &googleNewsRepository{
		cfg: cfg,
		log: log,
		client: newProviderClient("google_news", log,
			cfg.Providers.News.MaxRequestPerMinute,
			cfg.Providers.MaxRetries,
			config.MustDuration(cfg.Providers.RetryDelay),
		),
	}
}

func (r *googleNewsRepository) FetchNews(ctx context.Context, query NewsQuery) ([]dto.NewsArticle, error) {
	lang := r.cfg.Providers.News.Language
	params := url.Values{}
	params.Set("q", searchTerm(query)+" stock")
	params.Set("hl", lang)
	params.Set("ceid", "US:"+lang)
	params.Set("gl", "US")

	u := r.cfg.Providers.News.BaseURL + "/search?" + params.Encode()
	body, err := r.client.fetch(ctx, query.Ticker, u, nil)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, &apperr.UpstreamFetchError{Provider: r.client.name, Entity: query.Ticker, Err: fmt.Errorf("failed to parse feed: %w", err)}
	}

	articles := make([]dto.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.PublishedParsed == nil || item.PublishedParsed.Before(query.Since) {
			continue
		}
		title, source := splitSource(item.Title)
		articles = append(articles, dto.NewsArticle{
			Title:       title,
			Description: htmlToText(item.Description),
			URL:         item.Link,
			Source:      source,
			PublishedAt: item.PublishedParsed.UTC(),
		})
	}

	// Sort items by published date descending
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	articles = limitArticles(articles, r.cfg.Providers.News.MaxArticles)

	if r.cfg.Providers.News.FetchContent {
		for i := range articles {
			if !utils.ShouldContinue(ctx, r.log) {
				break
			}
			content, err := r.articleContent(ctx, query.Ticker, articles[i].URL)
			if err != nil {
				r.log.WarnContext(ctx, "Failed to fetch article content", logger.StringField("url", articles[i].URL), logger.ErrorField(err))
				continue
			}
			if content != "" {
				articles[i].Description = utils.Truncate(content, 1000)
			}
		}
	}

	r.log.DebugContext(ctx, "Google News articles fetched",
		logger.StringField("ticker", query.Ticker), logger.IntField("count", len(articles)))
	return articles, nil
}

// articleContent downloads the article page and extracts its readable text.
func (r *googleNewsRepository) articleContent(ctx context.Context, ticker, link string) (string, error) {
	body, err := r.client.fetch(ctx, ticker, link, nil)
	if err != nil {
		return "", err
	}
	doc, err := readability.NewDocument(string(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse news content: %w", err)
	}
	return htmlToText(doc.Content()), nil
}

func searchTerm(query NewsQuery) string {
	if query.CompanyName != "" && !strings.EqualFold(query.CompanyName, query.Ticker) {
		return fmt.Sprintf("%q OR %s", query.CompanyName, strings.ToUpper(query.Ticker))
	}
	return strings.ToUpper(query.Ticker)
}

// splitSource splits Google News "Headline - Publisher" titles.
func splitSource(title string) (string, string) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return strings.TrimSpace(title), ""
	}
	return strings.TrimSpace(title[:idx]), strings.TrimSpace(title[idx+3:])
}

func htmlToText(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func limitArticles(articles []dto.NewsArticle, max int) []dto.NewsArticle {
	if max > 0 && len(articles) > max {
		return articles[:max]
	}
	return articles
}
