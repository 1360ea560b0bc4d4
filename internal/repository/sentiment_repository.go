package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"credit-risk-monitor/internal/config"
	"credit-risk-monitor/internal/dto"
	"credit-risk-monitor/pkg/breaker"
	"credit-risk-monitor/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// SentimentRepository scores texts in [-1, 1]. The returned slice is aligned with texts.
type SentimentRepository interface {
	Analyze(ctx context.Context, texts []string) ([]float64, error)
}

type geminiSentimentRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	genAiClient    *genai.Client
	requestLimiter *rate.Limiter
	breaker        *breaker.Breaker
	fallback       SentimentRepository
}

// NewGeminiSentimentRepository creates a Gemini-backed sentiment classifier.
// Texts the model fails to score fall back to the lexicon classifier.
func NewGeminiSentimentRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) SentimentRepository {
	limit := rate.Inf
	if cfg.Providers.Sentiment.MaxRequestPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.Providers.Sentiment.MaxRequestPerMinute))
	}
	return &geminiSentimentRepository{
		cfg:            cfg,
		log:            log,
		genAiClient:    genAiClient,
		requestLimiter: rate.NewLimiter(limit, 1),
		breaker:        breaker.New("gemini"),
		fallback:       NewLexiconSentimentRepository(),
	}
}

func (r *geminiSentimentRepository) Analyze(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	scores, err := r.analyze(ctx, texts)
	if err != nil {
		r.log.WarnContext(ctx, "Gemini sentiment failed, using lexicon", logger.ErrorField(err))
		return r.fallback.Analyze(ctx, texts)
	}
	return scores, nil
}

func (r *geminiSentimentRepository) analyze(ctx context.Context, texts []string) ([]float64, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	prompt := buildSentimentPrompt(texts)
	res, err := r.breaker.Execute(func() (any, error) {
		return r.genAiClient.Models.GenerateContent(ctx, r.cfg.Providers.Sentiment.Model, genai.Text(prompt), &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	resp := res.(*genai.GenerateContentResponse)
	results, err := parseSentimentResponse(resp.Text())
	if err != nil {
		r.log.Error("Failed to unmarshal sentiment response from Gemini response", logger.ErrorField(err), logger.StringField("response", resp.Text()))
		return nil, err
	}

	fallback, _ := r.fallback.Analyze(ctx, texts)
	scores := make([]float64, len(texts))
	seen := make([]bool, len(texts))
	for _, item := range results {
		if item.Index < 0 || item.Index >= len(texts) {
			continue
		}
		scores[item.Index] = clampSentiment(item.Score)
		seen[item.Index] = true
	}
	for i := range scores {
		if !seen[i] {
			scores[i] = fallback[i]
		}
	}
	return scores, nil
}

func buildSentimentPrompt(texts []string) string {
	var b strings.Builder
	b.WriteString("You are a credit analyst. Rate the sentiment of each news item below towards the creditworthiness of the company it mentions.\n")
	b.WriteString("Return only a JSON array of objects {\"index\": <int>, \"score\": <float between -1 and 1>}, one per item. -1 is very negative, 0 is neutral, 1 is very positive.\n\n")
	for i, t := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i, strings.ReplaceAll(t, "\n", " "))
	}
	return b.String()
}

func parseSentimentResponse(raw string) ([]dto.SentimentResult, error) {
	raw = strings.Trim(strings.TrimSpace(raw), "`json\n`")
	var results []dto.SentimentResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sentiment result: %w", err)
	}
	return results, nil
}

func clampSentiment(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// lexiconNormalization is the alpha of the compound normalization x/sqrt(x^2+alpha).
const lexiconNormalization = 15

var lexicon = map[string]float64{
	"gain": 1.5, "gains": 1.5, "growth": 1.6, "grow": 1.4, "beat": 1.6, "beats": 1.6, "strong": 1.8,
	"record": 1.2, "profit": 1.6, "profits": 1.6, "upgrade": 1.9, "upgraded": 1.9, "surge": 1.7,
	"surges": 1.7, "rally": 1.5, "rallies": 1.5, "improve": 1.7, "improves": 1.7, "improved": 1.7,
	"positive": 2.0, "outperform": 1.8, "robust": 1.7, "rise": 1.2, "rises": 1.2, "win": 2.0,
	"wins": 2.0, "expand": 1.2, "expands": 1.2, "boost": 1.6, "boosts": 1.6, "success": 2.1,
	"loss": -1.8, "losses": -1.8, "decline": -1.6, "declines": -1.6, "drop": -1.4, "drops": -1.4,
	"fall": -1.4, "falls": -1.4, "plunge": -2.2, "plunges": -2.2, "weak": -1.8, "miss": -1.5,
	"misses": -1.5, "downgrade": -2.0, "downgraded": -2.0, "default": -2.6, "defaults": -2.6,
	"bankruptcy": -3.0, "bankrupt": -3.0, "lawsuit": -2.0, "sued": -2.0, "fraud": -3.0,
	"investigation": -1.8, "probe": -1.6, "layoffs": -2.0, "cut": -1.2, "cuts": -1.2,
	"warning": -1.8, "warns": -1.8, "crisis": -2.5, "risk": -1.1, "concern": -1.4, "concerns": -1.4,
	"negative": -2.0, "slump": -2.0, "collapse": -2.9, "penalty": -1.8, "fine": -0.8, "fined": -1.8,
	"restructuring": -1.2, "delisted": -2.4, "resigns": -1.5, "scandal": -2.6,
}

var negations = map[string]bool{
	"not": true, "no": true, "never": true, "without": true, "isn't": true, "wasn't": true,
	"aren't": true, "don't": true, "doesn't": true, "didn't": true, "won't": true,
}

type lexiconSentimentRepository struct{}

// NewLexiconSentimentRepository creates a dictionary based classifier that
// needs no network access.
func NewLexiconSentimentRepository() SentimentRepository {
	return lexiconSentimentRepository{}
}

func (lexiconSentimentRepository) Analyze(_ context.Context, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))
	for i, t := range texts {
		scores[i] = LexiconScore(t)
	}
	return scores, nil
}

// LexiconScore returns the normalized compound valence of text in [-1, 1].
// A negation within the three preceding words flips a term's valence.
func LexiconScore(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	var sum float64
	for i, w := range words {
		v, ok := lexicon[w]
		if !ok {
			continue
		}
		for j := i - 1; j >= 0 && j >= i-3; j-- {
			if negations[words[j]] {
				v = -v * 0.74
				break
			}
		}
		sum += v
	}
	if sum == 0 {
		return 0
	}
	return clampSentiment(sum / math.Sqrt(sum*sum+lexiconNormalization))
}
