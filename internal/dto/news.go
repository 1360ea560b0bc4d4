package dto

import "time"

// NewsArticle is a provider-neutral news item before classification.
type NewsArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// NewsAPIResponse is the response of NewsAPI's /v2/everything.
type NewsAPIResponse struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
	Code         string `json:"code"`
	Message      string `json:"message"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string    `json:"title"`
		Description string    `json:"description"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
	} `json:"articles"`
}

// SentimentResult is the expected JSON item of a sentiment classification.
type SentimentResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}
