package dto

// YahooValue is Yahoo's {raw, fmt} numeric wrapper.
type YahooValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

// YahooError is the error object Yahoo embeds in otherwise successful responses.
type YahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// YahooQuoteSummaryResponse is the response of /v10/finance/quoteSummary.
type YahooQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []YahooQuoteSummaryResult `json:"result"`
		Error  *YahooError               `json:"error"`
	} `json:"quoteSummary"`
}

// YahooQuoteSummaryResult holds the modules requested from quoteSummary.
type YahooQuoteSummaryResult struct {
	FinancialData *struct {
		CurrentPrice   YahooValue `json:"currentPrice"`
		CurrentRatio   YahooValue `json:"currentRatio"`
		QuickRatio     YahooValue `json:"quickRatio"`
		DebtToEquity   YahooValue `json:"debtToEquity"` // percent
		ReturnOnEquity YahooValue `json:"returnOnEquity"`
		ReturnOnAssets YahooValue `json:"returnOnAssets"`
		RevenueGrowth  YahooValue `json:"revenueGrowth"`
	} `json:"financialData"`
	DefaultKeyStatistics *struct {
		Beta YahooValue `json:"beta"`
	} `json:"defaultKeyStatistics"`
	SummaryDetail *struct {
		MarketCap  YahooValue `json:"marketCap"`
		TrailingPE YahooValue `json:"trailingPE"`
		Beta       YahooValue `json:"beta"`
	} `json:"summaryDetail"`
	Price *struct {
		LongName  string `json:"longName"`
		ShortName string `json:"shortName"`
	} `json:"price"`
	AssetProfile *struct {
		Sector   string `json:"sector"`
		Industry string `json:"industry"`
	} `json:"assetProfile"`
}

// YahooChartResponse is the response of /v8/finance/chart.
type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *YahooError `json:"error"`
	} `json:"chart"`
}

// CompanyProfile is the descriptive data used when registering a company.
type CompanyProfile struct {
	Ticker   string `json:"ticker"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}
