package domain

// Ranked is a labelled numeric aggregate such as total funding per market.
type Ranked struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Count is a labelled row count.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// YearTotal is the funding sum for one founded year.
type YearTotal struct {
	Year  int     `json:"year"`
	Total float64 `json:"total"`
}

// StatusShare is one entry of a status distribution.
type StatusShare struct {
	Status  string  `json:"status"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// FundingStats describes the funding distribution inside one group.
type FundingStats struct {
	Group  string  `json:"group"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
}

// DatasetSummary holds the headline statistics of a canonical table.
type DatasetSummary struct {
	TotalStartups      int           `json:"total_startups"`
	TotalFundingUSD    float64       `json:"total_funding_usd"`
	AverageFundingUSD  float64       `json:"average_funding_usd"`
	StatusDistribution []StatusShare `json:"status_distribution"`
}

// FilterOptions lists the values a client may filter on.
type FilterOptions struct {
	Markets    []string `json:"markets"`
	Countries  []string `json:"countries"`
	Statuses   []string `json:"statuses"`
	MinYear    int      `json:"min_year"`
	MaxYear    int      `json:"max_year"`
	MaxFunding float64  `json:"max_funding"`
}

// Insights is the full report produced for a canonical dataset.
type Insights struct {
	Source              string         `json:"source"`
	GeneratedAt         string         `json:"generated_at"`
	Summary             DatasetSummary `json:"summary"`
	TopMarketsByFunding []Ranked       `json:"top_markets_by_funding"`
	FundingByStatus     []FundingStats `json:"funding_by_status"`
	TopCountries        []Count        `json:"top_countries"`
	FundingByYear       []YearTotal    `json:"funding_by_year"`
	RoundsCorrelation   *float64       `json:"funding_rounds_correlation,omitempty"`
	MarketShare         []Count        `json:"market_share"`
	FundingByType       []Ranked       `json:"funding_by_type"`
	AcquisitionRates    []Ranked       `json:"acquisition_rates"`
	Warnings            []string       `json:"warnings,omitempty"`
}
