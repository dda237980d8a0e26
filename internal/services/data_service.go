package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"investcli/internal/config"
	"investcli/internal/dataprocessing"
	apperrors "investcli/internal/errors"
	"investcli/pkg/contracts/domain"
)

// Funding metrics accepted by TopMarkets.
const (
	MetricSum  = "sum"
	MetricMean = "mean"
)

// Query narrows a dashboard request. A zero Limit selects the endpoint
// default; limits above config.MaxQueryLimit are capped.
type Query struct {
	Filter dataprocessing.Filter
	Limit  int
}

func (q Query) limit(def int) int {
	switch {
	case q.Limit <= 0:
		return def
	case q.Limit > config.MaxQueryLimit:
		return config.MaxQueryLimit
	default:
		return q.Limit
	}
}

// Overview is the first page of a filtered dataset.
type Overview struct {
	Total    int                      `json:"total"`
	Filtered int                      `json:"filtered"`
	Columns  []string                 `json:"columns"`
	Rows     []domain.CanonicalRecord `json:"rows"`
}

// RankedResult wraps a ranked series with the number of records it was
// computed from.
type RankedResult struct {
	Metric  string          `json:"metric,omitempty"`
	Records int             `json:"records"`
	Items   []domain.Ranked `json:"items"`
}

// CountResult wraps a counted series.
type CountResult struct {
	Records int            `json:"records"`
	Items   []domain.Count `json:"items"`
}

// YearResult wraps funding per founded year.
type YearResult struct {
	Records int                `json:"records"`
	Items   []domain.YearTotal `json:"items"`
}

// DataService answers dashboard queries over the configured canonical
// dataset. Tables come from the shared DatasetCache.
type DataService struct {
	cache  *DatasetCache
	path   string
	logger *slog.Logger
}

// NewDataService creates a service reading datasetPath through cache.
func NewDataService(cache *DatasetCache, datasetPath string, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		cache:  cache,
		path:   datasetPath,
		logger: logger.With(slog.String("service", "data")),
	}
}

// DatasetPath returns the canonical file served by the service.
func (s *DataService) DatasetPath() string {
	return s.path
}

// Ready reports whether the canonical file exists and is a regular file.
func (s *DataService) Ready() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDatasetNotFound, s.path)
		}
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrDatasetNotFound, s.path)
	}
	return nil
}

// view loads the dataset and applies f. The returned view is unfiltered
// when f is zero.
func (s *DataService) view(ctx context.Context, f dataprocessing.Filter) (all, filtered *dataprocessing.Analytics, err error) {
	table, err := s.cache.Get(ctx, s.path)
	if err != nil {
		return nil, nil, err
	}
	all = dataprocessing.NewAnalytics(table)
	filtered = all.Filter(f)
	s.logger.DebugContext(ctx, "dataset view",
		slog.Int("total", all.Len()),
		slog.Int("filtered", filtered.Len()))
	return all, filtered, nil
}

// Overview returns the filtered row count and the first rows.
func (s *DataService) Overview(ctx context.Context, q Query) (*Overview, error) {
	all, v, err := s.view(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	return &Overview{
		Total:    all.Len(),
		Filtered: v.Len(),
		Columns:  all.Table().Columns,
		Rows:     v.Head(q.limit(config.DefaultOverviewRow)),
	}, nil
}

// FilterOptions lists the values available for filtering the whole dataset.
func (s *DataService) FilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	all, _, err := s.view(ctx, dataprocessing.Filter{})
	if err != nil {
		return domain.FilterOptions{}, err
	}
	return all.FilterOptions(), nil
}

// Summary returns the headline statistics of the filtered view.
func (s *DataService) Summary(ctx context.Context, q Query) (domain.DatasetSummary, error) {
	_, v, err := s.view(ctx, q.Filter)
	if err != nil {
		return domain.DatasetSummary{}, err
	}
	return v.Summarize(), nil
}

// TopMarkets ranks markets by total or average funding.
func (s *DataService) TopMarkets(ctx context.Context, q Query, metric string) (*RankedResult, error) {
	metric = strings.ToLower(strings.TrimSpace(metric))
	if metric == "" {
		metric = MetricSum
	}
	if metric != MetricSum && metric != MetricMean {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unknown metric %q, want sum or mean", metric)).
			WithContext("metric", metric)
	}

	_, v, err := s.view(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	if err := v.Require(domain.ColumnMarket, domain.ColumnFundingTotalUSD); err != nil {
		return nil, err
	}

	n := q.limit(config.DefaultTopN)
	items := v.TopMarketsByFunding(n)
	if metric == MetricMean {
		items = v.AverageFundingByMarket(n)
	}
	return &RankedResult{Metric: metric, Records: v.Len(), Items: items}, nil
}

// MarketShare counts startups per market.
func (s *DataService) MarketShare(ctx context.Context, q Query) (*CountResult, error) {
	_, v, err := s.view(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	if err := v.Require(domain.ColumnMarket); err != nil {
		return nil, err
	}
	return &CountResult{Records: v.Len(), Items: v.MarketCounts(q.limit(config.DefaultTopN))}, nil
}

// AcquisitionRates returns the share of acquired startups per market. The
// result is empty when no startup in the view was acquired.
func (s *DataService) AcquisitionRates(ctx context.Context, q Query) (*RankedResult, error) {
	_, v, err := s.view(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	if err := v.Require(domain.ColumnMarket, domain.ColumnStatus); err != nil {
		return nil, err
	}
	rates, _ := v.AcquisitionRates(q.limit(config.DefaultTopN))
	return &RankedResult{Records: v.Len(), Items: rates}, nil
}

// TopCountries counts startups per country code.
func (s *DataService) TopCountries(ctx context.Context, q Query) (*CountResult, error) {
	_, v, err := s.view(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	if err := v.Require(domain.ColumnCountryCode); err != nil {
		return nil, err
	}
	return &CountResult{Records: v.Len(), Items: v.CountryCounts(q.limit(config.DefaultTopN))}, nil
}

// FundingByYear sums funding per known founded year.
func (s *DataService) FundingByYear(ctx context.Context, q Query) (*YearResult, error) {
	_, v, err := s.view(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	if err := v.Require(domain.ColumnFundingTotalUSD); err != nil {
		return nil, err
	}
	return &YearResult{Records: v.Len(), Items: v.FundingByYear()}, nil
}

// FundingByType sums the per-round funding columns present in the dataset.
func (s *DataService) FundingByType(ctx context.Context, q Query) (*RankedResult, error) {
	_, v, err := s.view(ctx, q.Filter)
	if err != nil {
		return nil, err
	}
	items := v.FundingByType()
	if items == nil {
		items = []domain.Ranked{}
	}
	return &RankedResult{Records: v.Len(), Items: items}, nil
}

// InvalidateCache drops cached versions of the dataset and returns how
// many were removed.
func (s *DataService) InvalidateCache(ctx context.Context) int {
	removed := s.cache.Invalidate(s.path)
	s.logger.InfoContext(ctx, "dataset cache invalidated",
		slog.String("path", s.path),
		slog.Int("removed", removed))
	return removed
}
