package http

import (
	"context"

	"investcli/internal/services"
	"investcli/pkg/contracts/domain"
)

// DataServiceInterface is the query surface the data handler depends on.
// *services.DataService implements it.
type DataServiceInterface interface {
	DatasetPath() string
	Overview(ctx context.Context, q services.Query) (*services.Overview, error)
	FilterOptions(ctx context.Context) (domain.FilterOptions, error)
	Summary(ctx context.Context, q services.Query) (domain.DatasetSummary, error)
	TopMarkets(ctx context.Context, q services.Query, metric string) (*services.RankedResult, error)
	MarketShare(ctx context.Context, q services.Query) (*services.CountResult, error)
	AcquisitionRates(ctx context.Context, q services.Query) (*services.RankedResult, error)
	TopCountries(ctx context.Context, q services.Query) (*services.CountResult, error)
	FundingByYear(ctx context.Context, q services.Query) (*services.YearResult, error)
	FundingByType(ctx context.Context, q services.Query) (*services.RankedResult, error)
	InvalidateCache(ctx context.Context) int
}

var _ DataServiceInterface = (*services.DataService)(nil)
