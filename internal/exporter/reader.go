package exporter

import (
	"context"
	"log/slog"

	"investcli/internal/dataprocessing"
	"investcli/pkg/contracts/domain"
)

// ReadOptions configures ReadCanonicalCSV.
type ReadOptions struct {
	Loader    dataprocessing.LoaderOptions
	Normalize dataprocessing.Options
	Logger    *slog.Logger
}

// ReadCanonicalCSV loads a canonical file and passes it through the
// normalizer. Canonical data is a fixed point of normalization, so this
// only restores types; files edited by hand are repaired on the way in.
func ReadCanonicalCSV(ctx context.Context, path string, opts ReadOptions) (*domain.CanonicalTable, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := dataprocessing.NewLoader(opts.Loader, logger).LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	table, _, err := dataprocessing.NewNormalizer(opts.Normalize, logger).Normalize(ctx, raw)
	if err != nil {
		return nil, err
	}
	return table, nil
}
