// Package dataprocessing turns raw startup-investment tables into canonical
// records and answers analytics queries over them.
//
// # Normalization
//
// A Loader reads CSV or XLSX files into a domain.RawTable, mapping blank
// cells and NA tokens to missing values. A Normalizer builds a Plan from the
// header once and applies its steps in a fixed order:
//
//	funding_coercion → categorical_defaults → market_standardization →
//	country_correction → deduplication → date_parsing → founded_year
//
// Steps whose columns are absent are skipped. The result is total: no
// managed field is missing after Normalize returns, and normalizing a
// canonical table again changes nothing.
//
//	loader := dataprocessing.NewLoader(dataprocessing.LoaderOptions{}, logger)
//	raw, err := loader.LoadFile(ctx, "investments.csv")
//	if err != nil {
//	    return err
//	}
//	table, report, err := dataprocessing.NewNormalizer(dataprocessing.DefaultOptions(), logger).Normalize(ctx, raw)
//
// # Analytics
//
// Analytics wraps a canonical table with filters and aggregates. Ranked
// results are ordered by value descending, then key ascending. Summarizer
// assembles the aggregates into a domain.Insights report.
package dataprocessing
