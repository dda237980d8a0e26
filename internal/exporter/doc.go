// Package exporter persists canonical investment tables.
//
// CanonicalCSVWriter produces the file the dashboard reads: the input
// columns in order, funding in its shortest exact form, dates as YYYY-MM-DD
// and unknown dates as empty cells. ReadCanonicalCSV reads it back.
// SQLiteWriter stores the same records in typed columns for ad hoc SQL.
//
//	w := exporter.NewCanonicalCSVWriter(paths, exporter.CSVOptions{}, logger)
//	if err := w.Write(ctx, "cleaned_investments.csv", table); err != nil {
//	    return err
//	}
package exporter
