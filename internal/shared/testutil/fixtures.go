package testutil

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

// InvestmentsHeader mirrors the column layout of the raw investments export.
// Column names carry the stray whitespace found in the source file.
var InvestmentsHeader = []string{
	"permalink", "name", " market ", "funding_total_usd", "status", "country_code",
	"category_list", "founded_at", "first_funding_at", "last_funding_at", "founded_year",
	"seed", "venture", "round_A",
}

// SampleInvestments is a small raw export exercising every cleaning rule:
// a duplicate permalink, the "-" funding sentinel, thousands separators,
// a malformed date, the EST country code and messy market casing.
var SampleInvestments = [][]string{
	InvestmentsHeader,
	{"/organization/alpha", "Alpha", "  ClOud compUting  ", "1,000,000", "operating", "USA", "|Cloud|", "2010-05-01", "2011-01-15", "2012-03-01", "2010", "100000", "900000", "0"},
	{"/organization/beta", "Beta", "software", "-", "acquired", "EST", "", "not-a-date", "2012-02-02", "", "", "", "", ""},
	{"/organization/alpha", "Alpha Dup", "Games", "5", "closed", "GBR", "|Games|", "2001-01-01", "", "", "2001", "", "", ""},
	{"/organization/gamma", "Gamma", "", "250000", "", "", "|Health|", "2014/07/09", "2014-08-01", "2015-01-01", "2014.0", "250000", "", ""},
	{"/organization/delta", "Delta", "Software", "abc", "acquired", "GBR", "|Software|", "2008", "2009-01-01", "2010-01-01", "", "", "", "50000"},
}

// WriteCSV writes rows to dir/name and returns the full path.
func WriteCSV(t *testing.T, dir, name string, rows [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture %s: %v", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write fixture %s: %v", path, err)
	}
	return path
}
