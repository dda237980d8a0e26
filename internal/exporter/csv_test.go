package exporter

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investcli/internal/config"
	"investcli/internal/dataprocessing"
	"investcli/internal/shared/testutil"
	"investcli/pkg/contracts/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTable(t *testing.T) *domain.CanonicalTable {
	t.Helper()
	path := testutil.WriteCSV(t, t.TempDir(), "investments.csv", testutil.SampleInvestments)
	raw, err := dataprocessing.NewLoader(dataprocessing.LoaderOptions{}, quietLogger()).LoadFile(context.Background(), path)
	require.NoError(t, err)
	table, _, err := dataprocessing.NewNormalizer(dataprocessing.DefaultOptions(), quietLogger()).Normalize(context.Background(), raw)
	require.NoError(t, err)
	return table
}

func TestCanonicalCSVWriter_Write(t *testing.T) {
	table := &domain.CanonicalTable{
		Columns: []string{"permalink", "funding_total_usd", "founded_at", "founded_year", "name"},
		Records: []domain.CanonicalRecord{
			{
				Permalink:       "/o/a",
				FundingTotalUSD: 1500000.5,
				FoundedAt:       domain.NewDate(time.Date(2010, 5, 1, 0, 0, 0, 0, time.UTC)),
				FoundedYear:     2010,
				Extra:           map[string]domain.Cell{"name": domain.Value("Alpha, Inc.")},
			},
			{
				Permalink:   "/o/b",
				FoundedAt:   domain.UnknownDate(),
				FoundedYear: 0,
				Extra:       map[string]domain.Cell{"name": domain.Missing()},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "out", "cleaned.csv")
	require.NoError(t, NewCanonicalCSVWriter(nil, CSVOptions{}, quietLogger()).Write(context.Background(), path, table))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"permalink,funding_total_usd,founded_at,founded_year,name",
		`/o/a,1500000.5,2010-05-01,2010,"Alpha, Inc."`,
		"/o/b,0,,0,",
		"",
	}, "\n"), string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file is renamed away")
}

func TestCanonicalCSVWriter_BOMAndRelativePath(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	w := NewCanonicalCSVWriter(paths, CSVOptions{BOMPrefix: true}, quietLogger())

	table := &domain.CanonicalTable{Columns: []string{"permalink"}, Records: []domain.CanonicalRecord{{Permalink: "/o/a"}}}
	require.NoError(t, w.Write(context.Background(), "cleaned.csv", table))

	data, err := os.ReadFile(paths.GetProcessedPath("cleaned.csv"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
}

func TestCanonicalCSVWriter_Cancelled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cleaned.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewCanonicalCSVWriter(nil, CSVOptions{}, quietLogger()).Write(ctx, path, sampleTable(t))
	assert.ErrorIs(t, err, context.Canceled)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous\n", string(data), "destination is untouched")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRoundTrip_FixedPoint(t *testing.T) {
	for _, bom := range []bool{false, true} {
		first := sampleTable(t)

		path := filepath.Join(t.TempDir(), "cleaned.csv")
		require.NoError(t, NewCanonicalCSVWriter(nil, CSVOptions{BOMPrefix: bom}, quietLogger()).Write(context.Background(), path, first))

		second, err := ReadCanonicalCSV(context.Background(), path, ReadOptions{
			Normalize: dataprocessing.DefaultOptions(),
			Logger:    quietLogger(),
		})
		require.NoError(t, err)

		assert.Equal(t, first.Columns, second.Columns)
		require.Equal(t, first.Len(), second.Len())
		for i := range first.Records {
			assert.Equal(t, first.Row(i), second.Row(i), "bom=%v row %d", bom, i)
		}
	}
}

func TestRoundTrip_NATokenValues(t *testing.T) {
	tests := []struct {
		name    string
		market  string
		country string
	}{
		{"market none", "none", "USA"},
		{"upper case market none", "NONE", "GBR"},
		{"namibia", "Games", "NA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := testutil.WriteCSV(t, dir, "raw.csv", [][]string{
				{"permalink", "market", "status", "country_code", "funding_total_usd"},
				{"/o/a", tt.market, "NA", tt.country, "5"},
			})
			raw, err := dataprocessing.NewLoader(dataprocessing.LoaderOptions{}, quietLogger()).LoadFile(context.Background(), src)
			require.NoError(t, err)
			first, _, err := dataprocessing.NewNormalizer(dataprocessing.DefaultOptions(), quietLogger()).Normalize(context.Background(), raw)
			require.NoError(t, err)
			assert.Equal(t, tt.country, first.Records[0].CountryCode)

			path := filepath.Join(dir, "cleaned.csv")
			require.NoError(t, NewCanonicalCSVWriter(nil, CSVOptions{}, quietLogger()).Write(context.Background(), path, first))

			second, err := ReadCanonicalCSV(context.Background(), path, ReadOptions{
				Normalize: dataprocessing.DefaultOptions(),
				Logger:    quietLogger(),
			})
			require.NoError(t, err)
			require.Equal(t, 1, second.Len())
			assert.Equal(t, first.Row(0), second.Row(0))
		})
	}
}

func TestReadCanonicalCSV_Missing(t *testing.T) {
	_, err := ReadCanonicalCSV(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), ReadOptions{})
	assert.ErrorIs(t, err, dataprocessing.ErrSourceNotFound)
}

func TestStreamWriter_Abort(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "x.csv")
	s, err := CreateStreamWriter(dest, []string{"a"}, false)
	require.NoError(t, err)
	require.NoError(t, s.WriteRecord([]string{"1"}))
	s.Abort()

	_, err = os.Stat(dest)
	assert.True(t, os.IsNotExist(err))
}
