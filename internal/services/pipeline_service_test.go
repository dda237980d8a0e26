package services

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investcli/internal/dataprocessing"
	"investcli/internal/exporter"
	"investcli/internal/shared/testutil"
)

func newPipeline() *PipelineService {
	return NewPipelineService(PipelineConfig{
		Normalize: dataprocessing.DefaultOptions(),
		Logger:    quietLogger(),
	})
}

func TestPipelineService_Run(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteCSV(t, dir, "investments.csv", testutil.SampleInvestments)
	output := filepath.Join(dir, "processed", "investments_cleaned.csv")
	db := filepath.Join(dir, "processed", "investments.sqlite")

	res, err := newPipeline().Run(context.Background(), Job{Input: input, Output: output, SQLite: db})
	require.NoError(t, err)
	require.NotNil(t, res.Report)

	assert.Len(t, res.RunID, 36)
	assert.Equal(t, 5, res.Report.RowsIn)
	assert.Equal(t, 4, res.Report.RowsOut)
	assert.Equal(t, 1, res.Report.DuplicatesDropped)
	assert.Equal(t, 4, res.Summary.TotalStartups)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 5)

	conn, err := exporter.OpenSQLite(db)
	require.NoError(t, err)
	defer conn.Close()
	var n int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM canonical_records").Scan(&n))
	assert.Equal(t, 4, n)
}

func TestPipelineService_RunCanonicalOutputIsStable(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteCSV(t, dir, "investments.csv", testutil.SampleInvestments)
	first := filepath.Join(dir, "first.csv")
	second := filepath.Join(dir, "second.csv")

	p := newPipeline()
	_, err := p.Run(context.Background(), Job{Input: input, Output: first})
	require.NoError(t, err)
	_, err = p.Run(context.Background(), Job{Input: first, Output: second})
	require.NoError(t, err)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestPipelineService_RunErrors(t *testing.T) {
	dir := t.TempDir()
	empty := testutil.WriteCSV(t, dir, "empty.csv", [][]string{testutil.InvestmentsHeader})

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "missing source", input: filepath.Join(dir, "nope.csv"), want: dataprocessing.ErrSourceNotFound},
		{name: "header only", input: empty, want: dataprocessing.ErrEmptyInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(dir, "out", tt.name+".csv")
			res, err := newPipeline().Run(context.Background(), Job{Input: tt.input, Output: out})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			require.NotNil(t, res)
			assert.Equal(t, err, res.Err)
			assert.NoFileExists(t, out)
		})
	}
}

func TestPipelineService_RunAll(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	jobs := []Job{
		{Input: testutil.WriteCSV(t, dir, "a.csv", testutil.SampleInvestments), Output: filepath.Join(outDir, "a_cleaned.csv")},
		{Input: filepath.Join(dir, "missing.csv"), Output: filepath.Join(outDir, "missing_cleaned.csv")},
		{Input: testutil.WriteCSV(t, dir, "b.csv", testutil.SampleInvestments), Output: filepath.Join(outDir, "b_cleaned.csv")},
	}

	results, err := newPipeline().RunAll(context.Background(), jobs, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataprocessing.ErrSourceNotFound)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.FileExists(t, jobs[0].Output)
	assert.FileExists(t, jobs[2].Output)
	assert.NotEqual(t, results[0].RunID, results[2].RunID)
}

func TestPipelineService_SQLiteColumnsTyped(t *testing.T) {
	dir := t.TempDir()
	input := testutil.WriteCSV(t, dir, "investments.csv", testutil.SampleInvestments)
	db := filepath.Join(dir, "investments.db")

	_, err := newPipeline().Run(context.Background(), Job{Input: input, Output: filepath.Join(dir, "out.csv"), SQLite: db})
	require.NoError(t, err)

	conn, err := exporter.OpenSQLite(db)
	require.NoError(t, err)
	defer conn.Close()

	var founded sql.NullString
	require.NoError(t, conn.QueryRow(
		"SELECT founded_at FROM canonical_records WHERE permalink = ?", "/organization/beta",
	).Scan(&founded))
	assert.False(t, founded.Valid, "unparseable date is stored as NULL")
}
