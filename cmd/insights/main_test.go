package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investcli/internal/config"
	"investcli/internal/dataprocessing"
	"investcli/internal/infrastructure"
	"investcli/internal/shared/testutil"
	"investcli/pkg/contracts/domain"
)

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteCSV(t, dir, "investments.csv", testutil.SampleInvestments)
	out := filepath.Join(dir, "reports", "insights.json")
	logger := infrastructure.NewLogger(io.Discard, "error")

	insights, err := generate(context.Background(), config.Default().Normalize, in, out, 3, logger)
	require.NoError(t, err)
	assert.NotEmpty(t, insights.TopMarketsByFunding)
	assert.LessOrEqual(t, len(insights.TopMarketsByFunding), 3)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var decoded domain.Insights
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, insights.Summary.TotalStartups, decoded.Summary.TotalStartups)

	var buf bytes.Buffer
	printInsights(&buf, insights)
	assert.Contains(t, buf.String(), "Total startups:")
	assert.Contains(t, buf.String(), "Top markets by funding:")
}

func TestGenerate_MissingDataset(t *testing.T) {
	dir := t.TempDir()
	logger := infrastructure.NewLogger(io.Discard, "error")

	_, err := generate(context.Background(), config.Default().Normalize,
		filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.json"), 5, logger)
	assert.ErrorIs(t, err, dataprocessing.ErrSourceNotFound)

	_, statErr := os.Stat(filepath.Join(dir, "out.json"))
	assert.True(t, os.IsNotExist(statErr))
}
