// Package shared holds helpers used by more than one layer of the module.
//
// The testutil subpackage provides a capturing slog handler and dataset
// fixtures for tests:
//
//	logger, logs := testutil.NewTestLogger(t)
//	path := testutil.WriteCSV(t, t.TempDir(), "investments.csv", testutil.SampleInvestments)
//
// Nothing in this package may import domain services.
package shared
