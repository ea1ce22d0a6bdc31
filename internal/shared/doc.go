// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides:
//
//   - dataset fixtures built from the items the dashboard ships with
//   - a buffered slog handler for asserting on log output
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    ds := testutil.SampleDataset()
//	    logger, logs := testutil.NewTestLogger(t)
//	    // ...
//	}
//
// Nothing in this package may contain dashboard rules; those live in
// internal/store and internal/series.
package shared
