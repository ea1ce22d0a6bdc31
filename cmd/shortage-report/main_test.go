package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortwatch/internal/store"
)

var sampleSource = filepath.Join("..", "..", "data", "master-dashboard.json")

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		check   func(t *testing.T, opts *options)
	}{
		{
			name: "defaults",
			args: nil,
			check: func(t *testing.T, opts *options) {
				assert.Equal(t, store.DefaultQuery(), opts.query)
				assert.Equal(t, formatTable, opts.format)
			},
		},
		{
			name: "filters and sort",
			args: []string{"-alert", "red", "-category", "Semiconductors", "-search", "hbm", "-sort", "priceYoY", "-dir", "desc"},
			check: func(t *testing.T, opts *options) {
				assert.Equal(t, store.ItemQuery{
					Alert: "red", Category: "Semiconductors", Search: "hbm",
					SortKey: store.SortByPriceYoY, Direction: store.Desc,
				}, opts.query)
			},
		},
		{
			name: "format is case-insensitive",
			args: []string{"-format", "CSV"},
			check: func(t *testing.T, opts *options) {
				assert.Equal(t, "csv", opts.format)
			},
		},
		{name: "bad alert", args: []string{"-alert", "purple"}, wantErr: "invalid -alert"},
		{name: "bad sort", args: []string{"-sort", "colour"}, wantErr: "invalid -sort"},
		{name: "bad direction", args: []string{"-dir", "up"}, wantErr: "invalid -dir"},
		{name: "bad format", args: []string{"-format", "pdf"}, wantErr: "unsupported export format"},
		{name: "xlsx needs a file", args: []string{"-format", "xlsx"}, wantErr: "-out is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, &bytes.Buffer{})
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, opts)
		})
	}
}

func TestRun_Table(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-source", sampleSource, "-alert", "red"}, &stdout, &stderr)
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "Last updated:")
	assert.Contains(t, out, "HBM Memory")
	assert.Contains(t, out, "Power Transformer")
	assert.NotContains(t, out, "Neon Gas")
	assert.Contains(t, out, "TOTAL")
}

func TestRun_CSVToStdout(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-source", sampleSource, "-format", "csv", "-sort", "name"}, &stdout, &stderr)
	require.NoError(t, err)

	out := strings.TrimPrefix(stdout.String(), "\ufeff")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 9)
	assert.True(t, strings.HasPrefix(lines[0], "ID,Name,Category"))
}

func TestRun_XLSXFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report", "items.xlsx")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-source", sampleSource, "-format", "xlsx", "-out", out}, &stdout, &stderr)
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.Contains(t, stdout.String(), "Wrote 8 items")
}

func TestRun_MissingSource(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-source", filepath.Join(t.TempDir(), "missing.json")}, &stdout, &stderr)
	require.Error(t, err)
	assert.Empty(t, stdout.String())
}
