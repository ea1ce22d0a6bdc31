// Command shortage-report loads a dashboard snapshot once and prints the
// filtered item table, or exports it as csv or xlsx.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"shortwatch/internal/config"
	"shortwatch/internal/exporter"
	"shortwatch/internal/loader"
	"shortwatch/internal/services"
	"shortwatch/internal/store"
	"shortwatch/pkg/contracts/domain"
)

const formatTable = "table"

var alertFilters = []string{store.FilterAll, string(domain.AlertRed), string(domain.AlertYellow), string(domain.AlertGreen)}

type options struct {
	source    string
	query     store.ItemQuery
	format    string
	out       string
	skipCheck bool
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		slog.Error("Report failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("shortage-report", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{query: store.DefaultQuery()}
	var sortKey, direction string
	fs.StringVar(&opts.source, "source", config.DefaultSource, "snapshot path, file://, http(s):// or s3://bucket/key")
	fs.StringVar(&opts.query.Alert, "alert", store.FilterAll, "alert level filter: all, red, yellow or green")
	fs.StringVar(&opts.query.Category, "category", store.FilterAll, "exact category name, or all")
	fs.StringVar(&opts.query.Search, "search", "", "case-insensitive name or category substring")
	fs.StringVar(&sortKey, "sort", string(store.SortByID), "sort column")
	fs.StringVar(&direction, "dir", string(store.Asc), "sort direction: asc or desc")
	fs.StringVar(&opts.format, "format", formatTable, "output format: table, csv or xlsx")
	fs.StringVar(&opts.out, "out", "", "output file (required for xlsx)")
	fs.BoolVar(&opts.skipCheck, "skip-schema", false, "skip the JSON schema check")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if !slices.Contains(alertFilters, opts.query.Alert) {
		return nil, fmt.Errorf("invalid -alert %q", opts.query.Alert)
	}
	if !slices.Contains(store.SortKeys, store.SortKey(sortKey)) {
		return nil, fmt.Errorf("invalid -sort %q", sortKey)
	}
	if direction != string(store.Asc) && direction != string(store.Desc) {
		return nil, fmt.Errorf("invalid -dir %q", direction)
	}
	opts.query.SortKey = store.SortKey(sortKey)
	opts.query.Direction = store.Direction(direction)

	if opts.format != formatTable {
		format, err := exporter.ParseFormat(opts.format)
		if err != nil {
			return nil, err
		}
		if format == exporter.FormatXLSX && opts.out == "" {
			return nil, fmt.Errorf("-out is required for xlsx")
		}
		opts.format = string(format)
	}

	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	src, err := loader.NewSource(ctx, opts.source, loader.SourceOptions{HTTPTimeout: config.DefaultHTTPTimeout})
	if err != nil {
		return err
	}
	dashboard := services.NewDashboardService(loader.New(src, logger, loader.Options{SkipSchema: opts.skipCheck}), src.String(), logger)
	if err := dashboard.Load(ctx); err != nil {
		return err
	}

	table, err := dashboard.ItemTable(ctx, opts.query)
	if err != nil {
		return err
	}

	if opts.format == formatTable {
		overview, err := dashboard.Overview(ctx)
		if err != nil {
			return err
		}
		return renderTable(stdout, table, overview)
	}

	format := exporter.Format(opts.format)
	if opts.out != "" {
		if err := exporter.WriteFile(opts.out, format, table); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Wrote %d items to %s\n", len(table.Records), opts.out)
		return nil
	}
	return exporter.Write(stdout, format, table)
}

// renderTable prints the rows with a footer carrying the match count and the
// dashboard-wide alert summary
func renderTable(w io.Writer, table exporter.Table, overview *services.Overview) error {
	fmt.Fprintf(w, "Last updated: %s\n", overview.LastUpdated)

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(table.Headers)
	tw.SetAutoWrapText(false)
	tw.SetFooterAlignment(tablewriter.ALIGN_RIGHT)
	tw.AppendBulk(table.Records)

	footer := make([]string, len(table.Headers))
	footer[0] = "TOTAL"
	footer[1] = strconv.Itoa(len(table.Records)) + " of " + strconv.Itoa(overview.Summary.Total)
	if len(footer) > 7 {
		footer[7] = fmt.Sprintf("%dR %dY %dG", overview.Summary.Red, overview.Summary.Yellow, overview.Summary.Green)
	}
	tw.SetFooter(footer)
	tw.Render()

	for _, d := range overview.Divergences {
		fmt.Fprintf(w, "warning: item %d (%s) published %s, rule says %s\n", d.ID, d.Name, d.Published, d.Classified)
	}
	return nil
}
