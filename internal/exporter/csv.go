package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a sheet of string records under a header row
type Table struct {
	Sheet   string
	Headers []string
	Records [][]string
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes the table to w
func WriteCSV(w io.Writer, table Table, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)

	if len(table.Headers) > 0 {
		if err := writer.Write(table.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range table.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Write renders the table in the given format
func Write(w io.Writer, format Format, table Table) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, table, WriteOptions{BOMPrefix: true})
	case FormatXLSX:
		return WriteXLSX(w, table)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteFile writes the table to path, creating parent directories
func WriteFile(path string, format Format, table Table) error {
	slog.Info("Writing export file",
		slog.String("file_path", path),
		slog.String("format", string(format)),
		slog.Int("record_count", len(table.Records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := Write(file, format, table); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
