// Package exporter renders tables of records as CSV or XLSX.
//
// CSV output starts with a UTF-8 byte order mark so spreadsheet tools pick
// the right encoding. XLSX output uses a bold, frozen header row.
//
// Example usage:
//
//	table := exporter.Table{Sheet: "Items", Headers: headers, Records: records}
//	err := exporter.Write(w, exporter.FormatXLSX, table)
package exporter
