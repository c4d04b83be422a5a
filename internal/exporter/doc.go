// Package exporter writes aggregation results to files and databases.
//
// A Table is the flat form of a result: a header row and string cells.
// FromAggregate builds one from an api.AggregateResponse. Each output format
// has its own writer:
//
// CSVWriter: RFC 4180 text with an optional UTF-8 BOM for Excel.
//
// XLSXWriter: a single-sheet workbook with typed numeric cells.
//
// JSONWriter: an array of objects keyed by header.
//
// SQLWriter: a table replaced inside one transaction, on SQLite or PostgreSQL.
//
// Exporter picks the writer for a format and, for file formats, writes
// through files.Manager so a failed export never leaves a partial file.
//
// Example usage:
//
//	exp := exporter.New(manager, cfg.Export, logger, metrics)
//	res, err := exp.Export(ctx, exporter.FormatXLSX, "ev_by_make", exporter.FromAggregate(resp))
package exporter
