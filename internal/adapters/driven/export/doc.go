// Package export provides driven.ReportExporter implementations.
//
//   - JSON: the report as indented JSON, with a corpus summary when available
//   - XLSX: a review workbook (Summary, Alerts, Evidence, Items, Documents, Timeline)
package export
