// Package tasks runs long multi-table operations with progress reporting.
//
// # Bulk Export
//
// [Exporter.BulkExport] writes several tables to one directory using a small worker pool.
// Each [ExportJob] loads its table snapshot and renders it with the formatter package;
// failures are recorded per table and do not stop the other jobs. A JSON manifest
// summarizing every result is written to the output directory when all jobs finish.
//
// # Progress Reporting
//
// Progress is sent as [ProgressUpdate] values on an optional channel.
// Updates use select with default so a slow or absent reader never blocks the workers.
package tasks
