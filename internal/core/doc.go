// Package core provides the merge and diff engine for workflow runs.
//
// This package is the heart of the application, containing all domain logic
// independent of any UI or transport layer. It can be used by web handlers,
// CLI tools, or tests without modification, and performs no I/O of its own:
// callers hand it already-parsed tabular data and take typed results back.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Datasets: Typed, normalized in-memory tables built by [InferDataset].
//     Column names are trimmed exactly once at ingestion and cell values are
//     parsed under each column's inferred type.
//   - Column Sources: A sealed union ([ColumnSource]) describing how each
//     output column's value is computed: direct copy, concatenation,
//     arithmetic, or a static value.
//   - Join Planning: Trimmed-string key matching across any number of
//     datasets with inner, left, right, and full algebra.
//   - Service: The host-facing entry point that bounds input size and
//     concurrent runs before invoking the pure engine.
//
// # Running a Workflow
//
// A run joins the datasets on their configured key columns and resolves
// every output column per key:
//
//	result, err := core.RunWorkflow(datasets,
//	    core.KeyColumnConfig{"sales": "SKU", "stock": "Item Code"},
//	    core.JoinSpec{Type: core.JoinLeft, Primary: "sales"},
//	    outputColumns,
//	)
//
// Data-quality problems (unmatched keys, non-numeric operands, division by
// zero) never abort the run: the affected cells become Missing and the
// result carries a [Warning] for each. Only configuration errors - a
// dataset without a key mapping, a source referencing an unknown dataset -
// are fatal, returned as [ConfigError].
//
// # Diffs
//
// [Diff] compares two versions of a keyed table cell by cell, producing
// per-row [RowChange] records and a [DiffSummary] a reviewer can approve
// against. Missing values compare equal to each other and unequal to any
// present value; rows added or removed between versions are flagged rather
// than silently dropped.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - CFG001-CFG009: Workflow configuration errors
//   - FILE001-FILE002: File shape and size errors
//   - DB004-DB006: Database and timeout errors
package core
