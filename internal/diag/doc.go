// Package diag defines the diagnostic model shared by every resolution pass.
//
// Diagnostic is the central record: Severity, a numeric Code with a stable
// string form (see codes.go), a short Message, the Primary span and optional
// Notes and Fixes. Notes should add new context ("first definition here")
// rather than repeat the message.
//
// Passes emit through a Reporter so that emission is decoupled from storage.
// ReportBuilder (NewReportBuilder, ReportError, ReportWarning) chains notes
// before Emit. BagReporter collects into a Bag, which supports sorting,
// deduplication and merging of per-crate bags. DedupReporter drops exact
// repeats; LockedReporter serialises a reporter shared by crates checked in
// parallel.
//
// Package diag performs no formatting or IO. Rendering lives in
// internal/diagfmt.
package diag
