// ABOUTME: Package documentation for the context and conversation manager.
// ABOUTME: Higher-level memory records composed from primitive vault operations.

// Package memory builds client-composed records on top of the vault:
// named contexts with append-only change histories, immutable stored
// conversations with derived summaries, and bulk export/import.
//
// The remote interface offers no transactions and no optimistic
// versioning, so every context update is a read-modify-write with
// client-side discipline only. The Manager serializes updates to the
// same context name behind a per-name mutex, which protects concurrent
// updaters inside one process. Updaters in different processes are not
// coordinated; the last write observed by the vault wins.
//
// Conversations are append-only historical records: created once,
// never updated. Their summaries are non-authoritative aggregates
// recomputed in full at write time.
//
// Export and import are bulk operations over every vault entry.
// Per-entry failures are collected in a BatchResult and reported
// together instead of aborting the batch.
package memory
