// ABOUTME: Package archive keeps a local SQLite copy of vault snapshots
// ABOUTME: and conversation transcripts so remote failures lose nothing.

// Package archive persists exported vault records and stored
// conversations to a local SQLite database.
//
// The archive is write-mostly: the vault remains the source of truth,
// and the archive exists so a transcript survives a failed or
// terminated remote session. Records are upserted by path and
// conversations by id; nothing in the archive is ever deleted by this
// package.
package archive
