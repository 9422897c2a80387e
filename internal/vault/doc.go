// ABOUTME: Package documentation for the memory vault client.
// ABOUTME: Maps abstract vault operations onto named remote calls.

// Package vault exposes the remote memory vault as five abstract
// operations - list, read, write, delete, search - plus the profile
// lookup, each mapped onto a named remote call:
//
//	List    -> vault.listFiles
//	Read    -> vault.query   (path as query, limit 1)
//	Write   -> vault.upload  (content base64-encoded into a data URI)
//	Delete  -> vault.deleteFile
//	Search  -> vault.query
//	Profile -> profile.get
//
// The remote vault is the source of truth. Writes are last-write-wins
// from this client's perspective; concurrent writers are not
// coordinated.
//
// Failure policy follows the operation's role. Discovery operations
// (List, Search) degrade to empty results with a logged warning so
// callers never have to distinguish "nothing found" from "lookup
// failed". Correctness-critical operations (Read, Write, Delete)
// propagate failures wrapped in *OperationError, which preserves the
// operation name and target path for diagnostics.
//
// Read is best-effort: it is implemented as a ranked search limited to
// one result. The remote query semantics are not documented as
// key-exact, so a path that only appears inside another entry's
// metadata can rank first and mismatch; the client logs when the
// returned path differs from the requested one.
package vault
