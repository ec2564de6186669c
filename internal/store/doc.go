// Package store provides durable storage for the two service collections:
// carts and history. Each load reads an entire collection and each save
// overwrites it wholesale; there are no partial or incremental writes.
//
// Reads are fail-open: corrupt or unreadable durable state is logged and
// replaced by a usable fallback (the default fleet for carts, an empty log
// for history). The real-time system keeps running on the fallback, which
// becomes the new truth on the next successful save. Only writes report
// errors, and callers are expected to log them and continue.
//
// Two backends implement the same contract: a JSON whole-file store
// (reference behavior) and a SQLite store for deployments that prefer a
// single database file.
package store
