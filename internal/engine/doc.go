// Package engine implements the state-synchronization core: the
// authoritative cart registry, the append-only history log, and the
// transition protocol that mutates them.
//
// The engine is the single owner of both collections. Every operation runs
// under one mutex, so a read-modify-write cycle can never interleave with
// another mutation and clobber its writes. The in-memory state is the source
// of truth; it is written through to the store on every mutation and
// broadcast to all observers afterwards.
//
// Only a missing cart id is surfaced to callers. Storage faults are logged
// and swallowed: the engine keeps serving from memory and the next
// successful save makes memory durable again.
package engine
