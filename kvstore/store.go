// Package kvstore describes the host collaborator the engine is layered
// on (spec.md §1's "ordered-key store") and, for tests and the demo
// binary, a minimal in-memory implementation of that contract. Neither
// the contract nor the reference implementation is part of the
// engine's own hard problem; production hosts bring their own.
package kvstore

import "errors"

// ErrNoSuchSeries names a series key that has never been written to,
// or has been emptied. MemStore never returns it: its operations treat
// a missing series as empty (RemRangeByLex returns 0, nil). Per
// spec.md §3 a series' lifecycle is delegated to the host's empty-set
// semantics, so it is not a fatal engine error.
var ErrNoSuchSeries = errors.New("kvstore: no such series")

// Store is the ordered key-value contract the engine drives. Every
// member is an opaque, already-encoded key produced by package codec;
// the store never interprets member bytes, it only orders them
// lexicographically. Bound strings follow spec.md §4.2/§6: "-", "+",
// or a bracketed literal ("[x" inclusive, "(x" exclusive).
//
// Implementations must serialize concurrent invocations against the
// same series (spec.md §5); the engine takes no locks of its own.
type Store interface {
	// Add inserts member into series, maintaining lexicographic order.
	// Adding a member that already exists in the set is a no-op.
	Add(series string, member []byte) error

	// Remove deletes the given members from series if present, and
	// returns the count actually removed.
	Remove(series string, members ...[]byte) (int, error)

	// RangeByLex returns members of series within [min, max] in
	// ascending lexicographic order, skipping offset matches and
	// returning at most limit (limit < 0 means unlimited).
	RangeByLex(series, min, max string, offset, limit int) ([][]byte, error)

	// RevRangeByLex is RangeByLex in descending order; min and max keep
	// the same meaning (min is still the lexicographically smaller
	// bound) but results are returned largest-first.
	RevRangeByLex(series, min, max string, offset, limit int) ([][]byte, error)

	// LexCount returns the number of members of series within [min, max].
	LexCount(series, min, max string) (int, error)

	// RemRangeByLex removes every member of series within [min, max]
	// and returns the count removed. This is the "fast path" bulk
	// delete spec.md §4.6 calls for when remrange has no FILTER.
	RemRangeByLex(series, min, max string) (int, error)

	// Card returns the number of members in series.
	Card(series string) (int, error)

	// HashSet writes field=value into the unordered mapping destKey,
	// used by "copy ... STORAGE hash" (spec.md §6).
	HashSet(destKey, field string, value []byte) error

	// HashGet reads field back from the unordered mapping destKey,
	// used by the engine's hashget verb to read a "copy ... STORAGE
	// hash" destination back through the engine. ok is false if destKey
	// or field has never been written.
	HashGet(destKey, field string) (value []byte, ok bool)
}
