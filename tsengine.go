// Package tsengine provides an embeddable time-series engine: a
// verb-based command dispatcher (add/get/range/aggregate/...) driven
// against a caller-supplied ordered key-value store.
//
// Tsengine has no network listener and no storage engine of its own.
// Callers bring a kvstore.Store implementation (an ordered byte-string
// set, the same shape Redis's ZSET-with-lexicographic-scores or an
// LSM/B-tree range scan provides) and drive every operation through
// Engine.Exec.
//
// # Basic Usage
//
//	store := kvstore.NewMemStore()
//	eng := tsengine.New(store, nil, nil)
//
//	eng.Exec("add", []string{"cpu.usage"}, []string{"1000", "value", "42.5"})
//	eng.Exec("add", []string{"cpu.usage"}, []string{"2000", "value", "47.1"})
//
//	result, _ := eng.Exec("range", []string{"cpu.usage"}, []string{"-", "+"})
//
// # Package Structure
//
// This package is a thin top-level convenience wrapper around package
// engine. For direct control over the dispatcher, the clock, and the
// hash-destination compression codec, construct an *engine.Engine
// directly.
package tsengine

import (
	"github.com/arloliu/tsengine/compress"
	"github.com/arloliu/tsengine/engine"
	"github.com/arloliu/tsengine/kvstore"
	"github.com/arloliu/tsengine/rangeutil"
)

// New constructs an Engine over store. clock supplies the wall-clock
// value substituted for the "*" range bound token; pass nil if no
// caller ever uses "*". hashCodec compresses copy...STORAGE hash
// destination values once they exceed engine.HashValueCompressionThreshold;
// pass nil for compress.NewNoOpCompressor().
func New(store kvstore.Store, clock rangeutil.Clock, hashCodec compress.Codec) *engine.Engine {
	return engine.New(store, clock, hashCodec)
}
