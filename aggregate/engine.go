package aggregate

import (
	"sort"

	"github.com/arloliu/tsengine/codec"
	"github.com/arloliu/tsengine/format"
	"github.com/arloliu/tsengine/scalar"
)

// Entry is one decoded (timestamp, record) pair fed into Aggregate,
// already produced by a range scan.
type Entry struct {
	Ts  int64
	Rec codec.Record
}

// Bucket is one tumbling window's result: per field, a map from kind
// name to its finalized value. This is spec.md §4.5's "non-copy
// executor" output shape, { field: { kind: value, ... }, ... }.
type Bucket struct {
	Ts     int64
	Fields map[string]map[string]any
}

// Flatten renders b in the copy-executor shape: field_kind[_subfield]
// keys, e.g. "value_stats_mean". Used by the engine's copy verb when
// copying an aggregated series, to either storage target.
func (b Bucket) Flatten() map[string]any {
	out := make(map[string]any, len(b.Fields))
	for field, kinds := range b.Fields {
		for kindName, val := range kinds {
			if sub, ok := val.(map[string]any); ok {
				for subName, subVal := range sub {
					out[field+"_"+kindName+"_"+subName] = subVal
				}

				continue
			}
			out[field+"_"+kindName] = val
		}
	}

	return out
}

// Result is the ascending-order sequence of non-empty buckets.
type Result struct {
	Buckets []Bucket
}

// Aggregate folds entries into tumbling buckets of spec.BucketWidth,
// updating one accumulator per (bucket, field, kind) triple, and
// returns the buckets in ascending timestamp order. Buckets with zero
// raw entries are never created and so never appear in the result,
// per spec.md §4.5's "empty buckets are not emitted".
func Aggregate(spec *Spec, entries []Entry) *Result {
	type fieldAccs map[string]map[format.AggKind]Accumulator

	buckets := make(map[int64]fieldAccs)
	var order []int64

	for _, e := range entries {
		bucketTs := floorBucket(e.Ts, spec.BucketWidth)

		fields, ok := buckets[bucketTs]
		if !ok {
			fields = make(fieldAccs)
			buckets[bucketTs] = fields
			order = append(order, bucketTs)
		}

		for _, term := range spec.Terms {
			kinds, ok := fields[term.Field]
			if !ok {
				kinds = make(map[format.AggKind]Accumulator)
				fields[term.Field] = kinds
			}

			acc, ok := kinds[term.Kind]
			if !ok {
				acc = newAccumulator(term.Kind, spec.BucketWidth)
				kinds[term.Kind] = acc
			}

			acc.Update(fieldValue(e.Rec, term.Field))
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	result := &Result{Buckets: make([]Bucket, 0, len(order))}
	for _, ts := range order {
		out := make(map[string]map[string]any, len(buckets[ts]))
		for field, kinds := range buckets[ts] {
			kindOut := make(map[string]any, len(kinds))
			for kind, acc := range kinds {
				val := acc.Finalize()
				if kind == format.AggCountDistinct {
					if m, ok := val.(map[string]int); ok && len(m) == 0 {
						continue
					}
				}
				kindOut[kind.String()] = val
			}
			if len(kindOut) > 0 {
				out[field] = kindOut
			}
		}
		result.Buckets = append(result.Buckets, Bucket{Ts: ts, Fields: out})
	}

	return result
}

func fieldValue(rec codec.Record, name string) scalar.Value {
	if v, ok := rec[name]; ok {
		return v
	}

	return scalar.Null
}

// floorBucket implements "ts - (ts mod bucket)" with a floor (rather
// than truncating) modulo so negative timestamps still align to the
// window below them.
func floorBucket(ts, width int64) int64 {
	m := ts % width
	if m < 0 {
		m += width
	}

	return ts - m
}
