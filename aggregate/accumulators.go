package aggregate

import (
	"math"
	"sort"

	"github.com/arloliu/tsengine/format"
	"github.com/arloliu/tsengine/scalar"
)

// LargeBucketThreshold is the sample count above which the avg
// accumulator discards its buffered slice and switches to the Welford
// recurrence for its running mean, bounding avg's per-bucket memory to
// O(1) on hot series without changing its documented finalizer (mean).
const LargeBucketThreshold = 4096

// Accumulator is the shared shape every aggregation kind implements:
// fold one scalar value in, produce a finalized result on demand.
type Accumulator interface {
	Update(v scalar.Value)
	Finalize() any
}

func newAccumulator(kind format.AggKind, bucketWidth int64) Accumulator {
	switch kind {
	case format.AggCount:
		return &countAcc{}
	case format.AggRate:
		return &rateAcc{bucketWidth: bucketWidth}
	case format.AggSum:
		return &sumAcc{}
	case format.AggAvg:
		return &avgAcc{}
	case format.AggMin:
		return &minMaxAcc{}
	case format.AggMax:
		return &minMaxAcc{max: true}
	case format.AggFirst:
		return &firstAcc{}
	case format.AggLast:
		return &lastAcc{}
	case format.AggRange:
		return &rangeAcc{}
	case format.AggStats:
		return &statsAcc{}
	case format.AggDistinct:
		return &distinctAcc{set: make(map[string]struct{})}
	case format.AggCountDistinct:
		return &countDistinctAcc{counts: make(map[string]int)}
	case format.AggData:
		return &dataAcc{}
	default:
		return &dataAcc{}
	}
}

// welford implements the online mean/variance recurrence from
// spec.md §4.5: count++; delta=x-mean_old; mean+=delta/count;
// M2+=delta*(x-mean_new); var=M2/(count-1); std=sqrt(var).
type welford struct {
	n    int64
	mean float64
	m2   float64
}

func (w *welford) update(x float64) {
	w.n++
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

func (w *welford) variance() float64 {
	if w.n < 2 {
		return 0
	}

	return w.m2 / float64(w.n-1)
}

func (w *welford) std() float64 {
	return math.Sqrt(w.variance())
}

type countAcc struct{ n int64 }

func (a *countAcc) Update(scalar.Value) { a.n++ }
func (a *countAcc) Finalize() any       { return a.n }

type rateAcc struct {
	n           int64
	bucketWidth int64
}

func (a *rateAcc) Update(scalar.Value) { a.n++ }
func (a *rateAcc) Finalize() any {
	if a.bucketWidth == 0 {
		return float64(0)
	}

	return float64(a.n) / float64(a.bucketWidth)
}

type sumAcc struct{ sum float64 }

func (a *sumAcc) Update(v scalar.Value) {
	if f, ok := v.AsFloat(); ok {
		a.sum += f
	}
}
func (a *sumAcc) Finalize() any { return a.sum }

// avgAcc buffers a plain slice of numbers until LargeBucketThreshold is
// exceeded, then discards the slice and continues with a Welford
// accumulator for the running mean — see LargeBucketThreshold.
type avgAcc struct {
	small []float64
	w     *welford
}

func (a *avgAcc) Update(v scalar.Value) {
	f, ok := v.AsFloat()
	if !ok {
		return
	}

	if a.w != nil {
		a.w.update(f)

		return
	}

	a.small = append(a.small, f)
	if len(a.small) > LargeBucketThreshold {
		a.w = &welford{}
		for _, x := range a.small {
			a.w.update(x)
		}
		a.small = nil
	}
}

func (a *avgAcc) Finalize() any {
	if a.w != nil {
		return a.w.mean
	}
	if len(a.small) == 0 {
		return float64(0)
	}

	sum := 0.0
	for _, x := range a.small {
		sum += x
	}

	return sum / float64(len(a.small))
}

// compareScalars orders two non-null scalars numerically when both
// parse as numbers, otherwise lexicographically by their string form,
// matching spec.md §4.5's "numeric-min if numeric else lexicographic".
func compareScalars(a, b scalar.Value) int {
	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	as, bs := a.String(), b.String()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

type minMaxAcc struct {
	has bool
	v   scalar.Value
	max bool
}

func (a *minMaxAcc) Update(v scalar.Value) {
	if v.IsNull() {
		return
	}
	if !a.has {
		a.v, a.has = v, true

		return
	}

	cmp := compareScalars(v, a.v)
	if (a.max && cmp > 0) || (!a.max && cmp < 0) {
		a.v = v
	}
}

func (a *minMaxAcc) Finalize() any {
	if !a.has {
		return nil
	}

	return a.v.Native()
}

// firstAcc keeps the first non-null value seen, per spec.md §9's open
// question: null is treated as non-existent for "first" but not "last".
type firstAcc struct {
	has bool
	v   scalar.Value
}

func (a *firstAcc) Update(v scalar.Value) {
	if a.has || v.IsNull() {
		return
	}
	a.v, a.has = v, true
}
func (a *firstAcc) Finalize() any {
	if !a.has {
		return nil
	}

	return a.v.Native()
}

// lastAcc overwrites on every update, including with null values.
type lastAcc struct {
	has bool
	v   scalar.Value
}

func (a *lastAcc) Update(v scalar.Value) { a.v, a.has = v, true }
func (a *lastAcc) Finalize() any {
	if !a.has {
		return nil
	}

	return a.v.Native()
}

type rangeAcc struct {
	has      bool
	min, max float64
}

func (a *rangeAcc) Update(v scalar.Value) {
	f, ok := v.AsFloat()
	if !ok {
		return
	}
	if !a.has {
		a.min, a.max, a.has = f, f, true

		return
	}
	if f < a.min {
		a.min = f
	}
	if f > a.max {
		a.max = f
	}
}

func (a *rangeAcc) Finalize() any {
	if !a.has {
		return nil
	}

	return a.max - a.min
}

type statsAcc struct {
	w        welford
	sum      float64
	has      bool
	min, max float64
}

func (a *statsAcc) Update(v scalar.Value) {
	f, ok := v.AsFloat()
	if !ok {
		return
	}
	a.w.update(f)
	a.sum += f
	if !a.has {
		a.min, a.max, a.has = f, f, true

		return
	}
	if f < a.min {
		a.min = f
	}
	if f > a.max {
		a.max = f
	}
}

func (a *statsAcc) Finalize() any {
	out := map[string]any{
		"count": a.w.n,
		"sum":   a.sum,
		"mean":  a.w.mean,
		"std":   a.w.std(),
	}
	if a.has {
		out["min"] = a.min
		out["max"] = a.max
	} else {
		out["min"] = nil
		out["max"] = nil
	}

	return out
}

type distinctAcc struct{ set map[string]struct{} }

func (a *distinctAcc) Update(v scalar.Value) {
	if v.IsNull() {
		return
	}
	a.set[v.Key()] = struct{}{}
}
func (a *distinctAcc) Finalize() any {
	out := make([]string, 0, len(a.set))
	for k := range a.set {
		out = append(out, k)
	}
	sort.Strings(out)

	return out
}

// countDistinctAcc's Finalize can return an empty map, which
// Aggregate treats specially: per spec.md §4.5, "count_distinct with
// an empty bucket is not emitted" for that (field,kind) pair.
type countDistinctAcc struct{ counts map[string]int }

func (a *countDistinctAcc) Update(v scalar.Value) {
	if v.IsNull() {
		return
	}
	a.counts[v.Key()]++
}
func (a *countDistinctAcc) Finalize() any         { return a.counts }

type dataAcc struct{ values []any }

func (a *dataAcc) Update(v scalar.Value) { a.values = append(a.values, v.Native()) }
func (a *dataAcc) Finalize() any {
	if a.values == nil {
		return []any{}
	}

	return a.values
}
