package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/arloliu/tsengine/aggregate"
	"github.com/arloliu/tsengine/codec"
	"github.com/arloliu/tsengine/errs"
	"github.com/arloliu/tsengine/format"
	"github.com/arloliu/tsengine/internal/pool"
	"github.com/arloliu/tsengine/query"
	"github.com/arloliu/tsengine/rangeutil"
	"github.com/arloliu/tsengine/scalar"
)

func verbAdd(e *Engine, keys, args []string) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("%w: add requires a timestamp", errs.ErrWrongArity)
	}
	ts, err := parseTimestampArg("add", args[0])
	if err != nil {
		return nil, err
	}
	rec, err := recordFromArgs("add", args[1:])
	if err != nil {
		return nil, err
	}
	key, err := codec.EncodeKey(ts, rec)
	if err != nil {
		return nil, err
	}
	lo, hi := rangeutil.PointBounds(ts)
	if _, err := e.Store.RemRangeByLex(keys[0], lo, hi); err != nil {
		return nil, err
	}
	if err := e.Store.Add(keys[0], key); err != nil {
		return nil, err
	}

	return ts, nil
}

func verbDel(e *Engine, keys, args []string) (any, error) {
	count := 0
	for _, a := range args {
		ts, err := parseTimestampArg("del", a)
		if err != nil {
			return nil, err
		}
		lo, hi := rangeutil.PointBounds(ts)
		n, err := e.Store.RemRangeByLex(keys[0], lo, hi)
		if err != nil {
			return nil, err
		}
		count += n
	}

	return count, nil
}

func verbSet(e *Engine, keys, args []string) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("%w: set requires a timestamp", errs.ErrWrongArity)
	}
	ts, err := parseTimestampArg("set", args[0])
	if err != nil {
		return nil, err
	}
	patch, err := recordFromArgs("set", args[1:])
	if err != nil {
		return nil, err
	}

	old, rawKey, err := pointLookup(e, keys[0], ts)
	if err != nil {
		return nil, err
	}
	if rawKey != nil {
		if _, err := e.Store.Remove(keys[0], rawKey); err != nil {
			return nil, err
		}
	}

	merged := old.Merge(patch)
	key, err := codec.EncodeKey(ts, merged)
	if err != nil {
		return nil, err
	}

	return nil, e.Store.Add(keys[0], key)
}

func verbIncrBy(e *Engine, keys, args []string) (any, error) {
	if len(args) < 1 || (len(args)-1)%2 != 0 {
		return nil, fmt.Errorf("%w: incrBy requires a timestamp and field/delta pairs", errs.ErrWrongArity)
	}
	ts, err := parseTimestampArg("incrBy", args[0])
	if err != nil {
		return nil, err
	}

	type delta struct {
		name string
		by   float64
	}
	deltas := make([]delta, 0, (len(args)-1)/2)
	for i := 1; i < len(args); i += 2 {
		name := args[i]
		if err := codec.ValidateFieldName(name); err != nil {
			return nil, err
		}
		by, err := strconv.ParseFloat(args[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: incrBy delta %q for field %q", errs.ErrInvalidNumber, args[i+1], name)
		}
		deltas = append(deltas, delta{name, by})
	}

	old, rawKey, err := pointLookup(e, keys[0], ts)
	if err != nil {
		return nil, err
	}
	if rawKey != nil {
		if _, err := e.Store.Remove(keys[0], rawKey); err != nil {
			return nil, err
		}
	}

	newRec := old.Clone()
	results := make([]any, len(deltas))
	for i, d := range deltas {
		base := 0.0
		if cur, ok := newRec[d.name]; ok && !cur.IsNull() {
			f, fok := cur.AsFloat()
			if !fok {
				return nil, fmt.Errorf("%w: field %q", errs.ErrNotIncrementable, d.name)
			}
			base = f
		}
		sum := base + d.by
		newRec[d.name] = scalar.Float(sum)
		results[i] = sum
	}

	key, err := codec.EncodeKey(ts, newRec)
	if err != nil {
		return nil, err
	}
	if err := e.Store.Add(keys[0], key); err != nil {
		return nil, err
	}

	return finish(results, format.FormatNative)
}

func verbGet(e *Engine, keys, args []string) (any, error) { return getOrPop(e, keys, args, false) }
func verbPop(e *Engine, keys, args []string) (any, error) { return getOrPop(e, keys, args, true) }

func getOrPop(e *Engine, keys, args []string, pop bool) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("%w: get/pop requires a timestamp", errs.ErrWrongArity)
	}
	ts, err := parseTimestampArg("get", args[0])
	if err != nil {
		return nil, err
	}
	opts, err := query.Parse(args[1:])
	if err != nil {
		return nil, err
	}

	rec, rawKey, err := pointLookup(e, keys[0], ts)
	if err != nil {
		return nil, err
	}
	if rawKey == nil {
		return finish(nil, opts.Format)
	}

	rec = rec.Project(opts.Labels, opts.Redact)
	if pop {
		if _, err := e.Store.Remove(keys[0], rawKey); err != nil {
			return nil, err
		}
	}

	return finish(renderRecord(rec), opts.Format)
}

func verbSize(e *Engine, keys, args []string) (any, error) {
	return e.Store.Card(keys[0])
}

func verbExists(e *Engine, keys, args []string) (any, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("%w: exists requires a timestamp", errs.ErrWrongArity)
	}
	ts, err := parseTimestampArg("exists", args[0])
	if err != nil {
		return nil, err
	}
	lo, hi := rangeutil.PointBounds(ts)
	n, err := e.Store.LexCount(keys[0], lo, hi)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return 1, nil
	}

	return 0, nil
}

func verbSpan(e *Engine, keys, args []string) (any, error) {
	first, err := e.Store.RangeByLex(keys[0], "-", "+", 0, 1)
	if err != nil {
		return nil, err
	}
	if len(first) == 0 {
		return []int64{}, nil
	}

	last, err := e.Store.RevRangeByLex(keys[0], "-", "+", 0, 1)
	if err != nil {
		return nil, err
	}

	tsMin, _, _, err := codec.DecodeKey(first[0])
	if err != nil {
		return nil, err
	}
	tsMax, _, _, err := codec.DecodeKey(last[0])
	if err != nil {
		return nil, err
	}

	return []int64{tsMin, tsMax}, nil
}

func verbTimes(e *Engine, keys, args []string) (any, error) {
	positional, rest, err := splitArgs("times", args, 2)
	if err != nil {
		return nil, err
	}
	opts, err := query.Parse(rest)
	if err != nil {
		return nil, err
	}
	minTok, maxTok, err := e.translateBounds(positional[0], positional[1])
	if err != nil {
		return nil, err
	}
	entries, err := e.runPipeline(keys[0], minTok, maxTok, opts, false)
	if err != nil {
		return nil, err
	}

	out := make([]int64, len(entries))
	for i, en := range entries {
		out[i] = en.Ts
	}

	return out, nil
}

func verbCount(e *Engine, keys, args []string) (any, error) {
	positional, rest, err := splitArgs("count", args, 2)
	if err != nil {
		return nil, err
	}
	opts, err := query.Parse(rest)
	if err != nil {
		return nil, err
	}
	minTok, maxTok, err := e.translateBounds(positional[0], positional[1])
	if err != nil {
		return nil, err
	}

	if !opts.HasFilter {
		return e.Store.LexCount(keys[0], minTok, maxTok)
	}

	entries, err := e.runPipeline(keys[0], minTok, maxTok, opts, false)
	if err != nil {
		return nil, err
	}

	return len(entries), nil
}

func verbRange(e *Engine, keys, args []string) (any, error) {
	return rangeLike(e, keys, args, false, false)
}

func verbRevRange(e *Engine, keys, args []string) (any, error) {
	return rangeLike(e, keys, args, true, false)
}

func verbPopRange(e *Engine, keys, args []string) (any, error) {
	return rangeLike(e, keys, args, false, true)
}

// rangeLike implements the shared body of range/revrange/poprange:
// FETCH → DECODE → FILTER → PROJECT → (AGGREGATE) → FORMAT → (DELETE),
// per spec.md §4.6's pipeline. Destructive deletion (poprange) always
// happens after the result is fully materialized, operating on the
// exact raw keys that passed the filter.
func rangeLike(e *Engine, keys, args []string, reverse, pop bool) (any, error) {
	positional, rest, err := splitArgs("range", args, 2)
	if err != nil {
		return nil, err
	}
	opts, err := query.Parse(rest)
	if err != nil {
		return nil, err
	}
	minTok, maxTok, err := e.translateBounds(positional[0], positional[1])
	if err != nil {
		return nil, err
	}
	entries, err := e.runPipeline(keys[0], minTok, maxTok, opts, reverse)
	if err != nil {
		return nil, err
	}

	var result any
	if opts.HasAggregation {
		aggEntries := make([]aggregate.Entry, len(entries))
		for i, en := range entries {
			aggEntries[i] = aggregate.Entry{Ts: en.Ts, Rec: en.Rec}
		}
		agg := aggregate.Aggregate(opts.Aggregation, aggEntries)
		items := make([]any, len(agg.Buckets))
		for i, b := range agg.Buckets {
			items[i] = []any{b.Ts, toAnyMap(b.Fields)}
		}
		result = items
	} else {
		items := make([]any, len(entries))
		for i, en := range entries {
			items[i] = []any{en.Ts, renderRecord(en.Rec)}
		}
		result = items
	}

	out, err := finish(result, opts.Format)
	if err != nil {
		return nil, err
	}

	if pop {
		for _, en := range entries {
			if _, err := e.Store.Remove(keys[0], en.RawKey); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

func verbRemRange(e *Engine, keys, args []string) (any, error) {
	positional, rest, err := splitArgs("remrange", args, 2)
	if err != nil {
		return nil, err
	}
	opts, err := query.Parse(rest)
	if err != nil {
		return nil, err
	}
	minTok, maxTok, err := e.translateBounds(positional[0], positional[1])
	if err != nil {
		return nil, err
	}

	if !opts.HasFilter && !opts.HasLimit {
		return e.Store.RemRangeByLex(keys[0], minTok, maxTok)
	}

	entries, err := e.runPipeline(keys[0], minTok, maxTok, opts, false)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, en := range entries {
		n, err := e.Store.Remove(keys[0], en.RawKey)
		if err != nil {
			return nil, err
		}
		count += n
	}

	return count, nil
}

func verbCopy(e *Engine, keys, args []string) (any, error) {
	if len(keys) < 2 {
		return nil, fmt.Errorf("%w: copy requires a source and destination key", errs.ErrWrongArity)
	}
	sourceKey, destKey := keys[0], keys[1]

	positional, rest, err := splitArgs("copy", args, 2)
	if err != nil {
		return nil, err
	}
	opts, err := query.Parse(rest)
	if err != nil {
		return nil, err
	}
	minTok, maxTok, err := e.translateBounds(positional[0], positional[1])
	if err != nil {
		return nil, err
	}

	// Fast path per spec.md §4.6: no filter, no aggregation, no
	// projection, STORAGE timeseries bulk-inserts raw keys undecoded.
	if !opts.HasFilter && !opts.HasAggregation && !opts.HasLabels && !opts.HasRedact &&
		opts.Storage == format.StorageTimeseries {
		raw, err := e.Store.RangeByLex(sourceKey, minTok, maxTok, 0, -1)
		if err != nil {
			return nil, err
		}
		for _, key := range raw {
			if err := e.Store.Add(destKey, key); err != nil {
				return nil, err
			}
		}

		return len(raw), nil
	}

	entries, err := e.runPipeline(sourceKey, minTok, maxTok, opts, false)
	if err != nil {
		return nil, err
	}

	if opts.HasAggregation {
		aggEntries := make([]aggregate.Entry, len(entries))
		for i, en := range entries {
			aggEntries[i] = aggregate.Entry{Ts: en.Ts, Rec: en.Rec}
		}
		agg := aggregate.Aggregate(opts.Aggregation, aggEntries)

		count := 0
		for _, b := range agg.Buckets {
			rec, err := recordFromFlatten(b.Flatten())
			if err != nil {
				return nil, err
			}
			if err := e.writeDestination(destKey, b.Ts, rec, opts.Storage); err != nil {
				return nil, err
			}
			count++
		}

		return count, nil
	}

	count := 0
	for _, en := range entries {
		if err := e.writeDestination(destKey, en.Ts, en.Rec, opts.Storage); err != nil {
			return nil, err
		}
		count++
	}

	return count, nil
}

// hashValueRaw and hashValueCompressed tag a STORAGE hash destination
// value's leading byte so hashget knows whether to run it through
// Engine.HashCodec.Decompress before unmarshaling, mirroring codec's
// own flag-byte-then-payload convention for the primary entry key.
const (
	hashValueRaw        byte = 'r'
	hashValueCompressed byte = 'c'
)

// writeDestination writes one (ts, rec) entry into destKey per
// spec.md §6's "Persisted state layout": an ordered set for STORAGE
// timeseries, or an unordered hash keyed by decimal timestamp string
// with JSON-encoded (optionally compressed) values for STORAGE hash.
func (e *Engine) writeDestination(destKey string, ts int64, rec codec.Record, storage format.StorageTarget) error {
	if storage == format.StorageHash {
		buf := pool.GetHashPayloadBuffer()
		defer pool.PutHashPayloadBuffer(buf)

		if err := json.NewEncoder(buf).Encode(renderRecord(rec)); err != nil {
			return err
		}
		payload := bytes.TrimRight(buf.Bytes(), "\n")

		flag := hashValueRaw
		var err error
		if len(payload) > HashValueCompressionThreshold {
			payload, err = e.HashCodec.Compress(payload)
			if err != nil {
				return err
			}
			flag = hashValueCompressed
		}

		tagged := make([]byte, 0, len(payload)+1)
		tagged = append(tagged, flag)
		tagged = append(tagged, payload...)

		return e.Store.HashSet(destKey, strconv.FormatInt(ts, 10), tagged)
	}

	key, err := codec.EncodeKey(ts, rec)
	if err != nil {
		return err
	}

	return e.Store.Add(destKey, key)
}

// verbHashGet reads a "copy ... STORAGE hash" destination value back
// through the engine, transparently decompressing it with HashCodec
// when it was written above HashValueCompressionThreshold, and
// returning the decoded field/value map.
func verbHashGet(e *Engine, keys, args []string) (any, error) {
	if len(keys) < 1 {
		return nil, fmt.Errorf("%w: hashget requires a destination key", errs.ErrWrongArity)
	}
	if len(args) < 1 {
		return nil, fmt.Errorf("%w: hashget requires a timestamp field", errs.ErrWrongArity)
	}

	ts, err := parseTimestampArg("hashget", args[0])
	if err != nil {
		return nil, err
	}

	tagged, ok := e.Store.HashGet(keys[0], strconv.FormatInt(ts, 10))
	if !ok {
		return nil, fmt.Errorf("%w: %s[%d]", errs.ErrNoSuchHashField, keys[0], ts)
	}
	if len(tagged) < 1 {
		return nil, fmt.Errorf("%w: %s[%d]", errs.ErrMalformedHashValue, keys[0], ts)
	}

	flag, payload := tagged[0], tagged[1:]
	switch flag {
	case hashValueCompressed:
		payload, err = e.HashCodec.Decompress(payload)
		if err != nil {
			return nil, err
		}
	case hashValueRaw:
		// payload is already the JSON encoding.
	default:
		return nil, fmt.Errorf("%w: %s[%d]", errs.ErrMalformedHashValue, keys[0], ts)
	}

	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// recordFromFlatten converts an aggregate.Bucket's flattened
// field_kind[_subfield] map back into a Record for a copy-to-timeseries
// destination. Composite finalizer shapes (distinct's sorted list,
// count_distinct's mapping) have no scalar.Value representation, so
// they are JSON-stringified rather than dropped.
func recordFromFlatten(flat map[string]any) (codec.Record, error) {
	rec := make(codec.Record, len(flat))
	for k, v := range flat {
		sv, err := anyToScalar(v)
		if err != nil {
			return nil, err
		}
		rec[k] = sv
	}

	return rec, nil
}

func anyToScalar(v any) (scalar.Value, error) {
	switch x := v.(type) {
	case nil:
		return scalar.Null, nil
	case bool:
		return scalar.Bool(x), nil
	case int64:
		return scalar.Int(x), nil
	case int:
		return scalar.Int(int64(x)), nil
	case float64:
		return scalar.Float(x), nil
	case string:
		return scalar.String(x), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return scalar.Null, err
		}

		return scalar.String(string(b)), nil
	}
}

func toAnyMap(m map[string]map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		inner := make(map[string]any, len(v))
		for k2, v2 := range v {
			inner[k2] = v2
		}
		out[k] = inner
	}

	return out
}

// pointLookup fetches the single entry at ts, if any. rawKey is nil
// when nothing is stored at ts (missing data is not an error per
// spec.md §7). More than one match for a single timestamp is an
// invariant violation.
func pointLookup(e *Engine, seriesKey string, ts int64) (codec.Record, []byte, error) {
	lo, hi := rangeutil.PointBounds(ts)
	raw, err := e.Store.RangeByLex(seriesKey, lo, hi, 0, -1)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) > 1 {
		return nil, nil, errs.ErrDuplicateTimestamp
	}
	if len(raw) == 0 {
		return codec.Record{}, nil, nil
	}

	_, rec, _, err := codec.DecodeKey(raw[0])
	if err != nil {
		return nil, nil, err
	}

	return rec, raw[0], nil
}
