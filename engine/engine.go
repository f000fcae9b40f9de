// Package engine implements spec.md §4.6: the verb dispatcher
// that drives package codec, rangeutil, filter, query, and aggregate
// against a kvstore.Store. It is the one place in the module that
// wires every other package together, the same role the teacher's
// top-level mebo.go wrapper plays over its blob/section/encoding
// packages.
package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/tsengine/codec"
	"github.com/arloliu/tsengine/compress"
	"github.com/arloliu/tsengine/errs"
	"github.com/arloliu/tsengine/kvstore"
	"github.com/arloliu/tsengine/query"
	"github.com/arloliu/tsengine/rangeutil"
	"github.com/arloliu/tsengine/scalar"
)

// HashValueCompressionThreshold is the encoded-JSON size, in bytes,
// above which a "copy ... STORAGE hash" destination value is
// compressed with Engine.HashCodec before being stored.
const HashValueCompressionThreshold = 512

// Engine dispatches verbs against a Store. Per spec.md §5, Engine
// methods take no internal locks: the host must serialize invocations
// against the same series key itself.
type Engine struct {
	Store kvstore.Store
	// Clock supplies the wall-clock second value substituted for the
	// "*" range bound token (spec.md §4.2). Nil is fine as long as no
	// caller ever passes "*".
	Clock rangeutil.Clock
	// HashCodec compresses copy...STORAGE hash destination values once
	// their JSON encoding exceeds HashValueCompressionThreshold.
	HashCodec compress.Codec
}

// New constructs an Engine. A nil hashCodec defaults to
// compress.NewNoOpCompressor().
func New(store kvstore.Store, clock rangeutil.Clock, hashCodec compress.Codec) *Engine {
	if hashCodec == nil {
		hashCodec = compress.NewNoOpCompressor()
	}

	return &Engine{Store: store, Clock: clock, HashCodec: hashCodec}
}

// handler is the shape of every entry in the verb dispatch table, per
// spec.md §9's "global command table" design note: a static mapping
// from normalized verb name to handler, with no process-wide mutable
// state beyond the table itself.
type handler func(e *Engine, keys []string, args []string) (any, error)

var verbTable = map[string]handler{
	"add":      verbAdd,
	"del":      verbDel,
	"set":      verbSet,
	"incrby":   verbIncrBy,
	"get":      verbGet,
	"pop":      verbPop,
	"size":     verbSize,
	"exists":   verbExists,
	"span":     verbSpan,
	"times":    verbTimes,
	"count":    verbCount,
	"range":    verbRange,
	"revrange": verbRevRange,
	"poprange": verbPopRange,
	"remrange": verbRemRange,
	"copy":     verbCopy,
	"hashget":  verbHashGet,
}

// Exec dispatches a single-key verb. keys[0] is the series key for
// every verb except "copy", which additionally needs a destination key
// in keys[1] (use the Copy convenience method instead of calling Exec
// directly for that verb).
func (e *Engine) Exec(verb string, keys []string, args []string) (any, error) {
	h, ok := verbTable[strings.ToLower(verb)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownVerb, verb)
	}

	return h(e, keys, args)
}

// Copy is the two-key "copy" verb's convenience entry point.
func (e *Engine) Copy(sourceKey, destKey string, args []string) (any, error) {
	return e.Exec("copy", []string{sourceKey, destKey}, args)
}

// decodedEntry is one decoded (timestamp, record) pair plus the raw
// store key it came from, needed by destructive verbs that must
// delete the exact raw keys that were scanned.
type decodedEntry struct {
	Ts     int64
	Rec    codec.Record
	RawKey []byte
}

// fetchDecodeRaw scans [minTok, maxTok] and decodes every match.
func (e *Engine) fetchDecodeRaw(seriesKey, minTok, maxTok string, reverse bool) ([]decodedEntry, error) {
	var raw [][]byte
	var err error
	if reverse {
		raw, err = e.Store.RevRangeByLex(seriesKey, minTok, maxTok, 0, -1)
	} else {
		raw, err = e.Store.RangeByLex(seriesKey, minTok, maxTok, 0, -1)
	}
	if err != nil {
		return nil, err
	}

	out := make([]decodedEntry, 0, len(raw))
	for _, key := range raw {
		ts, rec, _, err := codec.DecodeKey(key)
		if err != nil {
			return nil, err
		}
		out = append(out, decodedEntry{Ts: ts, Rec: rec, RawKey: key})
	}

	return out, nil
}

// runPipeline implements the FETCH → DECODE → FILTER → (LIMIT) →
// PROJECT stages of spec.md §4.6's verb pipeline. Aggregation, format,
// and delete are applied by individual verb handlers since they differ
// per verb.
func (e *Engine) runPipeline(seriesKey, loTok, hiTok string, opts *query.Options, reverse bool) ([]decodedEntry, error) {
	entries, err := e.fetchDecodeRaw(seriesKey, loTok, hiTok, reverse)
	if err != nil {
		return nil, err
	}

	if opts.HasFilter {
		kept := entries[:0]
		for _, en := range entries {
			if opts.Filter(en.Rec) {
				kept = append(kept, en)
			}
		}
		entries = kept
	}

	if opts.HasLimit {
		entries = applyLimit(entries, opts.Offset, opts.Count)
	}

	if opts.HasLabels || opts.HasRedact {
		for i := range entries {
			entries[i].Rec = entries[i].Rec.Project(opts.Labels, opts.Redact)
		}
	}

	return entries, nil
}

// splitArgs peels off the first n positional arguments, leaving the
// remainder for query.Parse.
func splitArgs(verb string, args []string, n int) ([]string, []string, error) {
	if len(args) < n {
		return nil, nil, fmt.Errorf("%w: %s requires %d positional argument(s)", errs.ErrWrongArity, verb, n)
	}

	return args[:n], args[n:], nil
}

func applyLimit(entries []decodedEntry, offset, count int) []decodedEntry {
	if offset >= len(entries) {
		return nil
	}
	entries = entries[offset:]

	if count >= 0 && count < len(entries) {
		entries = entries[:count]
	}

	return entries
}

// translateBounds resolves the caller's lo/hi tokens to lexicographic
// bounds via rangeutil, surfacing any parse failure as an argument
// error per spec.md §6's "Bounds tokens" grammar.
func (e *Engine) translateBounds(lo, hi string) (string, string, error) {
	return rangeutil.Translate(lo, hi, e.Clock)
}

// parseTimestampArg parses a decimal-integer positional timestamp
// argument.
func parseTimestampArg(verb, s string) (int64, error) {
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: timestamp %q is not an integer", errs.ErrInvalidNumber, verb, s)
	}

	return ts, nil
}

// recordFromArgs parses a flat "field value field value ..." argument
// run into a Record, auto-typing each value via parseScalarArg and
// validating every field name.
func recordFromArgs(verb string, args []string) (codec.Record, error) {
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("%w: %s requires field/value pairs", errs.ErrWrongArity, verb)
	}

	rec := make(codec.Record, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		name := args[i]
		if err := codec.ValidateFieldName(name); err != nil {
			return nil, err
		}
		rec[name] = parseScalarArg(args[i+1])
	}

	return rec, nil
}

// parseScalarArg auto-types one command-line value argument: "true"/
// "false" to Bool, a decimal integer to Int, a decimal float to Float,
// "null" to Null, anything else to String.
func parseScalarArg(s string) scalar.Value {
	switch s {
	case "true":
		return scalar.Bool(true)
	case "false":
		return scalar.Bool(false)
	case "null":
		return scalar.Null
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return scalar.Int(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return scalar.Float(f)
	}

	return scalar.String(s)
}
