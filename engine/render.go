package engine

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/arloliu/tsengine/codec"
	"github.com/arloliu/tsengine/format"
	"github.com/vmihailenco/msgpack/v5"
)

// renderRecord converts a decoded Record into the plain-Go-value shape
// every output format starts from: native types (int64/float64/bool/
// string/nil), never pre-stringified. Stringification of non-integer
// floats (spec.md §6's default-format rule) is applied once, uniformly,
// by finish — not per record type — so it covers aggregation results
// too.
func renderRecord(rec codec.Record) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v.Native()
	}

	return out
}

// stringifyNonIntegerFloats walks a result tree built from
// renderRecord/aggregate.Bucket values and replaces every non-integer
// float64 with its full-precision decimal string, per spec.md §6's
// "Numbers that are non-integer are stringified to avoid host-side
// float truncation" default-format rule. Integers, integer-valued
// floats, bools, strings, and nils pass through unchanged.
func stringifyNonIntegerFloats(v any) any {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return strconv.FormatFloat(x, 'f', -1, 64)
		}

		return x
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = stringifyNonIntegerFloats(val)
		}

		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = stringifyNonIntegerFloats(val)
		}

		return out
	default:
		return x
	}
}

// finish applies the FORMAT option to a verb's native result value:
// the default path stringifies non-integer floats in place, FORMAT
// json marshals to a JSON string, and FORMAT msgpack marshals to a
// binary pack, matching spec.md §6's three response formats.
func finish(value any, outFormat format.OutputFormat) (any, error) {
	switch outFormat {
	case format.FormatJSON:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}

		return string(b), nil
	case format.FormatMsgpack:
		b, err := msgpack.Marshal(value)
		if err != nil {
			return nil, err
		}

		return b, nil
	default:
		return stringifyNonIntegerFloats(value), nil
	}
}
