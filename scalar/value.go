// Package scalar implements the tagged scalar variant stored in every
// record field: Null, Bool, Int, Float, or String. It owns the dynamic
// coercion rules the filter mini-language and the aggregation engine
// both depend on, so those two packages never reimplement the same
// "does this look like a number" logic twice.
package scalar

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the active member of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// Value is a tagged scalar: exactly one of the typed fields is
// meaningful, selected by Kind. The zero Value is Null.
type Value struct {
	Kind Kind
	B    bool
	I    int64
	F    float64
	S    string
}

// Null is the canonical null value.
var Null = Value{Kind: KindNull}

func Bool(b bool) Value    { return Value{Kind: KindBool, B: b} }
func Int(i int64) Value    { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value { return Value{Kind: KindFloat, F: f} }
func String(s string) Value { return Value{Kind: KindString, S: s} }

// IsNull reports whether v is the null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsNumeric reports whether v's static kind is Int or Float. It does not
// attempt to parse strings; use AsFloat/ParsesAsNumber for that.
func (v Value) IsNumeric() bool { return v.Kind == KindInt || v.Kind == KindFloat }

// IsFloatValued reports whether v needs the non-JSON "stringify to avoid
// host float truncation" treatment described in spec.md §4.1: a Float
// kind whose value is not exactly representable as an integer. An
// integer-valued Float reports false.
func (v Value) IsFloatValued() bool {
	if v.Kind != KindFloat {
		return false
	}

	return v.F != float64(int64(v.F))
}

// AsFloat attempts to interpret v as a float64, trying a numeric kind
// directly and otherwise parsing a string. ok is false for Bool, Null,
// and non-numeric strings.
func (v Value) AsFloat() (f float64, ok bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.I), true
	case KindFloat:
		return v.F, true
	case KindString:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.S), 64)
		if err != nil {
			return 0, false
		}

		return parsed, true
	default:
		return 0, false
	}
}

// String renders v the way the engine's default (non-JSON) output path
// does: integers and strings as-is, non-integer floats as their full
// decimal text (to avoid the host's wire format truncating precision),
// booleans as "true"/"false", and null as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindBool:
		if v.B {
			return "true"
		}

		return "false"
	case KindInt:
		return strconv.FormatInt(v.I, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F, 'f', -1, 64)
	case KindString:
		return v.S
	default:
		return ""
	}
}

// Native returns the Go value JSON/msgpack encoders should see: the
// underlying bool/int64/float64/string, or nil for Null. Unlike String,
// this never stringifies a float, matching spec.md §6's "JSON and
// binary-pack formats preserve the native type".
func (v Value) Native() any {
	switch v.Kind {
	case KindBool:
		return v.B
	case KindInt:
		return v.I
	case KindFloat:
		return v.F
	case KindString:
		return v.S
	default:
		return nil
	}
}

// Equal implements the filter mini-language's "=" / "!=" semantics for a
// stored value compared against a literal parsed from the filter text.
// Per spec.md §4.3, comparisons dynamically coerce per call site: if the
// stored field parses as a number, the literal is parsed as a number and
// compared numerically; otherwise both sides compare as strings, and
// equality across incompatible types falls back to string comparison.
func (v Value) Equal(lit string) bool {
	if lit == "null" && v.IsNull() {
		return true
	}

	if vf, ok := v.AsFloat(); ok {
		if lf, err := strconv.ParseFloat(strings.TrimSpace(lit), 64); err == nil {
			return vf == lf
		}
	}

	return v.String() == lit
}

// Compare implements the filter mini-language's ordering operators
// (">", ">=", "<", "<=") using the same dynamic coercion rule as Equal:
// numeric comparison when the stored field parses as a number, otherwise
// lexicographic string comparison. ok is false when the literal cannot
// be compared at all (e.g. a non-numeric literal against a numeric
// field comparison that still falls through to string comparison is
// always ok; ok is only false for Null/Bool fields being ordered, which
// degrades the predicate to false per spec.md §7's "comparing
// incompatible scalars fails the predicate, does not abort").
func (v Value) Compare(lit string) (cmp int, ok bool) {
	if vf, verr := v.AsFloat(); verr {
		if lf, err := strconv.ParseFloat(strings.TrimSpace(lit), 64); err == nil {
			switch {
			case vf < lf:
				return -1, true
			case vf > lf:
				return 1, true
			default:
				return 0, true
			}
		}
	}

	if v.Kind == KindString {
		return strings.Compare(v.S, lit), true
	}

	return 0, false
}

// Key stringifies v for use as a set-membership/distinct/count_distinct
// map key, per spec.md §4.3 ("matching stringifies the field") and
// §4.5 ("distinct"/"count_distinct" accumulate stringified values).
func (v Value) Key() string {
	if v.IsNull() {
		return "null"
	}

	return v.String()
}

// GoString supports %#v-style debugging output.
func (v Value) GoString() string {
	return fmt.Sprintf("scalar.Value{Kind:%s, %s}", v.Kind, v.String())
}
