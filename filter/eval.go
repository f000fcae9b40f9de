package filter

import (
	"github.com/arloliu/tsengine/codec"
	"github.com/arloliu/tsengine/scalar"
)

// Predicate is a compiled FILTER expression: a closure over a decoded
// record, evaluated once per scanned entry. Compiling once and
// evaluating many times (rather than re-parsing the expression text
// per record) is the explicit goal behind spec.md §9's "closure-based
// filter AST" design note.
type Predicate func(rec codec.Record) bool

// Parse compiles a FILTER expression (spec.md §4.3) into a Predicate.
// Parse failures are fatal for the verb per spec.md §4.3/§7; per-record
// type-coercion failures instead degrade the predicate to false for
// that record, never abort the scan.
func Parse(expr string) (Predicate, error) {
	p, err := parse(expr)
	if err != nil {
		return nil, err
	}

	return compile(p), nil
}

func compile(p *parsed) Predicate {
	return func(rec codec.Record) bool {
		result := evalCond(rec, p.conds[0])
		for i, join := range p.joins {
			next := evalCond(rec, p.conds[i+1])
			if join == tokAnd {
				result = result && next
			} else {
				result = result || next
			}
		}

		return result
	}
}

func fieldValue(rec codec.Record, name string) scalar.Value {
	if v, ok := rec[name]; ok {
		return v
	}

	return scalar.Null
}

func evalCond(rec codec.Record, c cond) bool {
	v := fieldValue(rec, c.field)

	if c.isSet {
		_, present := c.set[v.Key()]

		return present != c.setNeg
	}

	switch c.op {
	case opEq:
		return v.Equal(c.literal)
	case opNe:
		return !v.Equal(c.literal)
	default:
		cmp, ok := v.Compare(c.literal)
		if !ok {
			return false
		}
		switch c.op {
		case opGt:
			return cmp > 0
		case opGe:
			return cmp >= 0
		case opLt:
			return cmp < 0
		case opLe:
			return cmp <= 0
		default:
			return false
		}
	}
}
