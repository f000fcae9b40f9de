// Package aggregate implements spec.md §4.5's windowed aggregation
// engine: thirteen tumbling-bucket reductions behind a shared
// Accumulator interface, selected by a factory from a parsed Spec.
// The interface shape mirrors the teacher's per-type ColumnarEncoder[T]
// pattern — one small concrete type per "kind", picked once up front
// and then driven by a tight per-point Update loop.
package aggregate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/arloliu/tsengine/errs"
	"github.com/arloliu/tsengine/format"
)

// Term is one (kind, field) pair to accumulate.
type Term struct {
	Kind  format.AggKind
	Field string
}

// Spec is a fully parsed AGGREGATION clause: a bucket width plus one or
// more terms.
type Spec struct {
	BucketWidth int64
	Terms       []Term
}

var termPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\(([A-Za-z_][A-Za-z0-9_]*)\)$`)

// ParseSpec parses the tokens following the AGGREGATION keyword and
// returns the resulting Spec plus the number of tokens consumed, so the
// caller (package query) can continue scanning the remaining option
// tokens. It implements spec.md §9's aggregation surface-syntax
// duality: peek the first token; if it parses as a number, this is the
// bucket width and the functional form (one or more "kind(field)"
// terms) follows; otherwise the first token is a legacy kind name and
// the second token is the bucket width, with the field implicitly
// "value".
func ParseSpec(tokens []string) (*Spec, int, error) {
	if len(tokens) == 0 {
		return nil, 0, fmt.Errorf("%w: AGGREGATION requires a bucket width", errs.ErrWrongArity)
	}

	if bucket, err := strconv.ParseInt(tokens[0], 10, 64); err == nil {
		terms, consumed, err := parseFunctionalTerms(tokens[1:])
		if err != nil {
			return nil, 0, err
		}
		if len(terms) == 0 {
			return nil, 0, fmt.Errorf("%w: AGGREGATION requires at least one kind(field) term", errs.ErrWrongArity)
		}

		return &Spec{BucketWidth: bucket, Terms: terms}, 1 + consumed, nil
	}

	// Legacy form: "<kind> <bucket_ms>", implicit field "value".
	kind, ok := format.AggKindFromString(strings.ToLower(tokens[0]))
	if !ok {
		return nil, 0, fmt.Errorf("%w: %q", errs.ErrUnknownAggregationKind, tokens[0])
	}

	if len(tokens) < 2 {
		return nil, 0, fmt.Errorf("%w: AGGREGATION %s requires a bucket width", errs.ErrWrongArity, tokens[0])
	}

	bucket, err := strconv.ParseInt(tokens[1], 10, 64)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: AGGREGATION bucket width %q", errs.ErrInvalidNumber, tokens[1])
	}

	return &Spec{BucketWidth: bucket, Terms: []Term{{Kind: kind, Field: "value"}}}, 2, nil
}

func parseFunctionalTerms(tokens []string) ([]Term, int, error) {
	var terms []Term
	i := 0
	for i < len(tokens) {
		m := termPattern.FindStringSubmatch(tokens[i])
		if m == nil {
			break
		}

		kind, ok := format.AggKindFromString(strings.ToLower(m[1]))
		if !ok {
			return nil, 0, fmt.Errorf("%w: %q", errs.ErrUnknownAggregationKind, m[1])
		}

		terms = append(terms, Term{Kind: kind, Field: m[2]})
		i++
	}

	return terms, i, nil
}
