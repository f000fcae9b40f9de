// Package query implements spec.md §4.4's option parser: a small
// token-scanning state machine that turns the tail of a verb's
// argument list into a query.Options builder. It is modeled on the
// teacher's internal/options idea of sequentially applying
// configuration to a struct, adapted from "apply functional options"
// to "scan recognized keyword tokens and mutate a builder in place".
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/tsengine/aggregate"
	"github.com/arloliu/tsengine/errs"
	"github.com/arloliu/tsengine/filter"
	"github.com/arloliu/tsengine/format"
)

// Options is the fully parsed option set trailing a verb's positional
// arguments.
type Options struct {
	HasLimit bool
	Offset   int
	Count    int

	HasFilter bool
	Filter    filter.Predicate

	HasAggregation bool
	Aggregation    *aggregate.Spec

	HasLabels bool
	Labels    map[string]struct{}

	HasRedact bool
	Redact    map[string]struct{}

	HasFormat bool
	Format    format.OutputFormat

	HasStorage bool
	Storage    format.StorageTarget
}

var keywords = map[string]bool{
	"LIMIT": true, "AGGREGATION": true, "FILTER": true,
	"LABELS": true, "REDACT": true, "FORMAT": true, "STORAGE": true,
}

func isKeyword(tok string) bool {
	return keywords[strings.ToUpper(tok)]
}

// Parse scans args left to right, dispatching on a case-insensitive
// recognized keyword at each position. Defaults are FORMAT native and
// STORAGE timeseries (Options.HasFormat/.HasStorage report whether the
// caller explicitly supplied either).
func Parse(args []string) (*Options, error) {
	opts := &Options{Format: format.FormatNative, Storage: format.StorageTimeseries}

	i := 0
	for i < len(args) {
		kw := strings.ToUpper(args[i])
		switch kw {
		case "LIMIT":
			if opts.HasLimit {
				return nil, duplicateOption("LIMIT")
			}
			if i+2 >= len(args) {
				return nil, wrongArity("LIMIT requires an offset and a count")
			}
			offset, err := strconv.Atoi(args[i+1])
			if err != nil {
				return nil, fmt.Errorf("%w: LIMIT offset value must be a number", errs.ErrInvalidNumber)
			}
			count, err := strconv.Atoi(args[i+2])
			if err != nil {
				return nil, fmt.Errorf("%w: LIMIT count value must be a number", errs.ErrInvalidNumber)
			}
			opts.HasLimit, opts.Offset, opts.Count = true, offset, count
			i += 3

		case "AGGREGATION":
			if opts.HasAggregation {
				return nil, duplicateOption("AGGREGATION")
			}
			spec, consumed, err := aggregate.ParseSpec(args[i+1:])
			if err != nil {
				return nil, err
			}
			opts.HasAggregation, opts.Aggregation = true, spec
			i += 1 + consumed

		case "FILTER":
			if opts.HasFilter {
				return nil, duplicateOption("FILTER")
			}
			tokens, consumed := collectUntilKeyword(args[i+1:])
			if len(tokens) == 0 {
				return nil, wrongArity("FILTER requires an expression")
			}
			pred, err := filter.Parse(strings.Join(tokens, " "))
			if err != nil {
				return nil, fmt.Errorf("%w: unable to parse expression : %v", errs.ErrFilterParse, err)
			}
			opts.HasFilter, opts.Filter = true, pred
			i += 1 + consumed

		case "LABELS":
			if opts.HasLabels {
				return nil, duplicateOption("LABELS")
			}
			if opts.HasRedact {
				return nil, mutuallyExclusive()
			}
			names, consumed := collectUntilKeyword(args[i+1:])
			opts.HasLabels, opts.Labels = true, toSet(names)
			i += 1 + consumed

		case "REDACT":
			if opts.HasRedact {
				return nil, duplicateOption("REDACT")
			}
			if opts.HasLabels {
				return nil, mutuallyExclusive()
			}
			names, consumed := collectUntilKeyword(args[i+1:])
			opts.HasRedact, opts.Redact = true, toSet(names)
			i += 1 + consumed

		case "FORMAT":
			if opts.HasFormat {
				return nil, duplicateOption("FORMAT")
			}
			if i+1 >= len(args) {
				return nil, wrongArity("FORMAT requires a value")
			}
			switch strings.ToLower(args[i+1]) {
			case "json":
				opts.Format = format.FormatJSON
			case "msgpack":
				opts.Format = format.FormatMsgpack
			default:
				return nil, fmt.Errorf("%w: FORMAT %q", errs.ErrUnknownFormat, args[i+1])
			}
			opts.HasFormat = true
			i += 2

		case "STORAGE":
			if opts.HasStorage {
				return nil, duplicateOption("STORAGE")
			}
			if i+1 >= len(args) {
				return nil, wrongArity("STORAGE requires a value")
			}
			switch strings.ToLower(args[i+1]) {
			case "timeseries":
				opts.Storage = format.StorageTimeseries
			case "hash":
				opts.Storage = format.StorageHash
			default:
				return nil, fmt.Errorf("%w: STORAGE %q", errs.ErrUnknownStorage, args[i+1])
			}
			opts.HasStorage = true
			i += 2

		default:
			return nil, fmt.Errorf("%w: %q", errs.ErrUnknownOption, args[i])
		}
	}

	return opts, nil
}

// collectUntilKeyword gathers tokens up to (but not including) the
// next recognized option keyword or the end of args, per spec.md
// §4.4's "lists terminate at the next recognized option keyword".
func collectUntilKeyword(rest []string) (tokens []string, consumed int) {
	for consumed < len(rest) && !isKeyword(rest[consumed]) {
		tokens = append(tokens, rest[consumed])
		consumed++
	}

	return tokens, consumed
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	return set
}

func duplicateOption(name string) error {
	return fmt.Errorf("%w: %s supplied more than once", errs.ErrDuplicateOption, name)
}

func wrongArity(msg string) error {
	return fmt.Errorf("%w: %s", errs.ErrWrongArity, msg)
}

func mutuallyExclusive() error {
	return fmt.Errorf("%w: LABELS and REDACT cannot both be supplied", errs.ErrMutuallyExclusiveOptions)
}
