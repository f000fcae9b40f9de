// Package errs defines the sentinel errors shared across the engine's
// components. Callers wrap these with fmt.Errorf("%w: ...", errs.ErrX, ...)
// so errors.Is keeps working while the message carries call-site detail.
package errs

import "errors"

var (
	// ErrUnknownVerb is returned when the dispatcher receives a verb name
	// that is not in the command table.
	ErrUnknownVerb = errors.New("unknown command")

	// ErrWrongArity is returned when a verb receives too few or too many
	// positional arguments.
	ErrWrongArity = errors.New("wrong number of arguments")

	// ErrUnknownOption is returned by the option parser for a keyword it
	// does not recognize.
	ErrUnknownOption = errors.New("unknown option")

	// ErrDuplicateOption is returned when an option keyword appears more
	// than once in a single argument list.
	ErrDuplicateOption = errors.New("option specified more than once")

	// ErrMutuallyExclusiveOptions is returned when LABELS and REDACT are
	// both supplied.
	ErrMutuallyExclusiveOptions = errors.New("mutually exclusive options specified together")

	// ErrInvalidNumber is returned when an argument expected to be a
	// decimal integer or float could not be parsed as one.
	ErrInvalidNumber = errors.New("value must be a number")

	// ErrUnknownAggregationKind is returned for an AGGREGATION kind token
	// outside the fixed set of thirteen kinds.
	ErrUnknownAggregationKind = errors.New("unknown aggregation kind")

	// ErrUnknownFormat is returned for a FORMAT value other than json or msgpack.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrUnknownStorage is returned for a STORAGE value other than
	// timeseries or hash.
	ErrUnknownStorage = errors.New("unknown storage target")

	// ErrFilterParse is returned when a FILTER expression does not match
	// any recognized operator or set-membership form.
	ErrFilterParse = errors.New("unable to parse expression")

	// ErrInvalidFieldName is returned when a record field name does not
	// match [A-Za-z_][A-Za-z0-9_]*.
	ErrInvalidFieldName = errors.New("invalid field name")

	// ErrNotARecord names a stored entry whose bytes cannot be decoded
	// as a packed record. No engine verb returns it: set and incrBy pass
	// the codec's ErrMalformedKey or ErrMalformedPack through instead.
	ErrNotARecord = errors.New("stored entry is not a record")

	// ErrNotIncrementable is returned when incrBy targets a field whose
	// stored value is not numeric.
	ErrNotIncrementable = errors.New("field value is not numeric")

	// ErrMalformedKey is an invariant violation: a stored key is missing
	// its timestamp separator, has a non-integer timestamp, or lacks a
	// valid flag byte.
	ErrMalformedKey = errors.New("malformed stored key")

	// ErrMalformedPack is an invariant violation: a packed record payload
	// is truncated or internally inconsistent.
	ErrMalformedPack = errors.New("truncated or corrupt packed record")

	// ErrDuplicateTimestamp is an invariant violation: more than one
	// stored key exists for a single timestamp.
	ErrDuplicateTimestamp = errors.New("more than one entry for timestamp")

	// ErrInvalidBound is returned when a range bound token is neither
	// '-', '+', '*', a bracketed literal, nor a decimal integer.
	ErrInvalidBound = errors.New("invalid range bound")

	// ErrNoSuchHashField is returned by hashget when the destination
	// key has no stored value at the requested field.
	ErrNoSuchHashField = errors.New("no such hash field")

	// ErrMalformedHashValue is an invariant violation: a stored
	// STORAGE hash value is missing its compression flag byte or carries
	// an unknown one.
	ErrMalformedHashValue = errors.New("stored hash value has missing or unknown flag byte")
)
