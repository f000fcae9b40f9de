// Package codec implements spec.md §4.1: the bijective encoding between
// a (timestamp, record) entry and the single ordered byte-string key
// the host store holds, plus the record pack/unpack that key embeds.
package codec

import (
	"fmt"
	"strconv"

	"github.com/arloliu/tsengine/endian"
	"github.com/arloliu/tsengine/errs"
	"github.com/arloliu/tsengine/internal/pool"
)

// Separator is the fixed one-byte delimiter between the decimal
// timestamp and the flag+pack payload, per spec.md §3.
const Separator = '|'

const (
	FlagFloat byte = 'f' // at least one non-integer float in the record
	FlagInt   byte = 'n' // no non-integer floats
)

// DefaultEngine is the byte order used for every multi-byte integer in
// the packed record payload. Only little-endian is exercised by the
// engine; it is exposed as a variable (not a constant) so tests can
// swap in endian.GetBigEndianEngine() to prove the codec is endian-
// engine-driven rather than hardcoded, matching the teacher's own
// NewNumericRawEncoder(engine) pattern.
var DefaultEngine = endian.GetLittleEndianEngine()

// EncodeKey renders (ts, rec) as the ordered-store key
// "<decimal-ts>|<flag><pack>" described in spec.md §3 and §6.
func EncodeKey(ts int64, rec Record) ([]byte, error) {
	return EncodeKeyWithEngine(ts, rec, DefaultEngine)
}

// EncodeKeyWithEngine is EncodeKey parameterized over the endian engine
// used to pack multi-byte scalars.
func EncodeKeyWithEngine(ts int64, rec Record, engine endian.EndianEngine) ([]byte, error) {
	packed, err := packRecord(rec, engine)
	if err != nil {
		return nil, err
	}

	flag := FlagInt
	if rec.hasFloatValue() {
		flag = FlagFloat
	}

	buf := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(buf)

	buf.MustWrite(strconv.AppendInt(nil, ts, 10))
	buf.MustWrite([]byte{Separator, flag})
	buf.MustWrite(packed)

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}

// DecodeKey is the inverse of EncodeKey. Per spec.md §4.1, a missing
// separator, a non-numeric timestamp, or a truncated pack are all fatal
// invariant violations, not ordinary errors.
func DecodeKey(key []byte) (ts int64, rec Record, flag byte, err error) {
	return DecodeKeyWithEngine(key, DefaultEngine)
}

// DecodeKeyWithEngine is DecodeKey parameterized over the endian engine.
func DecodeKeyWithEngine(key []byte, engine endian.EndianEngine) (ts int64, rec Record, flag byte, err error) {
	sep := -1
	for i, b := range key {
		if b == Separator {
			sep = i
			break
		}
	}
	if sep < 0 {
		return 0, nil, 0, errs.ErrMalformedKey
	}

	ts, perr := strconv.ParseInt(string(key[:sep]), 10, 64)
	if perr != nil {
		return 0, nil, 0, fmt.Errorf("%w: timestamp %q is not an integer", errs.ErrMalformedKey, key[:sep])
	}

	if len(key) < sep+2 {
		return 0, nil, 0, fmt.Errorf("%w: missing flag byte", errs.ErrMalformedKey)
	}
	flag = key[sep+1]
	if flag != FlagFloat && flag != FlagInt {
		return 0, nil, 0, fmt.Errorf("%w: invalid flag byte 0x%02x", errs.ErrMalformedKey, flag)
	}

	rec, err = unpackRecord(key[sep+2:], engine)
	if err != nil {
		return 0, nil, 0, err
	}

	return ts, rec, flag, nil
}

// TimestampPrefix returns the "<decimal-ts>|" prefix used by the range
// translator (package rangeutil) to build lexicographic bounds that
// include every key for a single timestamp regardless of payload width,
// per spec.md §3's ordering invariant.
func TimestampPrefix(ts int64) string {
	return strconv.FormatInt(ts, 10) + string(Separator)
}
