package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"regexp"

	"github.com/arloliu/tsengine/endian"
	"github.com/arloliu/tsengine/errs"
	"github.com/arloliu/tsengine/internal/pool"
	"github.com/arloliu/tsengine/scalar"
)

// Record is the unordered mapping from field name to scalar value
// described in spec.md §3. Field order is never meaningful and is not
// preserved across a pack/unpack round trip.
type Record map[string]scalar.Value

// fieldNamePattern is spec.md §3's record field-name grammar.
var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateFieldName reports an error unless name matches
// [A-Za-z_][A-Za-z0-9_]*.
func ValidateFieldName(name string) error {
	if !fieldNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", errs.ErrInvalidFieldName, name)
	}

	return nil
}

// wire type tags for packed scalar values. These are internal to the
// codec; they are not part of the spec's observable surface.
const (
	tagNull   byte = 0x00
	tagBool   byte = 0x01
	tagInt    byte = 0x02
	tagFloat  byte = 0x03
	tagString byte = 0x04
)

// hasFloatValue reports whether r contains at least one non-integer
// floating-point value, the exact condition spec.md §3/§4.1 uses to
// cache the entry's flag byte ('f' vs 'n').
func (r Record) hasFloatValue() bool {
	for _, v := range r {
		if v.IsFloatValued() {
			return true
		}
	}

	return false
}

// packRecord renders r as the length-prefixed "[name, value, name,
// value, ...]" binary payload described in spec.md §3 and §6, using the
// teacher's pooled-buffer / endian-engine idiom (see
// internal/encoding.EncodeMetricNames and encoding.NumericRawEncoder in
// the example pack) adapted from fixed columnar arrays to a
// self-delimiting heterogeneous key/value sequence.
func packRecord(r Record, engine endian.EndianEngine) ([]byte, error) {
	for name := range r {
		if err := ValidateFieldName(name); err != nil {
			return nil, err
		}
	}

	buf := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(buf)

	var countBytes [2]byte
	engine.PutUint16(countBytes[:], uint16(len(r))) //nolint:gosec
	buf.MustWrite(countBytes[:])

	var tmp [binary.MaxVarintLen64]byte
	for name, v := range r {
		var lenBytes [2]byte
		engine.PutUint16(lenBytes[:], uint16(len(name))) //nolint:gosec
		buf.MustWrite(lenBytes[:])
		buf.MustWrite([]byte(name))

		switch v.Kind {
		case scalar.KindNull:
			buf.MustWrite([]byte{tagNull})
		case scalar.KindBool:
			b := byte(0)
			if v.B {
				b = 1
			}
			buf.MustWrite([]byte{tagBool, b})
		case scalar.KindInt:
			n := binary.PutVarint(tmp[:], v.I)
			buf.MustWrite([]byte{tagInt})
			buf.MustWrite(tmp[:n])
		case scalar.KindFloat:
			var fbytes [8]byte
			engine.PutUint64(fbytes[:], math.Float64bits(v.F))
			buf.MustWrite([]byte{tagFloat})
			buf.MustWrite(fbytes[:])
		case scalar.KindString:
			if len(v.S) > 65535 {
				return nil, fmt.Errorf("field %q string value exceeds maximum length 65535 bytes", name)
			}
			var slen [2]byte
			engine.PutUint16(slen[:], uint16(len(v.S))) //nolint:gosec
			buf.MustWrite([]byte{tagString})
			buf.MustWrite(slen[:])
			buf.MustWrite([]byte(v.S))
		default:
			return nil, fmt.Errorf("field %q has unrecognized scalar kind %v", name, v.Kind)
		}
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())

	return out, nil
}

// unpackRecord is the inverse of packRecord. A malformed payload is a
// fatal invariant violation per spec.md §4.1 ("truncated pack").
func unpackRecord(data []byte, engine endian.EndianEngine) (Record, error) {
	if len(data) < 2 {
		return nil, fmt.Errorf("%w: cannot read field count", errs.ErrMalformedPack)
	}

	count := int(engine.Uint16(data))
	offset := 2

	rec := make(Record, count)
	for i := 0; i < count; i++ {
		if len(data) < offset+2 {
			return nil, fmt.Errorf("%w: cannot read name length for field %d", errs.ErrMalformedPack, i)
		}
		nameLen := int(engine.Uint16(data[offset:]))
		offset += 2

		if len(data) < offset+nameLen+1 {
			return nil, fmt.Errorf("%w: truncated name or tag for field %d", errs.ErrMalformedPack, i)
		}
		name := string(data[offset : offset+nameLen])
		offset += nameLen

		tag := data[offset]
		offset++

		var v scalar.Value
		switch tag {
		case tagNull:
			v = scalar.Null
		case tagBool:
			if len(data) < offset+1 {
				return nil, fmt.Errorf("%w: truncated bool for field %q", errs.ErrMalformedPack, name)
			}
			v = scalar.Bool(data[offset] != 0)
			offset++
		case tagInt:
			n, nbytes := binary.Varint(data[offset:])
			if nbytes <= 0 {
				return nil, fmt.Errorf("%w: truncated int for field %q", errs.ErrMalformedPack, name)
			}
			v = scalar.Int(n)
			offset += nbytes
		case tagFloat:
			if len(data) < offset+8 {
				return nil, fmt.Errorf("%w: truncated float for field %q", errs.ErrMalformedPack, name)
			}
			v = scalar.Float(math.Float64frombits(engine.Uint64(data[offset:])))
			offset += 8
		case tagString:
			if len(data) < offset+2 {
				return nil, fmt.Errorf("%w: truncated string length for field %q", errs.ErrMalformedPack, name)
			}
			slen := int(engine.Uint16(data[offset:]))
			offset += 2
			if len(data) < offset+slen {
				return nil, fmt.Errorf("%w: truncated string for field %q", errs.ErrMalformedPack, name)
			}
			v = scalar.String(string(data[offset : offset+slen]))
			offset += slen
		default:
			return nil, fmt.Errorf("%w: unrecognized scalar tag 0x%02x for field %q", errs.ErrMalformedPack, tag, name)
		}

		rec[name] = v
	}

	return rec, nil
}

// Clone returns a shallow copy of r. Values are immutable, so a
// shallow copy is a full copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}

	return out
}

// Merge returns a new record that is r with patch's fields applied on
// top (used by the "set" verb's upsert-merge semantics).
func (r Record) Merge(patch Record) Record {
	out := r.Clone()
	for k, v := range patch {
		out[k] = v
	}

	return out
}

// Project applies the LABELS (include-only) / REDACT (exclude)
// transform described in spec.md §4.4's GLOSSARY entry "Projection".
// Exactly one of labels/redact should be non-nil; if both are nil, r is
// returned unchanged.
func (r Record) Project(labels, redact map[string]struct{}) Record {
	switch {
	case labels != nil:
		out := make(Record, len(labels))
		for name := range labels {
			if v, ok := r[name]; ok {
				out[name] = v
			}
		}

		return out
	case redact != nil:
		out := make(Record, len(r))
		for k, v := range r {
			if _, excluded := redact[k]; !excluded {
				out[k] = v
			}
		}

		return out
	default:
		return r
	}
}
