package codec_test

import (
	"testing"

	"github.com/arloliu/tsengine/codec"
	"github.com/arloliu/tsengine/scalar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := codec.Record{
		"item_id":  scalar.String("cat-987H1"),
		"cust_id":  scalar.String("9A12YK2"),
		"amount":   scalar.Int(2500),
		"verified": scalar.Bool(true),
		"note":     scalar.Null,
	}

	key, err := codec.EncodeKey(1564632000000, rec)
	require.NoError(t, err)

	ts, got, flag, err := codec.DecodeKey(key)
	require.NoError(t, err)
	assert.Equal(t, int64(1564632000000), ts)
	assert.Equal(t, codec.FlagInt, flag)
	assert.Equal(t, rec, got)
}

func TestFlagByteFloatDetection(t *testing.T) {
	intLike := codec.Record{"value": scalar.Float(5)}
	key, err := codec.EncodeKey(1, intLike)
	require.NoError(t, err)
	_, _, flag, err := codec.DecodeKey(key)
	require.NoError(t, err)
	assert.Equal(t, codec.FlagInt, flag)

	fractional := codec.Record{"value": scalar.Float(5.5)}
	key, err = codec.EncodeKey(1, fractional)
	require.NoError(t, err)
	_, _, flag, err = codec.DecodeKey(key)
	require.NoError(t, err)
	assert.Equal(t, codec.FlagFloat, flag)
}

func TestDecodeKeyMalformed(t *testing.T) {
	_, _, _, err := codec.DecodeKey([]byte("no-separator-here"))
	assert.Error(t, err)

	_, _, _, err = codec.DecodeKey([]byte("abc|n"))
	assert.Error(t, err) // non-numeric timestamp

	_, _, _, err = codec.DecodeKey([]byte("5|n"))
	assert.Error(t, err) // truncated pack (missing count bytes)
}

func TestValidateFieldName(t *testing.T) {
	assert.NoError(t, codec.ValidateFieldName("item_id"))
	assert.NoError(t, codec.ValidateFieldName("_private9"))
	assert.Error(t, codec.ValidateFieldName("9bad"))
	assert.Error(t, codec.ValidateFieldName("has-dash"))
	assert.Error(t, codec.ValidateFieldName(""))
}

func TestRecordProject(t *testing.T) {
	rec := codec.Record{
		"item_id": scalar.String("cat-987H1"),
		"amount":  scalar.Int(2500),
		"cust_id": scalar.String("9A12YK2"),
	}

	labels := rec.Project(map[string]struct{}{"item_id": {}, "amount": {}}, nil)
	assert.Equal(t, codec.Record{"item_id": scalar.String("cat-987H1"), "amount": scalar.Int(2500)}, labels)

	redacted := rec.Project(nil, map[string]struct{}{"cust_id": {}})
	assert.Equal(t, codec.Record{"item_id": scalar.String("cat-987H1"), "amount": scalar.Int(2500)}, redacted)
}

func TestRecordMerge(t *testing.T) {
	base := codec.Record{"active": scalar.Int(1), "failed": scalar.Int(4)}
	merged := base.Merge(codec.Record{"active": scalar.Float(3.5)})
	assert.Equal(t, scalar.Float(3.5), merged["active"])
	assert.Equal(t, scalar.Int(4), merged["failed"])
	// base is untouched
	assert.Equal(t, scalar.Int(1), base["active"])
}

func TestTimestampPrefixFormat(t *testing.T) {
	// Mixed-width timestamps must not be compared as raw strings; the
	// range translator relies on TimestampPrefix only for exact-prefix
	// matching, not ordering across widths.
	assert.Equal(t, "9|", codec.TimestampPrefix(9))
	assert.Equal(t, "10|", codec.TimestampPrefix(10))
}
