package query_test

import (
	"testing"

	"github.com/arloliu/tsengine/codec"
	"github.com/arloliu/tsengine/format"
	"github.com/arloliu/tsengine/query"
	"github.com/arloliu/tsengine/scalar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	opts, err := query.Parse(nil)
	require.NoError(t, err)
	assert.False(t, opts.HasLimit)
	assert.Equal(t, format.FormatNative, opts.Format)
	assert.Equal(t, format.StorageTimeseries, opts.Storage)
}

func TestParseLimit(t *testing.T) {
	opts, err := query.Parse([]string{"LIMIT", "5", "10"})
	require.NoError(t, err)
	assert.True(t, opts.HasLimit)
	assert.Equal(t, 5, opts.Offset)
	assert.Equal(t, 10, opts.Count)
}

func TestParseLimitBadNumber(t *testing.T) {
	_, err := query.Parse([]string{"LIMIT", "x", "10"})
	assert.Error(t, err)
}

func TestParseLabelsTerminatesAtKeyword(t *testing.T) {
	opts, err := query.Parse([]string{"LABELS", "item_id", "amount", "FORMAT", "json"})
	require.NoError(t, err)
	assert.True(t, opts.HasLabels)
	_, hasItemID := opts.Labels["item_id"]
	_, hasAmount := opts.Labels["amount"]
	assert.True(t, hasItemID)
	assert.True(t, hasAmount)
	assert.Equal(t, format.FormatJSON, opts.Format)
}

func TestParseLabelsRedactMutuallyExclusive(t *testing.T) {
	_, err := query.Parse([]string{"LABELS", "a", "REDACT", "b"})
	assert.Error(t, err)
}

func TestParseDuplicateOption(t *testing.T) {
	_, err := query.Parse([]string{"FORMAT", "json", "FORMAT", "msgpack"})
	assert.Error(t, err)
}

func TestParseUnknownOption(t *testing.T) {
	_, err := query.Parse([]string{"BOGUS"})
	assert.Error(t, err)
}

func TestParseUnknownFormatValue(t *testing.T) {
	_, err := query.Parse([]string{"FORMAT", "xml"})
	assert.Error(t, err)
}

func TestParseFilterMultiToken(t *testing.T) {
	opts, err := query.Parse([]string{"FILTER", "amount", ">", "100", "LIMIT", "0", "10"})
	require.NoError(t, err)
	require.True(t, opts.HasFilter)
	assert.True(t, opts.Filter(codec.Record{"amount": scalar.Int(200)}))
	assert.True(t, opts.HasLimit)
}

func TestParseAggregationFunctionalThenMoreOptions(t *testing.T) {
	opts, err := query.Parse([]string{"AGGREGATION", "10", "avg(value)", "sum(value)", "STORAGE", "hash"})
	require.NoError(t, err)
	require.True(t, opts.HasAggregation)
	assert.Equal(t, int64(10), opts.Aggregation.BucketWidth)
	assert.Len(t, opts.Aggregation.Terms, 2)
	assert.Equal(t, format.StorageHash, opts.Storage)
}

func TestParseAggregationLegacyForm(t *testing.T) {
	opts, err := query.Parse([]string{"AGGREGATION", "count", "10"})
	require.NoError(t, err)
	require.True(t, opts.HasAggregation)
	assert.Equal(t, int64(10), opts.Aggregation.BucketWidth)
	assert.Equal(t, "value", opts.Aggregation.Terms[0].Field)
}

func TestParseStorageUnknownValue(t *testing.T) {
	_, err := query.Parse([]string{"STORAGE", "bogus"})
	assert.Error(t, err)
}
