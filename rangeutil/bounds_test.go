package rangeutil_test

import (
	"testing"

	"github.com/arloliu/tsengine/rangeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateNumericAscending(t *testing.T) {
	min, max, err := rangeutil.Translate("10", "50", nil)
	require.NoError(t, err)
	assert.Equal(t, "[10|", min)
	assert.Equal(t, "(51|", max)
}

func TestTranslateNumericReversedFudge(t *testing.T) {
	min, max, err := rangeutil.Translate("50", "10", nil)
	require.NoError(t, err)
	assert.Equal(t, "[50|", min)
	assert.Equal(t, "(9|", max)
}

func TestTranslatePassthroughTokens(t *testing.T) {
	min, max, err := rangeutil.Translate("-", "+", nil)
	require.NoError(t, err)
	assert.Equal(t, "-", min)
	assert.Equal(t, "+", max)

	min, max, err = rangeutil.Translate("[foo", "(bar", nil)
	require.NoError(t, err)
	assert.Equal(t, "[foo", min)
	assert.Equal(t, "(bar", max)
}

func TestTranslateStarSubstitution(t *testing.T) {
	clock := func() int64 { return 1700000000 }
	min, max, err := rangeutil.Translate("-", "*", clock)
	require.NoError(t, err)
	assert.Equal(t, "-", min)
	assert.Equal(t, "(1700000001|", max)
}

func TestTranslateInvalidBound(t *testing.T) {
	_, _, err := rangeutil.Translate("not-a-number", "+", nil)
	assert.Error(t, err)
}

func TestPointBounds(t *testing.T) {
	min, max := rangeutil.PointBounds(1000)
	assert.Equal(t, "[1000|", min)
	assert.Equal(t, "(1001|", max)
}
