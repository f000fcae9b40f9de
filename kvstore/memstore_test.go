package kvstore_test

import (
	"testing"

	"github.com/arloliu/tsengine/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreOrderingAndLex(t *testing.T) {
	s := kvstore.NewMemStore()
	require.NoError(t, s.Add("series", []byte("20|n")))
	require.NoError(t, s.Add("series", []byte("5|n")))
	require.NoError(t, s.Add("series", []byte("10|n")))

	all, err := s.RangeByLex("series", "-", "+", 0, -1)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "10|n", string(all[0]))
	assert.Equal(t, "20|n", string(all[1]))
	assert.Equal(t, "5|n", string(all[2]))
}

func TestMemStoreDedupOnReAdd(t *testing.T) {
	s := kvstore.NewMemStore()
	require.NoError(t, s.Add("series", []byte("1|n")))
	require.NoError(t, s.Add("series", []byte("1|n")))
	n, err := s.Card("series")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemStoreRemRangeByLex(t *testing.T) {
	s := kvstore.NewMemStore()
	for _, m := range []string{"1|n", "2|n", "3|n", "4|n"} {
		require.NoError(t, s.Add("series", []byte(m)))
	}

	n, err := s.RemRangeByLex("series", "[2|", "(4|")
	require.NoError(t, err)
	assert.Equal(t, 2, n) // "2|n" and "3|n" fall in ["2|", "(4|") under lex compare of full members

	card, _ := s.Card("series")
	assert.Equal(t, 2, card)
}

func TestMemStoreRevRange(t *testing.T) {
	s := kvstore.NewMemStore()
	for _, m := range []string{"1|n", "2|n", "3|n"} {
		require.NoError(t, s.Add("series", []byte(m)))
	}

	rev, err := s.RevRangeByLex("series", "-", "+", 0, -1)
	require.NoError(t, err)
	require.Len(t, rev, 3)
	assert.Equal(t, "3|n", string(rev[0]))
	assert.Equal(t, "1|n", string(rev[2]))
}

func TestMemStoreHashStorage(t *testing.T) {
	s := kvstore.NewMemStore()
	require.NoError(t, s.HashSet("dest", "1000", []byte(`{"value":1}`)))
	v, ok := s.HashGet("dest", "1000")
	require.True(t, ok)
	assert.JSONEq(t, `{"value":1}`, string(v))
}
