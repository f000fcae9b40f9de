package kvstore

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
)

// MemStore is a minimal in-memory Store used by the engine's tests and
// its demo binary. It is not a production store: spec.md §1 explicitly
// places the ordered-key store itself out of scope, and no example in
// the reference pack ships an ordered-map/skip-list data structure, so
// this reference implementation is deliberately the simplest thing
// that satisfies the Store contract — a sorted slice per series with
// binary-search insert and linear-scan remove. Production hosts are expected to back
// Store with a real LSM/B-tree engine (e.g. the ordered-key primitives
// several pack repos build on top of).
type MemStore struct {
	mu     sync.Mutex
	series map[string][][]byte
	hashes map[string]map[string][]byte
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		series: make(map[string][][]byte),
		hashes: make(map[string]map[string][]byte),
	}
}

var _ Store = (*MemStore)(nil)

func (m *MemStore) Add(series string, member []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := m.series[series]
	idx := sort.Search(len(members), func(i int) bool {
		return bytes.Compare(members[i], member) >= 0
	})
	if idx < len(members) && bytes.Equal(members[idx], member) {
		return nil
	}

	members = append(members, nil)
	copy(members[idx+1:], members[idx:])
	cp := make([]byte, len(member))
	copy(cp, member)
	members[idx] = cp
	m.series[series] = members

	return nil
}

func (m *MemStore) Remove(series string, toRemove ...[]byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members := m.series[series]
	if len(members) == 0 {
		return 0, nil
	}

	removeSet := make(map[string]struct{}, len(toRemove))
	for _, r := range toRemove {
		removeSet[string(r)] = struct{}{}
	}

	kept := members[:0]
	removed := 0
	for _, mem := range members {
		if _, drop := removeSet[string(mem)]; drop {
			removed++
			continue
		}
		kept = append(kept, mem)
	}

	if len(kept) == 0 {
		delete(m.series, series)
	} else {
		m.series[series] = kept
	}

	return removed, nil
}

func (m *MemStore) RangeByLex(series, min, max string, offset, limit int) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lo, hi, err := parseBoundPair(min, max)
	if err != nil {
		return nil, err
	}

	var out [][]byte
	skipped := 0
	for _, mem := range m.series[series] {
		if !lo.below(mem) || !hi.above(mem) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit >= 0 && len(out) >= limit {
			break
		}
		out = append(out, mem)
	}

	return out, nil
}

func (m *MemStore) RevRangeByLex(series, min, max string, offset, limit int) ([][]byte, error) {
	fwd, err := m.RangeByLex(series, min, max, 0, -1)
	if err != nil {
		return nil, err
	}

	reversed := make([][]byte, len(fwd))
	for i, v := range fwd {
		reversed[len(fwd)-1-i] = v
	}

	if offset > len(reversed) {
		offset = len(reversed)
	}
	reversed = reversed[offset:]

	if limit >= 0 && limit < len(reversed) {
		reversed = reversed[:limit]
	}

	return reversed, nil
}

func (m *MemStore) LexCount(series, min, max string) (int, error) {
	matches, err := m.RangeByLex(series, min, max, 0, -1)
	if err != nil {
		return 0, err
	}

	return len(matches), nil
}

func (m *MemStore) RemRangeByLex(series, min, max string) (int, error) {
	m.mu.Lock()
	members := m.series[series]
	m.mu.Unlock()

	lo, hi, err := parseBoundPair(min, max)
	if err != nil {
		return 0, err
	}

	var victims [][]byte
	for _, mem := range members {
		if lo.below(mem) && hi.above(mem) {
			victims = append(victims, mem)
		}
	}

	return m.Remove(series, victims...)
}

func (m *MemStore) Card(series string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.series[series]), nil
}

func (m *MemStore) HashSet(destKey, field string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.hashes[destKey]
	if !ok {
		h = make(map[string][]byte)
		m.hashes[destKey] = h
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	h[field] = cp

	return nil
}

// HashGet implements Store's hashget accessor: it returns the raw
// bytes previously written by HashSet for destKey/field.
func (m *MemStore) HashGet(destKey, field string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.hashes[destKey]
	if !ok {
		return nil, false
	}
	v, ok := h[field]

	return v, ok
}

// bound is a parsed lexicographic range endpoint.
type bound struct {
	negInf, posInf bool
	inclusive      bool
	value          []byte
}

func (b bound) below(mem []byte) bool {
	if b.negInf {
		return true
	}
	if b.posInf {
		return false
	}
	c := bytes.Compare(b.value, mem)
	if b.inclusive {
		return c <= 0
	}

	return c < 0
}

func (b bound) above(mem []byte) bool {
	if b.posInf {
		return true
	}
	if b.negInf {
		return false
	}
	c := bytes.Compare(mem, b.value)
	if b.inclusive {
		return c <= 0
	}

	return c < 0
}

func parseBound(tok string) (bound, error) {
	switch {
	case tok == "-":
		return bound{negInf: true}, nil
	case tok == "+":
		return bound{posInf: true}, nil
	case len(tok) >= 1 && tok[0] == '[':
		return bound{inclusive: true, value: []byte(tok[1:])}, nil
	case len(tok) >= 1 && tok[0] == '(':
		return bound{inclusive: false, value: []byte(tok[1:])}, nil
	default:
		return bound{}, fmt.Errorf("kvstore: invalid lex bound %q", tok)
	}
}

func parseBoundPair(min, max string) (lo, hi bound, err error) {
	lo, err = parseBound(min)
	if err != nil {
		return bound{}, bound{}, err
	}
	hi, err = parseBound(max)
	if err != nil {
		return bound{}, bound{}, err
	}

	return lo, hi, nil
}
