package parena

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSingleValueMapReadBack covers the simplest end-to-end path: create,
// insert one key/value pair, read it back without reopening anything.
func TestSingleValueMapReadBack(t *testing.T) {
	a := newTestArena(t)
	idx, err := CreateIndex(a, 8)
	require.NoError(t, err)

	pos, err := idx.Insert(a, []byte("only-key"))
	require.NoError(t, err)
	copy(idx.ValueRef(a, pos), []byte("11111111"))

	got, err := idx.Get(a, []byte("only-key"))
	require.NoError(t, err)
	require.Equal(t, "11111111", string(got))
}

// TestGrowingMultiMapAcrossManyKeys inserts enough distinct outer keys
// that both the outer index and several nested indexes must rehash, and
// confirms every key and value is still reachable afterward.
func TestGrowingMultiMapAcrossManyKeys(t *testing.T) {
	a := newTestArena(t)
	m, err := CreateMultiMap(a)
	require.NoError(t, err)

	const outerKeys, valuesPer = 120, 6
	for i := 0; i < outerKeys; i++ {
		key := []byte(fmt.Sprintf("group-%04d", i))
		for j := 0; j < valuesPer; j++ {
			value := []byte(fmt.Sprintf("member-%02d", j))
			require.NoError(t, m.Insert(a, key, value))
		}
	}

	for i := 0; i < outerKeys; i++ {
		key := []byte(fmt.Sprintf("group-%04d", i))
		child, ok := m.Child(a, key)
		require.True(t, ok)
		require.Equal(t, uint64(valuesPer), child.Stats(a).Filled)
		for j := 0; j < valuesPer; j++ {
			_, ok := child.Lookup(a, []byte(fmt.Sprintf("member-%02d", j)))
			require.True(t, ok)
		}
	}
}

// TestPersistenceAcrossRemap writes enough data to force at least one
// Arena.Grow remap mid-run, then confirms every earlier handle still
// dereferences to the right bytes after the remap.
func TestPersistenceAcrossRemap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remap.db")
	a, err := Create(path, 64)
	require.NoError(t, err)
	defer a.Close()

	type entry struct {
		h     Offset
		value string
	}
	var entries []entry
	for i := 0; i < 200; i++ {
		value := fmt.Sprintf("entry-%05d", i)
		h, err := a.Allocate(uint64(len(value)))
		require.NoError(t, err)
		copy(a.Deref(h, uint64(len(value))), value)
		entries = append(entries, entry{h, value})
	}

	require.Greater(t, a.Size(), uint64(64), "the run must have triggered at least one Grow")
	for _, e := range entries {
		require.Equal(t, e.value, string(a.Deref(e.h, uint64(len(e.value)))))
	}
}

// TestRehashIsTransparentToCallers drives enough insertions to force
// several index rehashes and checks every key survives with its payload
// intact, independent of TestIndexSurvivesRehashWithAllKeysIntact's
// smaller run.
func TestRehashIsTransparentToCallers(t *testing.T) {
	a := newTestArena(t)
	idx, err := CreateIndex(a, 8)
	require.NoError(t, err)

	const n = 1000
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("rehash-%05d", i))
		pos, err := idx.Insert(a, key)
		require.NoError(t, err)
		copy(idx.ValueRef(a, pos), []byte(fmt.Sprintf("p%07d", i)))
	}

	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("rehash-%05d", i))
		got, err := idx.Get(a, key)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("p%07d", i), string(got))
	}
}

// TestAllocationBeyondInitialSize starts from a minimal region and
// allocates far past it, exercising repeated Grow calls from a single
// Arena across its whole lifetime.
func TestAllocationBeyondInitialSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beyond.db")
	a, err := Create(path, 64)
	require.NoError(t, err)
	defer a.Close()

	total := uint64(0)
	for i := 0; i < 2000; i++ {
		h, err := a.Allocate(48)
		require.NoError(t, err)
		total += 48
		_ = h
	}

	require.Greater(t, a.Size(), total)
	m := a.Metrics()
	require.Less(t, m.Free, 1.0)
}
