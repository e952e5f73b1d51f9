package parena

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateInitializesLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	a, err := Create(path, 4096)
	require.NoError(t, err)
	defer a.Close()

	require.Equal(t, uint64(4096), a.Size())
	m := a.Metrics()
	require.Equal(t, uint64(4096), m.Size)
	require.Zero(t, m.Used)
}

func TestAllocateReturnsDistinctNonOverlappingHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	a, err := Create(path, 256)
	require.NoError(t, err)
	defer a.Close()

	h1, err := a.Allocate(16)
	require.NoError(t, err)
	h2, err := a.Allocate(16)
	require.NoError(t, err)

	require.NotEqual(t, h1, h2)
	require.GreaterOrEqual(t, uint64(h2), uint64(h1)+16)
}

func TestAllocateGrowsArenaBeyondInitialSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	a, err := Create(path, 64)
	require.NoError(t, err)
	defer a.Close()

	var last Offset
	for i := 0; i < 64; i++ {
		h, err := a.Allocate(32)
		require.NoError(t, err)
		last = h
	}

	require.Greater(t, a.Size(), uint64(64))
	buf := a.Deref(last, 32)
	require.Len(t, buf, 32)
}

func TestCloseThenOpenPreservesAllocations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	a, err := Create(path, 4096)
	require.NoError(t, err)

	h, err := a.Allocate(16)
	require.NoError(t, err)
	copy(a.Deref(h, 16), []byte("persisted-value!"))
	require.NoError(t, a.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, "persisted-value!", string(reopened.Deref(h, 16)))
}

func TestOpenRejectsUndersizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truncated.db")
	require.NoError(t, os.WriteFile(path, make([]byte, 4), 0o644))

	_, err := Open(path)
	require.Error(t, err)
}

func TestPoisonedArenaRejectsFurtherOperations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	a, err := Create(path, 256)
	require.NoError(t, err)
	defer a.Abandon()

	a.poisoned = true
	_, err = a.Allocate(8)
	require.ErrorIs(t, err, ErrPoisoned)
	require.ErrorIs(t, a.Sync(), ErrPoisoned)
}
