package parena

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeArenaConcurrentInsertsAllSucceed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safe.db")
	sa, err := NewSafeArena(path, 4096)
	require.NoError(t, err)
	defer sa.Close()

	idx, err := sa.CreateIndex(8)
	require.NoError(t, err)

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := []byte(fmt.Sprintf("w%d-k%d", w, i))
				_, err := idx.Insert(key)
				require.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, uint64(workers*perWorker), idx.Stats().Filled)
}

func TestSafeMultiMapConcurrentInsertsGroupCorrectly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safe-mm.db")
	sa, err := NewSafeArena(path, 4096)
	require.NoError(t, err)
	defer sa.Close()

	mm, err := sa.CreateMultiMap()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				value := []byte(fmt.Sprintf("v%d-%d", w, i))
				require.NoError(t, mm.Insert([]byte("shared-key"), value))
			}
		}(w)
	}
	wg.Wait()

	child, ok := mm.Child([]byte("shared-key"))
	require.True(t, ok)
	require.Equal(t, uint64(8*20), child.Stats().Filled)
}

func TestOpenSafeArenaRestoresPriorState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	sa, err := NewSafeArena(path, 4096)
	require.NoError(t, err)

	idx, err := sa.CreateIndex(8)
	require.NoError(t, err)
	_, err = idx.Insert([]byte("persisted"))
	require.NoError(t, err)
	header := idx.Header()
	require.NoError(t, sa.Close())

	reopened, err := OpenSafeArena(path)
	require.NoError(t, err)
	defer reopened.Close()

	idx2 := reopened.OpenIndex(header)
	_, ok := idx2.Lookup([]byte("persisted"))
	require.True(t, ok)
}
