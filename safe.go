package parena

import (
	"iter"
	"sync"
)

// SafeArena is a mutex-protected facade over Arena, Index, and
// MultiMap for use from more than one goroutine. Neither Arena nor
// Index is reentrant or safe to share across goroutines on its own;
// spec.md's concurrency model calls for confining access to one
// thread or guarding the Arena and each Index it owns with a single
// exclusive lock per Arena — SafeArena is that lock, adapted from the
// teacher's SafeArena wrapper around the bump allocator.
type SafeArena struct {
	mu sync.Mutex
	a  *Arena
}

// NewSafeArena creates a fresh Arena at path and wraps it for
// concurrent use. See Create.
func NewSafeArena(path string, initialSize uint64) (*SafeArena, error) {
	a, err := Create(path, initialSize)
	if err != nil {
		return nil, err
	}
	return &SafeArena{a: a}, nil
}

// OpenSafeArena opens an existing Arena at path and wraps it for
// concurrent use. See Open.
func OpenSafeArena(path string) (*SafeArena, error) {
	a, err := Open(path)
	if err != nil {
		return nil, err
	}
	return &SafeArena{a: a}, nil
}

// Allocate thread-safely reserves size bytes and returns its handle.
func (s *SafeArena) Allocate(size uint64) (Offset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Allocate(size)
}

// Grow thread-safely extends the mapped region to at least newSize bytes.
func (s *SafeArena) Grow(newSize uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Grow(newSize)
}

// Sync thread-safely flushes the mapped region to disk.
func (s *SafeArena) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Sync()
}

// Close thread-safely syncs, unmaps, and closes the Arena.
func (s *SafeArena) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Close()
}

// Abandon thread-safely unmaps and closes without syncing.
func (s *SafeArena) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Abandon()
}

// Deref thread-safely returns a byte slice view of n bytes at handle
// h. As with Arena.Deref, the slice is only valid until the next
// operation that may Grow — here, that means until the next call
// through this SafeArena.
func (s *SafeArena) Deref(h Offset, n uint64) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Deref(h, n)
}

// Metrics thread-safely returns a snapshot of allocator statistics.
func (s *SafeArena) Metrics() ArenaMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Metrics()
}

// Size thread-safely returns the current mapped length in bytes.
func (s *SafeArena) Size() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Size()
}

// SafeIndex pairs an Index with the SafeArena that owns its storage,
// so every operation acquires the one lock that also guards the
// backing Arena.
type SafeIndex struct {
	s   *SafeArena
	idx *Index
}

// CreateIndex thread-safely creates a new Index in s.
func (s *SafeArena) CreateIndex(payloadWidth uint64) (*SafeIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := CreateIndex(s.a, payloadWidth)
	if err != nil {
		return nil, err
	}
	return &SafeIndex{s: s, idx: idx}, nil
}

// OpenIndex wraps an existing index header handle for thread-safe use
// through s.
func (s *SafeArena) OpenIndex(header Offset) *SafeIndex {
	return &SafeIndex{s: s, idx: OpenIndex(header)}
}

// Header returns the handle of the wrapped Index's header.
func (si *SafeIndex) Header() Offset { return si.idx.Header() }

// Lookup thread-safely searches for key.
func (si *SafeIndex) Lookup(key []byte) (uint64, bool) {
	si.s.mu.Lock()
	defer si.s.mu.Unlock()
	return si.idx.Lookup(si.s.a, key)
}

// Insert thread-safely inserts key if absent.
func (si *SafeIndex) Insert(key []byte) (uint64, error) {
	si.s.mu.Lock()
	defer si.s.mu.Unlock()
	return si.idx.Insert(si.s.a, key)
}

// ValueRef thread-safely returns the payload at pos. The returned
// slice must not be retained past the next call through si's
// SafeArena.
func (si *SafeIndex) ValueRef(pos uint64) []byte {
	si.s.mu.Lock()
	defer si.s.mu.Unlock()
	return si.idx.ValueRef(si.s.a, pos)
}

// KeyAt thread-safely returns the key bytes at pos.
func (si *SafeIndex) KeyAt(pos uint64) []byte {
	si.s.mu.Lock()
	defer si.s.mu.Unlock()
	return si.idx.KeyAt(si.s.a, pos)
}

// Stats thread-safely returns a statistics snapshot.
func (si *SafeIndex) Stats() IndexStats {
	si.s.mu.Lock()
	defer si.s.mu.Unlock()
	return si.idx.Stats(si.s.a)
}

// Enumerate holds si's lock for the entire traversal and yields every
// occupied bucket index in ascending order. The callback must not call
// back into si or its SafeArena — doing so would deadlock on the same
// mutex.
func (si *SafeIndex) Enumerate() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		si.s.mu.Lock()
		defer si.s.mu.Unlock()
		for pos := range si.idx.Enumerate(si.s.a) {
			if !yield(pos) {
				return
			}
		}
	}
}

// SafeMultiMap pairs a MultiMap with the SafeArena that owns its
// storage.
type SafeMultiMap struct {
	s *SafeArena
	m *MultiMap
}

// CreateMultiMap thread-safely creates a new MultiMap in s.
func (s *SafeArena) CreateMultiMap() (*SafeMultiMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := CreateMultiMap(s.a)
	if err != nil {
		return nil, err
	}
	return &SafeMultiMap{s: s, m: m}, nil
}

// Insert thread-safely adds value to the set stored under key.
func (sm *SafeMultiMap) Insert(key, value []byte) error {
	sm.s.mu.Lock()
	defer sm.s.mu.Unlock()
	return sm.m.Insert(sm.s.a, key, value)
}

// Child thread-safely returns the nested Index stored under key.
func (sm *SafeMultiMap) Child(key []byte) (*SafeIndex, bool) {
	sm.s.mu.Lock()
	defer sm.s.mu.Unlock()
	child, ok := sm.m.Child(sm.s.a, key)
	if !ok {
		return nil, false
	}
	return &SafeIndex{s: sm.s, idx: child}, true
}

// Outer returns the multi-map's outer Index as a SafeIndex.
func (sm *SafeMultiMap) Outer() *SafeIndex {
	return &SafeIndex{s: sm.s, idx: sm.m.Outer()}
}

// ChildAt thread-safely returns the nested Index stored in the outer
// bucket at pos.
func (sm *SafeMultiMap) ChildAt(pos uint64) *SafeIndex {
	sm.s.mu.Lock()
	defer sm.s.mu.Unlock()
	return &SafeIndex{s: sm.s, idx: sm.m.ChildAt(sm.s.a, pos)}
}
