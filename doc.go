// Package parena implements an embeddable persistent associative
// container: a relocatable arena allocator over a growable
// memory-mapped file, and a Robin Hood open-addressing hash index and
// multi-map built on top of it.
//
// # Overview
//
// The entire state of the container — region metadata, the allocation
// chain, interned key bytes, and hash buckets — lives inside a single
// file. Closing an Arena flushes the mapping; re-opening the file with
// Open restores every prior insertion without a separate serialization
// pass, because there is nothing to serialize: the mapped bytes are
// the data structure.
//
// # Basic usage
//
//	a, err := parena.Create("/tmp/store.db", 4096)
//	if err != nil {
//		...
//	}
//	defer a.Close()
//
//	idx, err := parena.CreateIndex(a, 8)
//	pos, err := idx.Insert(a, []byte("key0"))
//	copy(idx.ValueRef(a, pos), []byte("value00("))
//
// Re-opening a previously closed arena and its indexes:
//
//	a, err := parena.Open("/tmp/store.db")
//	idx := parena.OpenIndex(savedHeaderHandle)
//	pos, ok := idx.Lookup(a, []byte("key0"))
//
// # Handles, not pointers
//
// Every cross-structure reference in the file is an Offset: a byte
// offset from the mapped region's base, never a raw address. Growing
// an Arena may remap the region at a different virtual address; only
// Offset handles survive that. A raw pointer obtained from Deref or
// ValueRef must never be retained across a call that may allocate.
//
// # Thread safety
//
// Arena, Index, and MultiMap are not safe for concurrent use. For
// access from more than one goroutine, wrap the Arena in a SafeArena,
// which serializes every reachable operation behind a single mutex:
//
//	sa, err := parena.NewSafeArena("/tmp/store.db", 4096)
//	defer sa.Close()
//	idx, err := sa.CreateIndex(8)
//	pos, err := idx.Insert([]byte("key0"))
//
// # Error handling
//
// Filesystem and mmap failures surface as *IoError, and allocation
// requests that would overflow the region-size arithmetic return
// *CapacityError; either one poisons the Arena. Once poisoned,
// Allocate, Grow, Sync and Close return ErrPoisoned, and so does any
// Index or MultiMap operation that needs to allocate. Methods that
// return no error (Deref, Size, Metrics, Lookup, KeyAt, Enumerate) do
// not check the poisoned state.
// Lookup misses are reported via a boolean, not an error — absence is
// an ordinary outcome.
package parena
