package parena

import (
	"bytes"
	"iter"
	"unsafe"
)

// indexHeader is itself an arena allocation. Every method that may
// cause an allocation (which may Grow the Arena, which may remap it)
// re-derives this pointer afterward via Index.headerPtr rather than
// holding it across the call — the header's handle is stable, a raw
// pointer to it is not.
type indexHeader struct {
	BucketCount uint64
	BucketSize  uint64
	Filled      uint64
	MaxDist     uint64
	Buckets     Offset
}

// bucketDescriptor occupies the first bytes of every bucket slot. The
// slot's payload (bucketSize - bucketDescriptorSize bytes) follows
// immediately after it. Hash == 0 marks an empty slot; hashKey never
// produces 0, so this is unambiguous.
type bucketDescriptor struct {
	Hash uint64
	Key  Offset
}

// Index is a Robin Hood open-addressing hash map from NUL-terminated
// byte-string keys to a fixed-width payload, entirely backed by three
// arena allocations: the header, the bucket array, and the interned
// key bytes. Index carries no in-memory state beyond the header's
// handle — every read re-derives pointers through the owning Arena, so
// an Index is as persistent and relocation-safe as the Arena itself.
type Index struct {
	header Offset
}

// CreateIndex allocates a new Index in a with the given fixed payload
// width (0 for a payload-less set). The header and bucket-array
// allocations are acquired in that order because the second may grow
// the arena and remap it; the header handle, not a pointer to it, is
// what survives that.
func CreateIndex(a *Arena, payloadWidth uint64) (*Index, error) {
	headerOff, err := a.Allocate(indexHeaderSize)
	if err != nil {
		return nil, err
	}

	idx := &Index{header: headerOff}
	h := idx.headerPtr(a)
	h.BucketCount = 2
	h.BucketSize = bucketDescriptorSize + payloadWidth
	h.Filled = 0
	h.MaxDist = 0

	bucketsOff, err := a.Allocate(h.BucketCount * h.BucketSize)
	if err != nil {
		return nil, err
	}
	h = idx.headerPtr(a) // re-derive: the allocation above may have grown the arena
	h.Buckets = bucketsOff
	clear(a.data[uint64(bucketsOff) : uint64(bucketsOff)+h.BucketCount*h.BucketSize])

	currentLogger().Debugw("index created", "payload_width", payloadWidth, "header", uint64(headerOff))
	return idx, nil
}

// Header returns the handle of idx's header, stable for the lifetime
// of the owning Arena. It is how a multi-map's outer index stores a
// reference to a nested Index in a payload slot.
func (idx *Index) Header() Offset { return idx.header }

// OpenIndex wraps an existing index header handle, e.g. one read back
// out of a multi-map payload slot or recovered via Arena.Open.
func OpenIndex(header Offset) *Index { return &Index{header: header} }

func (idx *Index) headerPtr(a *Arena) *indexHeader {
	return (*indexHeader)(unsafe.Pointer(&a.data[idx.header]))
}

func (idx *Index) bucketDescPtr(a *Arena, pos uint64) *bucketDescriptor {
	h := idx.headerPtr(a)
	off := uint64(h.Buckets) + pos*h.BucketSize
	return (*bucketDescriptor)(unsafe.Pointer(&a.data[off]))
}

func (idx *Index) payloadAt(a *Arena, pos uint64) []byte {
	h := idx.headerPtr(a)
	width := h.BucketSize - bucketDescriptorSize
	if width == 0 {
		return nil
	}
	off := uint64(h.Buckets) + pos*h.BucketSize + bucketDescriptorSize
	return a.data[off : off+width]
}

// equalKey reports whether the NUL-terminated key interned at koff
// equals key.
func equalKey(a *Arena, koff Offset, key []byte) bool {
	n := uint64(len(key))
	stored := a.Deref(koff, n+1)
	return stored[n] == 0 && bytes.Equal(stored[:n], key)
}

// internKey copies key's bytes into the arena followed by a
// terminating NUL and returns the handle of the start of that
// allocation. Interned keys are immutable and never freed.
func internKey(a *Arena, key []byte) (Offset, error) {
	n := uint64(len(key))
	off, err := a.Allocate(n + 1)
	if err != nil {
		return NoOffset, err
	}
	buf := a.Deref(off, n+1)
	copy(buf, key)
	buf[n] = 0
	return off, nil
}

// Lookup searches for key and reports its bucket index if present.
// Absence is a normal outcome, not an error: it probes forward from
// key's ideal bucket and gives up as soon as it meets an empty slot or
// exceeds the index's running max probe distance.
func (idx *Index) Lookup(a *Arena, key []byte) (uint64, bool) {
	h := idx.headerPtr(a)
	hk := hashKey(key)
	pos := hk % h.BucketCount
	dist := uint64(0)
	for {
		b := idx.bucketDescPtr(a, pos)
		if b.Hash == 0 || dist > h.MaxDist {
			return 0, false
		}
		if b.Hash == hk && equalKey(a, b.Key, key) {
			return pos, true
		}
		pos = (pos + 1) % h.BucketCount
		dist++
	}
}

// Insert adds key to the index if absent and returns its bucket
// index. The index is a set under keys: if key is already present, its
// existing position is returned and its payload is left untouched —
// inserting the same key twice never increments Filled twice and never
// interns a second copy of the key bytes.
func (idx *Index) Insert(a *Arena, key []byte) (uint64, error) {
	if pos, ok := idx.Lookup(a, key); ok {
		return pos, nil
	}

	hk := hashKey(key)
	keyOff, err := internKey(a, key)
	if err != nil {
		return 0, err
	}
	return idx.insertEntry(a, keyOff, hk, nil)
}

// insertEntry performs the Robin Hood placement of an entry with hash
// hk and key handle keyOff. If carryPayload is non-nil its bytes are
// written into the slot the entry first occupies (used by rehash to
// move an existing entry's payload along with it); otherwise the
// placed payload starts zeroed, to be filled in later via ValueRef.
//
// It returns the bucket index where the originally inserted entry came
// to rest — the first slot at which an empty write or a swap occurred
// for this call, not any position a displaced occupant later lands at.
func (idx *Index) insertEntry(a *Arena, keyOff Offset, hk uint64, carryPayload []byte) (uint64, error) {
	h := idx.headerPtr(a)
	maxFilled := (h.BucketCount * 9) / 10
	if maxFilled > h.BucketCount-1 {
		maxFilled = h.BucketCount - 1
	}
	if h.Filled >= maxFilled {
		if err := idx.rehash(a); err != nil {
			return 0, err
		}
		h = idx.headerPtr(a)
	}

	width := h.BucketSize - bucketDescriptorSize
	candHash, candKey := hk, keyOff
	var candPayload []byte
	if width > 0 {
		candPayload = make([]byte, width)
		if carryPayload != nil {
			copy(candPayload, carryPayload)
		}
	}

	pos := hk % h.BucketCount
	insertDist := uint64(0)
	result := pos
	resultSet := false

	for {
		b := idx.bucketDescPtr(a, pos)
		if b.Hash == 0 {
			b.Hash, b.Key = candHash, candKey
			if width > 0 {
				copy(idx.payloadAt(a, pos), candPayload)
			}
			if !resultSet {
				result, resultSet = pos, true
			}
			if insertDist > h.MaxDist {
				h.MaxDist = insertDist
			}
			break
		}

		existingDist := (pos + h.BucketCount - b.Hash%h.BucketCount) % h.BucketCount
		if insertDist > existingDist {
			oldHash, oldKey := b.Hash, b.Key
			var oldPayload []byte
			if width > 0 {
				oldPayload = append([]byte(nil), idx.payloadAt(a, pos)...)
			}

			b.Hash, b.Key = candHash, candKey
			if width > 0 {
				copy(idx.payloadAt(a, pos), candPayload)
			}
			if insertDist > h.MaxDist {
				h.MaxDist = insertDist
			}
			if !resultSet {
				result, resultSet = pos, true
			}

			candHash, candKey, candPayload = oldHash, oldKey, oldPayload
			insertDist = existingDist
		}

		pos = (pos + 1) % h.BucketCount
		insertDist++
	}

	h.Filled++
	return result, nil
}

// rehash doubles the bucket count, resets Filled and MaxDist, and
// reinserts every occupied old-bucket entry by handle — keys are never
// recopied, only their handles and hashes move. The old bucket array
// is stomped with 0xFF after the rehash completes (a debugging aid
// against stale references) and its arena space is not reclaimed, in
// keeping with this system carrying no free/coalesce operation.
func (idx *Index) rehash(a *Arena) error {
	h := idx.headerPtr(a)
	oldCount := h.BucketCount
	oldBuckets := h.Buckets
	bucketSize := h.BucketSize
	newCount := oldCount * 2

	newBuckets, err := a.Allocate(newCount * bucketSize)
	if err != nil {
		return err
	}
	h = idx.headerPtr(a)
	h.BucketCount = newCount
	h.Buckets = newBuckets
	h.Filled = 0
	h.MaxDist = 0
	clear(a.data[uint64(newBuckets) : uint64(newBuckets)+newCount*bucketSize])

	currentLogger().Debugw("index rehash", "old_buckets", oldCount, "new_buckets", newCount)

	width := bucketSize - bucketDescriptorSize
	for i := uint64(0); i < oldCount; i++ {
		descOff := uint64(oldBuckets) + i*bucketSize
		desc := (*bucketDescriptor)(unsafe.Pointer(&a.data[descOff]))
		if desc.Hash == 0 {
			continue
		}
		var payload []byte
		if width > 0 {
			payload = append([]byte(nil), a.data[descOff+bucketDescriptorSize:descOff+bucketSize]...)
		}
		if _, err := idx.insertEntry(a, desc.Key, desc.Hash, payload); err != nil {
			return err
		}
	}

	for i := uint64(0); i < oldCount*bucketSize; i++ {
		a.data[uint64(oldBuckets)+i] = 0xff
	}
	return nil
}

// Get looks up key and returns its payload, or ErrKeyNotFound if no
// such key has been inserted. It is a convenience wrapper around
// Lookup and ValueRef for callers that prefer an error-returning API
// over a boolean one.
func (idx *Index) Get(a *Arena, key []byte) ([]byte, error) {
	pos, ok := idx.Lookup(a, key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	return idx.ValueRef(a, pos), nil
}

// ValueRef returns the payload_width bytes of the slot at pos. The
// slice is invalidated by any later Insert (which may rehash); it must
// not be retained across one.
func (idx *Index) ValueRef(a *Arena, pos uint64) []byte {
	return idx.payloadAt(a, pos)
}

// KeyAt returns the interned key bytes (without the trailing NUL)
// stored at bucket pos.
func (idx *Index) KeyAt(a *Arena, pos uint64) []byte {
	b := idx.bucketDescPtr(a, pos)
	start := uint64(b.Key)
	end := start
	for a.data[end] != 0 {
		end++
	}
	return a.data[start:end]
}

// Enumerate yields every occupied bucket index in ascending order.
// Iteration is not restartable across insertions: an Insert may
// rehash and relocate every entry, invalidating any in-progress
// enumeration.
func (idx *Index) Enumerate(a *Arena) iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		h := idx.headerPtr(a)
		for i := uint64(0); i < h.BucketCount; i++ {
			if idx.bucketDescPtr(a, i).Hash != 0 {
				if !yield(i) {
					return
				}
			}
		}
	}
}
