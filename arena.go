package parena

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// regionHeader sits at offset 0 of the mapped region.
type regionHeader struct {
	NextFree Offset
	Size     uint64
}

// blockDescriptor precedes every allocation's payload bytes. Blocks
// form a doubly-linked chain ordered by allocation order; a block's
// payload length is implicit in the gap to its successor's
// descriptor.
type blockDescriptor struct {
	Prev Offset
	Next Offset
}

// Arena owns a memory-mapped file and the free/used block chain that
// allocates regions of it. It is not safe for concurrent use from
// multiple goroutines — see SafeArena for a mutex-guarded facade.
type Arena struct {
	path     string
	file     *os.File
	data     []byte
	poisoned bool
}

// Create opens path read-write (creating it if absent), lays out a
// fresh region of initialSize bytes, and initializes the region
// header and the head/tail sentinel block chain. It fails with an
// *IoError for any filesystem or mmap failure.
//
// Create always initializes a fresh region; unlike Open, it does not
// attempt to preserve any data a pre-existing file at path might
// carry.
func Create(path string, initialSize uint64) (*Arena, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, newIoError("open", err)
	}

	if err := f.Truncate(int64(initialSize) + 1); err != nil {
		f.Close()
		return nil, newIoError("truncate", err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(initialSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, newIoError("mmap", err)
	}

	a := &Arena{path: path, file: f, data: data}
	a.initLayout(initialSize)

	currentLogger().Debugw("arena created", "path", path, "size", initialSize)
	return a, nil
}

// Open maps an existing file and restores the allocator state found
// there (free chain, block chain, everything any Index built on top
// previously wrote) without reinitializing anything. It fails with an
// *IoError if path does not exist, is smaller than a region header, or
// cannot be mapped.
func Open(path string) (*Arena, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, newIoError("open", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, newIoError("fstat", err)
	}
	if info.Size() < regionHeaderSize+1 {
		f.Close()
		return nil, newIoError("open", fmt.Errorf("%s: too small to hold a region header", path))
	}

	// Read the recorded size from the header without requiring a
	// mapping sized to match it first: map just the header, read it,
	// then remap to the recorded size.
	probe, err := unix.Mmap(int(f.Fd()), 0, regionHeaderSize, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, newIoError("mmap", err)
	}
	recordedSize := (*regionHeader)(unsafe.Pointer(&probe[0])).Size
	if err := unix.Munmap(probe); err != nil {
		f.Close()
		return nil, newIoError("munmap", err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(recordedSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, newIoError("mmap", err)
	}

	a := &Arena{path: path, file: f, data: data}
	currentLogger().Debugw("arena opened", "path", path, "size", recordedSize)
	return a, nil
}

// initLayout writes the region header and the head/tail sentinel
// blocks. Called only from Create, on a freshly truncated+mapped file.
func (a *Arena) initLayout(size uint64) {
	h := a.headerPtr()
	h.Size = size
	h.NextFree = sentinelOffset

	tail := Offset(sentinelOffset + blockDescriptorSize)
	head := a.blockPtr(sentinelOffset)
	head.Prev = NoOffset
	head.Next = tail

	tailBlock := a.blockPtr(tail)
	tailBlock.Prev = sentinelOffset
	tailBlock.Next = NoOffset
}

func (a *Arena) headerPtr() *regionHeader {
	return (*regionHeader)(unsafe.Pointer(&a.data[0]))
}

func (a *Arena) blockPtr(off Offset) *blockDescriptor {
	return (*blockDescriptor)(unsafe.Pointer(&a.data[off]))
}

func (a *Arena) ioErr(op string, err error) error {
	a.poisoned = true
	currentLogger().Errorw("arena poisoned", "op", op, "path", a.path, "error", err)
	return newIoError(op, err)
}

// Grow extends the mapped region to at least newSize bytes. The
// region is synced, unmapped, the backing file extended, and remapped
// — possibly at a different virtual address. Callers must not retain
// raw pointers obtained before a call that may Grow; only Offset
// handles survive.
func (a *Arena) Grow(newSize uint64) error {
	if a.poisoned {
		return ErrPoisoned
	}
	if newSize <= a.headerPtr().Size {
		return nil
	}

	if err := unix.Msync(a.data, unix.MS_SYNC); err != nil {
		return a.ioErr("msync", err)
	}
	if err := unix.Munmap(a.data); err != nil {
		return a.ioErr("munmap", err)
	}
	a.data = nil

	if err := a.file.Truncate(int64(newSize) + 1); err != nil {
		return a.ioErr("truncate", err)
	}

	data, err := unix.Mmap(int(a.file.Fd()), 0, int(newSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return a.ioErr("mmap", err)
	}
	a.data = data
	a.headerPtr().Size = newSize

	currentLogger().Debugw("arena grown", "path", a.path, "new_size", newSize)
	return nil
}

// Sync flushes the mapped region to disk.
func (a *Arena) Sync() error {
	if a.poisoned {
		return ErrPoisoned
	}
	if err := unix.Msync(a.data, unix.MS_SYNC); err != nil {
		return a.ioErr("msync", err)
	}
	return nil
}

// Close syncs, unmaps, and closes the underlying file descriptor.
func (a *Arena) Close() error {
	if a.poisoned {
		_ = unix.Munmap(a.data)
		_ = a.file.Close()
		return ErrPoisoned
	}
	if err := a.Sync(); err != nil {
		return err
	}
	if err := unix.Munmap(a.data); err != nil {
		return a.ioErr("munmap", err)
	}
	if err := a.file.Close(); err != nil {
		return newIoError("close", err)
	}
	currentLogger().Debugw("arena closed", "path", a.path)
	return nil
}

// Abandon unmaps and closes the file descriptor without syncing,
// discarding any unflushed writes. It exists for test harnesses that
// need to simulate a crash.
func (a *Arena) Abandon() error {
	if err := unix.Munmap(a.data); err != nil {
		return newIoError("munmap", err)
	}
	if err := a.file.Close(); err != nil {
		return newIoError("close", err)
	}
	return nil
}

// Deref returns a byte slice view of the n bytes at handle h. The
// slice is valid only until the next Arena operation that may Grow
// (Allocate, or an Index operation that allocates); callers must not
// retain it across such a call.
func (a *Arena) Deref(h Offset, n uint64) []byte {
	return a.data[uint64(h) : uint64(h)+n]
}

// Size returns the current mapped length of the region, in bytes.
func (a *Arena) Size() uint64 {
	return a.headerPtr().Size
}
