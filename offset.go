package parena

// Offset is a handle into an Arena's mapped region: a byte offset from
// the region's base address. Offsets are stable across Grow-induced
// remaps, unlike raw pointers, because they are resolved relative to
// whatever address the region currently maps to rather than carrying
// an address of their own.
type Offset uint64

// NoOffset is the reserved handle meaning "none" / "absent". No
// allocation ever returns it.
const NoOffset Offset = 0

const (
	// regionHeaderSize is sizeof(regionHeader): next_free (u64) + size (u64).
	regionHeaderSize = 16

	// sentinelOffset is the fixed byte offset of the head sentinel block
	// descriptor. The C source derives this from sizeof(struct mem), an
	// in-memory handle (fd + pointer) whose size depends on host pointer
	// width — a portability hazard spec.md calls out explicitly. This
	// implementation fixes it at a documented constant instead, leaving a
	// 16-byte reserved gap after the region header.
	sentinelOffset = 32

	// blockDescriptorSize is sizeof(blockDescriptor): prev (u64) + next (u64).
	blockDescriptorSize = 16

	// allocAlign is the alignment, in bytes, applied to each new tail
	// position before a block is placed there.
	allocAlign = 4

	// growthRoundTo is the multiple new region sizes are rounded up to.
	growthRoundTo = 256

	// indexHeaderSize is sizeof(indexHeader): bucket_count, bucket_size,
	// filled, max_dist (four u64) plus buckets (an Offset, also u64).
	indexHeaderSize = 40

	// bucketDescriptorSize is sizeof(bucketDescriptor): hash (u64) + key (Offset).
	bucketDescriptorSize = 16
)

// alignUp rounds off up to the next multiple of align (align must be a
// power of two).
func alignUp(off uint64, align uint64) uint64 {
	return (off + align - 1) &^ (align - 1)
}
