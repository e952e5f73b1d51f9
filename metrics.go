package parena

// ArenaMetrics is a snapshot of allocator statistics, in the spirit of
// the teacher's Metrics() snapshot but reporting on a mapped region
// instead of in-process chunks.
type ArenaMetrics struct {
	Size     uint64  // current mapped length, in bytes
	NextFree uint64  // offset of the head of the free/tail chain
	Used     uint64  // bytes claimed between the first sentinel and NextFree
	Free     float64 // fraction of Size not yet claimed by any block
}

// Metrics returns a snapshot of the Arena's allocator statistics.
func (a *Arena) Metrics() ArenaMetrics {
	h := a.headerPtr()
	used := uint64(h.NextFree) - sentinelOffset
	free := 1.0
	if h.Size > 0 {
		free = 1.0 - float64(used)/float64(h.Size)
	}
	return ArenaMetrics{
		Size:     h.Size,
		NextFree: uint64(h.NextFree),
		Used:     used,
		Free:     free,
	}
}

// IndexStats is a snapshot of Robin Hood hash index statistics,
// equivalent to the original source's ht_print_stat debug dump.
type IndexStats struct {
	BucketCount uint64
	Filled      uint64
	MaxDist     uint64
	LoadFactor  float64
}

// Stats returns a snapshot of idx's current bucket occupancy and probe
// distance statistics.
func (idx *Index) Stats(a *Arena) IndexStats {
	h := idx.headerPtr(a)
	load := 0.0
	if h.BucketCount > 0 {
		load = float64(h.Filled) / float64(h.BucketCount)
	}
	return IndexStats{
		BucketCount: h.BucketCount,
		Filled:      h.Filled,
		MaxDist:     h.MaxDist,
		LoadFactor:  load,
	}
}
