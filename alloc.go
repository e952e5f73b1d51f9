package parena

// Allocate reserves size bytes in the arena and returns the handle of
// the payload (not of its preceding block descriptor). It walks the
// block chain from the region header's next-free pointer looking for
// a block whose gap to its successor can hold the request, or for the
// tail sentinel. Because this implementation exposes no Free
// operation (spec.md's Non-goals exclude deletion, and the source's
// mem_free is documented as broken), next_free refers to the head
// sentinel on a fresh arena and to the tail sentinel after every
// allocation: every allocation is a bump allocation at the current end
// of the chain, and the walk below takes one step from the head on the
// first call and is a single check afterwards.
//
// If the tail is reached and there isn't room before the current
// mapped size ends, the arena grows first: the new size is 1.5x the
// minimum required, rounded up to the next multiple of 256.
func (a *Arena) Allocate(size uint64) (Offset, error) {
	if a.poisoned {
		return NoOffset, ErrPoisoned
	}

	needed := uint64(blockDescriptorSize) + size
	if needed < size {
		a.poisoned = true
		return NoOffset, newCapacityError(size, a.headerPtr().Size)
	}

	free := a.headerPtr().NextFree
	for {
		fb := a.blockPtr(free)
		if fb.Next == NoOffset {
			break
		}
		if uint64(fb.Next)-uint64(free) > needed {
			break
		}
		free = fb.Next
	}

	fb := a.blockPtr(free)
	prev := fb.Prev
	next := fb.Next

	if fb.Next == NoOffset {
		nextPos := alignUp(uint64(free)+needed, allocAlign)
		if nextPos < uint64(free) {
			a.poisoned = true
			return NoOffset, newCapacityError(needed, a.headerPtr().Size)
		}

		if nextPos+blockDescriptorSize >= a.headerPtr().Size {
			target, err := growthTarget(nextPos, a.headerPtr().Size)
			if err != nil {
				a.poisoned = true
				return NoOffset, err
			}
			if err := a.Grow(target); err != nil {
				return NoOffset, err
			}
			// The grow may have remapped; re-derive every pointer
			// taken before it rather than trusting the old ones.
			fb = a.blockPtr(free)
			prev = fb.Prev
		}

		next = Offset(nextPos)
		fb.Next = next
		a.blockPtr(next).Next = NoOffset
	}

	a.headerPtr().NextFree = fb.Next
	fb.Next = next
	fb.Prev = prev
	a.blockPtr(prev).Next = free
	a.blockPtr(next).Prev = free

	payload := free + Offset(blockDescriptorSize)
	currentLogger().Debugw("allocate", "offset", uint64(payload), "size", size)
	return payload, nil
}

// growthTarget computes the new region size for an allocation that
// reaches byte offset need: 1.5x the minimum required size, rounded up
// to the next multiple of growthRoundTo bytes.
func growthTarget(need uint64, current uint64) (uint64, error) {
	minimum := need + blockDescriptorSize
	if minimum < need {
		return 0, newCapacityError(need, current)
	}
	scaled := uint64(float64(minimum) * 1.5)
	if scaled < minimum {
		return 0, newCapacityError(need, current)
	}
	target := alignUp(scaled, growthRoundTo)
	if target < scaled {
		return 0, newCapacityError(need, current)
	}
	return target, nil
}
