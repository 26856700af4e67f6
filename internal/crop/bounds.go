// Package crop implements spatial world cropping (region/chunk/block
// predicates) and per-block visibility masking, grounded on the original
// renderer's worldcrop.h.
package crop

// Bounds is a one-dimensional boundary with an optional minimum and/or
// maximum. An unset side behaves as -infinity (min) or +infinity (max).
type Bounds[T int | int64] struct {
	min, max         T
	minSet, maxSet bool
}

// SetMin sets the minimum limit.
func (b *Bounds[T]) SetMin(min T) {
	b.min = min
	b.minSet = true
}

// SetMax sets the maximum limit.
func (b *Bounds[T]) SetMax(max T) {
	b.max = max
	b.maxSet = true
}

// ResetMin clears the minimum limit.
func (b *Bounds[T]) ResetMin() { b.minSet = false }

// ResetMax clears the maximum limit.
func (b *Bounds[T]) ResetMax() { b.maxSet = false }

// Contains reports whether value satisfies every side that is set.
func (b *Bounds[T]) Contains(value T) bool {
	switch {
	case !b.minSet && !b.maxSet:
		return true
	case b.minSet && !b.maxSet:
		return value >= b.min
	case b.maxSet && !b.minSet:
		return value <= b.max
	default:
		return b.min <= value && value <= b.max
	}
}

// Min returns the minimum limit and whether it is set.
func (b *Bounds[T]) Min() (T, bool) { return b.min, b.minSet }

// Max returns the maximum limit and whether it is set.
func (b *Bounds[T]) Max() (T, bool) { return b.max, b.maxSet }

// Overlaps reports whether the inclusive range [lo, hi] intersects this
// bound's allowed range, used to cheaply reject a whole chunk/section
// range without testing every value in it (the inspection CLI's region/
// chunk/section prefiltering, mirroring §4.4's cascading predicate order).
func (b *Bounds[T]) Overlaps(lo, hi T) bool {
	if b.maxSet && lo > b.max {
		return false
	}
	if b.minSet && hi < b.min {
		return false
	}
	return true
}
