package sample

// Downsample downsamples a slice to a maximum number of points.
// Uses simple decimation to reduce the number of points for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
// If len(src) <= maxPoints, copies all of src to dst.
func Downsample[T any](dst []T, src []T, maxPoints int) []T {
	if len(src) <= maxPoints {
		if cap(dst) >= len(src) {
			dst = dst[:len(src)]
			copy(dst, src)
			return dst
		}
		result := make([]T, len(src))
		copy(result, src)
		return result
	}

	if maxPoints <= 0 {
		return dst[:0]
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0] // Reset length but keep capacity
	} else {
		dst = make([]T, 0, maxPoints)
	}

	// Calculate step size for decimation
	step := float64(len(src)) / float64(maxPoints)

	for i := range maxPoints {
		idx := int(float64(i) * step)
		if idx < len(src) {
			dst = append(dst, src[idx])
		}
	}

	return dst
}
