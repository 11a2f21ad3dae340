package sample

// Downsample decimates src to at most maxPoints elements for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
// The last element of src is always kept so a trace still ends at its newest value.
func Downsample[T any](dst []T, src []T, maxPoints int) []T {
	if len(src) <= maxPoints || maxPoints < 2 {
		if cap(dst) < len(src) {
			dst = make([]T, 0, len(src))
		}
		return append(dst[:0], src...)
	}

	if cap(dst) < maxPoints {
		dst = make([]T, 0, maxPoints)
	}
	dst = dst[:0]

	// Spread the first maxPoints-1 picks evenly, then append the last element.
	step := float64(len(src)-1) / float64(maxPoints-1)
	for i := range maxPoints - 1 {
		dst = append(dst, src[int(float64(i)*step)])
	}
	return append(dst, src[len(src)-1])
}
