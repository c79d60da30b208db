package valuation

const (
	// series at or below this length are charted as-is
	sampleThreshold = 12
	// series of at least this length use the wider stride
	wideStrideFrom = 60
)

// Sample thins a monthly series for charting. Series of up to twelve points
// are returned unchanged. Longer ones keep every index i with
// i % stride == stride-1 (stride 2 below sixty points, 3 from sixty on), and
// the last point is always kept.
func Sample[T any](points []T) []T {
	if len(points) <= sampleThreshold {
		return points
	}

	stride := 2
	if len(points) >= wideStrideFrom {
		stride = 3
	}

	kept := strideIndices(len(points), stride)
	kept = withLastIndex(kept, len(points))

	sampled := make([]T, len(kept))
	for i, idx := range kept {
		sampled[i] = points[idx]
	}
	return sampled
}

// strideIndices returns the indices i < n with i % stride == stride-1.
func strideIndices(n, stride int) []int {
	indices := make([]int, 0, n/stride+1)
	for i := stride - 1; i < n; i += stride {
		indices = append(indices, i)
	}
	return indices
}

// withLastIndex appends n-1 unless the stride already selected it, so the
// most recent point appears exactly once.
func withLastIndex(indices []int, n int) []int {
	if len(indices) > 0 && indices[len(indices)-1] == n-1 {
		return indices
	}
	return append(indices, n-1)
}

// lastN returns the trailing n elements of points.
func lastN[T any](points []T, n int) []T {
	if n >= len(points) {
		return points
	}
	return points[len(points)-n:]
}
