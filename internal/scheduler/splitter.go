package scheduler

// SplitIDs partitions ids into ordered, non-overlapping chunks of at most
// size elements, preserving the original order. The last chunk may be
// smaller. Callers guarantee a non-empty input and a positive size.
func SplitIDs(ids []int64, size int) [][]int64 {
	chunks := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
