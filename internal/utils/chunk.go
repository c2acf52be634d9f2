package utils

// ChunkText partitions text into contiguous, non-overlapping pieces of at most
// size characters, scanning left to right. The final piece may be shorter.
// Splitting is a plain fixed-width slice with no word or sentence awareness.
func ChunkText(text string, size int) []string {
	if size <= 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(text); start += size {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
