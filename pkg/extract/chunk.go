package extract

// ChunkText splits text into chunks of at most chunkSize bytes, pulling each
// cut back to the last paragraph boundary when one exists so a paragraph is
// not split mid-way. The final chunk keeps whatever remains.
func ChunkText(text string, chunkSize int) []string {
	if chunkSize <= 0 || len(text) <= chunkSize {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	var chunks []string
	for i := 0; i < len(text); i += chunkSize {
		end := i + chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunk := text[i:end]

		if end < len(text) {
			if cut := lastParagraphBreak(chunk); cut > 0 {
				chunk = chunk[:cut]
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

func lastParagraphBreak(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		if s[i] == '\n' && s[i+1] == '\n' {
			return i
		}
	}
	return -1
}
