package retriever

import "strings"

// ChunkerConfig holds chunking configuration.
type ChunkerConfig struct {
	ChunkSize    int // characters per chunk (default: 1000)
	ChunkOverlap int // character overlap between chunks (default: 100)
}

// ChunkText splits knowledge text into chunks. Paragraph boundaries (blank
// lines) are preferred split points; paragraphs longer than the chunk size
// are sliced with overlap so no content is dropped.
func ChunkText(text string, cfg ChunkerConfig) []string {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1000
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = 100
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) > cfg.ChunkSize {
			flush()
			for _, piece := range sliceLong(para, cfg.ChunkSize, cfg.ChunkOverlap) {
				chunks = append(chunks, piece)
			}
			continue
		}

		if current.Len() > 0 && current.Len()+len(para)+2 > cfg.ChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return chunks
}

// sliceLong cuts an oversized paragraph into overlapping windows.
func sliceLong(text string, size, overlap int) []string {
	var pieces []string
	step := size - overlap
	for start := 0; start < len(text); start += step {
		end := start + size
		if end > len(text) {
			end = len(text)
		}
		pieces = append(pieces, strings.TrimSpace(text[start:end]))
		if end == len(text) {
			break
		}
	}
	return pieces
}
