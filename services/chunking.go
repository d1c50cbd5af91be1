package services

import (
	"strings"

	"docsearch-platform/models"
)

// ChunkingService splits extracted document text into overlapping,
// boundary-aware chunks sized in characters.
type ChunkingService struct {
	chunkSize int
	overlap   int
}

// NewChunkingService creates a chunker. chunkSize <= 0 defaults to
// 1000, overlap < 0 defaults to 0, and overlap >= chunkSize is clamped
// to chunkSize/2 so every window makes forward progress.
func NewChunkingService(chunkSize, overlap int) *ChunkingService {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &ChunkingService{chunkSize: chunkSize, overlap: overlap}
}

// ChunkText splits content into ordered chunks covering the whole
// input, with adjacent chunks overlapping by the configured amount.
// Cut points prefer, in order, a paragraph break, a sentence break,
// then a line break, but only past the midpoint of the window so
// chunks never get pathologically short. Chunks are trimmed and empty
// results dropped; chunk_index stays contiguous from 0.
func (s *ChunkingService) ChunkText(content string) []models.Chunk {
	content = strings.TrimSpace(content)
	if len(content) == 0 {
		return []models.Chunk{}
	}

	chunks := []models.Chunk{}
	start := 0
	contentLen := len(content)

	for start < contentLen {
		end := start + s.chunkSize
		if end > contentLen {
			end = contentLen
		}

		if end < contentLen {
			window := content[start:end]
			if idx := strings.LastIndex(window, "\n\n"); idx > s.chunkSize/2 {
				end = start + idx + 2
			} else if idx := strings.LastIndex(window, ". "); idx > s.chunkSize/2 {
				end = start + idx + 2
			} else if idx := strings.LastIndex(window, "\n"); idx > s.chunkSize/2 {
				end = start + idx + 1
			}
		}

		text := strings.TrimSpace(content[start:end])
		if len(text) > 0 {
			chunks = append(chunks, models.Chunk{
				Content:     text,
				ContentType: models.ContentTypeText,
				ChunkIndex:  len(chunks),
			})
		}

		if end >= contentLen {
			break
		}

		// Next window starts overlap characters before this one ended.
		// If that would not move us forward (overlap >= window length
		// after a boundary adjustment), skip the overlap entirely.
		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}
