package chunk

import (
	"fmt"
	"strings"
)

// Splitter cuts document text into overlapping word windows. Window and
// overlap are measured in whitespace-separated words; consecutive windows
// share overlap words so sentences near a boundary stay searchable.
type Splitter struct {
	window  int
	overlap int
}

func NewSplitter(window, overlap int) (*Splitter, error) {
	if window <= 0 {
		return nil, fmt.Errorf("chunk window must be positive, got %d", window)
	}
	if overlap < 0 || overlap >= window {
		return nil, fmt.Errorf("chunk overlap must be in [0, window), got %d", overlap)
	}
	return &Splitter{window: window, overlap: overlap}, nil
}

// Split returns the chunk texts in document order. Blank input produces no
// chunks; text of at most window words produces exactly one.
func (s *Splitter) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	stride := s.window - s.overlap
	var chunks []string
	for start := 0; start < len(words); start += stride {
		end := start + s.window
		if end > len(words) {
			end = len(words)
		}
		part := strings.TrimSpace(strings.Join(words[start:end], " "))
		if part != "" {
			chunks = append(chunks, part)
		}
		if end == len(words) {
			break
		}
	}
	return chunks
}
