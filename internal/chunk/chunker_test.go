package chunk

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func makeWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func expectedCount(n, window, overlap int) int {
	if n == 0 {
		return 0
	}
	if n <= window {
		return 1
	}
	stride := window - overlap
	covered := n - overlap
	return (covered + stride - 1) / stride
}

func TestSplitChunkCount(t *testing.T) {
	s, err := NewSplitter(800, 100)
	require.NoError(t, err)

	for _, n := range []int{0, 1, 100, 799, 800, 801, 1500, 2100, 5000} {
		got := s.Split(makeWords(n))
		require.Len(t, got, expectedCount(n, 800, 100), "n=%d", n)
	}
}

func TestSplitSingleChunkWhenFits(t *testing.T) {
	s, err := NewSplitter(10, 3)
	require.NoError(t, err)
	chunks := s.Split("a b c d e")
	require.Len(t, chunks, 1)
	require.Equal(t, "a b c d e", chunks[0])
}

func TestSplitCoversAllWords(t *testing.T) {
	s, err := NewSplitter(10, 3)
	require.NoError(t, err)
	text := makeWords(45)
	chunks := s.Split(text)

	seen := map[string]bool{}
	for _, c := range chunks {
		for _, w := range strings.Fields(c) {
			seen[w] = true
		}
	}
	for _, w := range strings.Fields(text) {
		require.True(t, seen[w], "word %s missing from chunks", w)
	}
}

func TestSplitOverlapSharedBetweenWindows(t *testing.T) {
	s, err := NewSplitter(10, 3)
	require.NoError(t, err)
	chunks := s.Split(makeWords(20))
	require.GreaterOrEqual(t, len(chunks), 2)

	first := strings.Fields(chunks[0])
	second := strings.Fields(chunks[1])
	require.Equal(t, first[len(first)-3:], second[:3])
}

func TestSplitBlankInput(t *testing.T) {
	s, err := NewSplitter(800, 100)
	require.NoError(t, err)
	require.Nil(t, s.Split(""))
	require.Nil(t, s.Split("   \n\t "))
}

func TestNewSplitterValidation(t *testing.T) {
	_, err := NewSplitter(0, 0)
	require.Error(t, err)
	_, err = NewSplitter(100, 100)
	require.Error(t, err)
	_, err = NewSplitter(100, -1)
	require.Error(t, err)
}
