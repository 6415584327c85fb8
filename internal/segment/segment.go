package segment

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// Split cuts text into parts of at most maxLen bytes. Cuts prefer the last
// paragraph break inside the window, then the last line break, and fall back
// to a hard cut on a rune boundary. Whitespace-only parts are dropped.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = 4096
	}
	var parts []string
	appendPart := func(p string) {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	for len(text) > maxLen {
		cut, skip := findCut(text, maxLen)
		appendPart(text[:cut])
		text = text[cut+skip:]
	}
	appendPart(text)
	return parts
}

func findCut(text string, maxLen int) (cut, skip int) {
	window := text[:maxLen]
	if i := strings.LastIndex(window, "\n\n"); i > 0 {
		return i, 2
	}
	if i := strings.LastIndex(window, "\n"); i > 0 {
		return i, 1
	}
	cut = maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if cut == 0 {
		cut = maxLen
	}
	return cut, 0
}

// Emitter delivers a long answer as ordered parts with a small delay between
// them, respecting the transport's flood limits.
type Emitter struct {
	maxLen int
	delay  time.Duration
	sleep  func(time.Duration)
}

func NewEmitter(maxLen int, delay time.Duration) *Emitter {
	return &Emitter{maxLen: maxLen, delay: delay, sleep: time.Sleep}
}

func (e *Emitter) Emit(ctx context.Context, text string, send func(ctx context.Context, part string) error) error {
	parts := Split(text, e.maxLen)
	for i, part := range parts {
		if i > 0 && e.delay > 0 {
			e.sleep(e.delay)
		}
		if err := send(ctx, part); err != nil {
			return err
		}
	}
	return nil
}
