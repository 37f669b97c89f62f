// Package format provides the human-formatting helpers used around the
// tunnel core: message chunking, duration formatting, and digit grouping.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ChunkMessage splits s into pieces of at most size runes, preferring to
// break on a newline, then on a space, before cutting mid-word. A size of
// zero or less returns the input as a single chunk.
func ChunkMessage(s string, size int) []string {
	remaining := []rune(s)
	if size <= 0 || len(remaining) <= size {
		return []string{s}
	}

	var chunks []string
	for len(remaining) > size {
		cut := lastBreak(remaining[:size+1], '\n')
		if cut <= 0 {
			cut = lastBreak(remaining[:size+1], ' ')
		}
		if cut <= 0 {
			cut = size
		}
		chunks = append(chunks, strings.TrimRight(string(remaining[:cut]), " \n"))
		remaining = remaining[cut:]
		for len(remaining) > 0 && (remaining[0] == ' ' || remaining[0] == '\n') {
			remaining = remaining[1:]
		}
	}
	if len(remaining) > 0 {
		chunks = append(chunks, string(remaining))
	}
	return chunks
}

// lastBreak returns the highest index of sep in window, or -1.
func lastBreak(window []rune, sep rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == sep {
			return i
		}
	}
	return -1
}

// Duration renders d compactly, e.g. "2h 3m 4s". Sub-second durations
// render as "0s"; units with a zero value are omitted except when the whole
// duration is zero.
func Duration(d time.Duration) string {
	d = d.Round(time.Second)
	if d == 0 {
		return "0s"
	}

	neg := ""
	if d < 0 {
		neg = "-"
		d = -d
	}

	var parts []string
	if h := d / time.Hour; h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
		d -= h * time.Hour
	}
	if m := d / time.Minute; m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
		d -= m * time.Minute
	}
	if s := d / time.Second; s > 0 {
		parts = append(parts, fmt.Sprintf("%ds", s))
	}
	if len(parts) == 0 {
		return "0s"
	}
	return neg + strings.Join(parts, " ")
}

// GroupDigits renders n with thousands separators, e.g. 1234567 → "1,234,567".
func GroupDigits(n int64) string {
	return humanize.Comma(n)
}
