// Package timex provides duration-expression parsing and a generic timeout
// race for operations that have no deadline of their own.
package timex

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// bigUnits matches the day and week units that time.ParseDuration lacks.
var bigUnits = regexp.MustCompile(`(\d+(?:\.\d+)?)(d|w)`)

// ParseExpression parses a duration expression such as "90s", "2h30m",
// "1d12h" or "2w". It accepts everything time.ParseDuration accepts, plus
// "d" (24h) and "w" (168h) units.
func ParseExpression(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("timex: empty duration expression")
	}

	normalized := bigUnits.ReplaceAllStringFunc(s, func(tok string) string {
		m := bigUnits.FindStringSubmatch(tok)
		hours := 24.0
		if m[2] == "w" {
			hours = 168.0
		}
		n, _ := strconv.ParseFloat(m[1], 64) // cannot fail, the regexp vetted it
		return fmt.Sprintf("%gh", n*hours)
	})

	d, err := time.ParseDuration(normalized)
	if err != nil {
		return 0, fmt.Errorf("timex: parse %q: %w", s, err)
	}
	return d, nil
}
