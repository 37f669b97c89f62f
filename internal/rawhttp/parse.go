// Package rawhttp parses raw HTTP/1.x response text into the structured
// response model, without touching a network transport.
package rawhttp

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/OIRNOIR/oproxy-go/internal/model"
)

// ErrMissingStatusLine is returned when the input has no status line.
// A response without one is not valid HTTP and is never defaulted.
var ErrMissingStatusLine = errors.New("rawhttp: missing status line")

// blankLine matches the boundary between header block and body. Bare \n and
// \r\n line endings are both accepted, including mixed.
var blankLine = regexp.MustCompile(`\r?\n\r?\n`)

// lineBreak splits the header block into individual lines.
var lineBreak = regexp.MustCompile(`\r?\n`)

// Parse converts a full HTTP/1.x response (status line, header block, blank
// line, body) into a model.Response.
//
// Only the first blank line divides headers from body; any later blank-line
// boundaries are rejoined into the body with a normalized "\n\n". The body
// is passed through verbatim: no content-length or chunked decoding. Header
// lines without a colon are skipped; repeated header names accumulate
// values. Parse keeps no state between calls.
func Parse(raw string) (*model.Response, error) {
	parts := blankLine.Split(raw, -1)
	head := parts[0]
	body := strings.Join(parts[1:], "\n\n")

	lines := lineBreak.Split(head, -1)
	if len(lines) == 0 || lines[0] == "" {
		return nil, ErrMissingStatusLine
	}

	statusCode, statusText, err := parseStatusLine(lines[0])
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	for _, line := range lines[1:] {
		i := strings.Index(line, ":")
		if i < 0 {
			continue
		}
		name := strings.TrimSpace(line[:i])
		value := strings.TrimSpace(line[i+1:])
		header.Add(name, value)
	}

	return &model.Response{
		StatusCode: statusCode,
		Status:     statusText,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}, nil
}

// parseStatusLine splits "HTTP/1.1 200 OK" into code and text. The protocol
// token is discarded; everything after the code is the status text.
func parseStatusLine(line string) (int, string, error) {
	fields := strings.Split(line, " ")
	if len(fields) < 2 {
		return 0, "", fmt.Errorf("rawhttp: malformed status line %q", line)
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, "", fmt.Errorf("rawhttp: parse status code: %w", err)
	}
	return code, strings.Join(fields[2:], " "), nil
}
