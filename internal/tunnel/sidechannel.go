package tunnel

import (
	"fmt"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
)

// resolveStatus returns the logical status code for a physical relay reply:
// the decoded receivedStatus header when present, the transport status
// otherwise. A malformed value is a decode error, never silently ignored:
// presenting the relay's own status as the target's would hide the problem.
func resolveStatus(resp *http.Response) (int, error) {
	raw := resp.Header.Get(headerReceivedStatus)
	if raw == "" {
		return resp.StatusCode, nil
	}
	status, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", headerReceivedStatus, err)
	}
	return status, nil
}

// resolveHeader returns the logical header collection: the decoded
// incomingHeaders object when present (replacing the physical headers
// entirely), the physical headers otherwise.
func resolveHeader(resp *http.Response) (http.Header, error) {
	raw := resp.Header.Get(headerIncomingHeaders)
	if raw == "" {
		return resp.Header, nil
	}
	h, err := decodeHeaderObject(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", headerIncomingHeaders, err)
	}
	return h, nil
}

// decodeHeaderObject parses a JSON header object. Values may be single
// strings or arrays of strings; relays written against single-valued header
// maps produce the former, http.Header serialization the latter.
func decodeHeaderObject(raw string) (http.Header, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, err
	}

	h := make(http.Header, len(obj))
	for name, rawValue := range obj {
		var many []string
		if err := json.Unmarshal(rawValue, &many); err == nil {
			for _, v := range many {
				h.Add(name, v)
			}
			continue
		}
		var one string
		if err := json.Unmarshal(rawValue, &one); err != nil {
			return nil, fmt.Errorf("header %q: %w", name, err)
		}
		h.Add(name, one)
	}
	return h, nil
}
