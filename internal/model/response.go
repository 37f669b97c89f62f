// Package model defines the shared types for tunneled HTTP transactions.
package model

import (
	"io"
	"net/http"
)

// Response is the structured form of an HTTP response, whether it came back
// through the relay or out of the raw-text parser.
//
// StatusCode and Header hold the resolved logical values: for tunneled
// responses the side-channel overrides have already been applied by the time
// a Response is constructed. ProxyHeader carries the relay's own physical
// headers so relay-level metadata (rate limits, request IDs) stays
// inspectable next to, never instead of, the target's headers. It is nil
// for responses that did not pass through a relay.
type Response struct {
	StatusCode  int
	Status      string // status text, may be empty
	Header      http.Header
	Body        io.ReadCloser
	ProxyHeader http.Header
}

// RequestOptions describes the logical request to be tunneled.
//
// Unset fields are serialized as absent, not defaulted, so the relay can
// tell "not specified" from "explicitly empty". The one exception is Method,
// which defaults to GET for both the local relay hop and the serialized
// envelope. Keepalive is a pointer for the same reason: nil means unset,
// which is distinct from an explicit false.
type RequestOptions struct {
	Method         string
	Body           io.Reader
	Header         http.Header
	Mode           string
	Credentials    string
	Redirect       string
	Referrer       string
	ReferrerPolicy string
	Integrity      string
	Keepalive      *bool
}
