package tunnel

import (
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/OIRNOIR/oproxy-go/internal/model"
)

// Wire header names of the envelope (request → relay) and the side channel
// (relay → client). net/http canonicalizes them on the wire; matching is
// case-insensitive on both ends.
const (
	headerEndpoint        = "endpoint"
	headerOptions         = "oproxy-options"
	headerHeaders         = "headers"
	headerIncomingHeaders = "incomingHeaders"
	headerReceivedStatus  = "receivedStatus"
)

// envelopeOptions is the JSON shape carried in the oproxy-options header.
// Every field except Method uses omitempty so the relay can distinguish
// "not specified" from "explicitly empty"; Keepalive is a pointer for the
// same reason, since an explicit false must survive serialization.
type envelopeOptions struct {
	Method         string `json:"method"`
	Mode           string `json:"mode,omitempty"`
	Credentials    string `json:"credentials,omitempty"`
	Redirect       string `json:"redirect,omitempty"`
	Referrer       string `json:"referrer,omitempty"`
	ReferrerPolicy string `json:"referrerPolicy,omitempty"`
	Integrity      string `json:"integrity,omitempty"`
	Keepalive      *bool  `json:"keepalive,omitempty"`
}

// buildEnvelope serializes the logical request into the three envelope
// headers addressed to the relay. The target endpoint travels as a plain
// string; options and caller headers travel as JSON objects, with "{}"
// standing in when the caller supplied no headers.
func buildEnvelope(target string, opts *model.RequestOptions) (http.Header, error) {
	optsJSON, err := json.Marshal(envelopeOptions{
		Method:         resolveMethod(opts),
		Mode:           opts.Mode,
		Credentials:    opts.Credentials,
		Redirect:       opts.Redirect,
		Referrer:       opts.Referrer,
		ReferrerPolicy: opts.ReferrerPolicy,
		Integrity:      opts.Integrity,
		Keepalive:      opts.Keepalive,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", headerOptions, err)
	}

	callerHeaders := opts.Header
	if callerHeaders == nil {
		callerHeaders = http.Header{}
	}
	headersJSON, err := json.Marshal(callerHeaders)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", headerHeaders, err)
	}

	h := make(http.Header, 3)
	h.Set(headerEndpoint, target)
	h.Set(headerOptions, string(optsJSON))
	h.Set(headerHeaders, string(headersJSON))
	return h, nil
}

// resolveMethod applies the one defaulted option. The same value is used for
// the local relay hop and the serialized envelope, so the relay and the
// transport agree on intent.
func resolveMethod(opts *model.RequestOptions) string {
	if opts.Method == "" {
		return http.MethodGet
	}
	return opts.Method
}
