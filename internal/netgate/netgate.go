// Package netgate provides an http.RoundTripper that answers requests to
// blocked hosts locally with an empty 204 response. It is the offline switch
// for every provider adapter.
package netgate

import (
	"io"
	"net/http"
	"strings"
)

// Transport wraps Base and intercepts blocked hosts while Enabled.
type Transport struct {
	Base    http.RoundTripper
	Hosts   []string
	Enabled bool
}

// New returns a gate over base. A nil base means http.DefaultTransport.
func New(base http.RoundTripper, enabled bool, hosts []string) *Transport {
	normalized := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), ".")
		if h != "" {
			normalized = append(normalized, h)
		}
	}
	return &Transport{Base: base, Hosts: normalized, Enabled: enabled}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Enabled && t.Blocked(req.URL.Hostname()) {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return &http.Response{
			Status:        "204 No Content",
			StatusCode:    http.StatusNoContent,
			Proto:         "HTTP/1.1",
			ProtoMajor:    1,
			ProtoMinor:    1,
			Header:        make(http.Header),
			Body:          io.NopCloser(strings.NewReader("")),
			ContentLength: 0,
			Request:       req,
		}, nil
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// Blocked reports whether host equals, or is a subdomain of, a blocked host.
func (t *Transport) Blocked(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	for _, blocked := range t.Hosts {
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}
