package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientMetaFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	req.RemoteAddr = "10.0.0.9:51234"
	req.Header.Set(HeaderRequestID, " req-1 ")
	req.Header.Set("x-device-id", "phone-7")

	meta := ClientMetaFromRequest(req)
	assert.Equal(t, ClientMeta{RequestID: "req-1", DeviceID: "phone-7", IP: "10.0.0.9"}, meta)
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name      string
		forwarded string
		realIP    string
		remote    string
		want      string
	}{
		{"first forwarded hop", "203.0.113.4, 10.0.0.1", "", "10.0.0.1:80", "203.0.113.4"},
		{"empty forwarded hop", " , 10.0.0.1", "198.51.100.2", "10.0.0.1:80", "198.51.100.2"},
		{"real ip header", "", "198.51.100.2", "10.0.0.1:80", "198.51.100.2"},
		{"peer address", "", "", "10.0.0.1:80", "10.0.0.1"},
		{"peer without port", "", "", "pipe", "pipe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			if tc.forwarded != "" {
				req.Header.Set(HeaderForwardedFor, tc.forwarded)
			}
			if tc.realIP != "" {
				req.Header.Set(HeaderRealIP, tc.realIP)
			}
			assert.Equal(t, tc.want, ClientIP(req))
		})
	}
}
