package observability

import (
	"net"
	"net/http"
	"strings"
)

// Headers read from clients and trusted proxies.
const (
	HeaderRequestID    = "X-Request-ID"
	HeaderDeviceID     = "X-Device-ID"
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRealIP       = "X-Real-IP"
)

// ClientMeta is the caller metadata attached to socket sessions and events.
type ClientMeta struct {
	RequestID string
	DeviceID  string
	IP        string
}

// ClientMetaFromRequest collects ClientMeta from r. RequestID is empty when the
// caller did not send one.
func ClientMetaFromRequest(r *http.Request) ClientMeta {
	return ClientMeta{
		RequestID: strings.TrimSpace(r.Header.Get(HeaderRequestID)),
		DeviceID:  strings.TrimSpace(r.Header.Get(HeaderDeviceID)),
		IP:        ClientIP(r),
	}
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get(HeaderForwardedFor); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get(HeaderRealIP)); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
