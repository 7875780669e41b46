package ws

import "time"

// ConnInfo identifies one websocket connection. UserID is empty when the
// server runs without authentication.
type ConnInfo struct {
	ConnID      string
	UserID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
