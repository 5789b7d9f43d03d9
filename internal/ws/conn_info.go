package ws

import "time"

// ConnInfo carries identity and correlation data for a live connection.
type ConnInfo struct {
	ConnID      string
	UserID      int
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
