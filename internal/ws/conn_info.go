package ws

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConnInfo carries per-connection metadata for metrics and lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

func newConnInfo(r *http.Request, userID, traceID string) ConnInfo {
	return ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      userID,
		DeviceID:    r.Header.Get("X-Device-Id"),
		IP:          clientIP(r),
		RequestID:   r.Header.Get("X-Request-Id"),
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
