package socketio

import (
	"net"
	"strings"
	"sync"
)

// ConnectionLimiter caps concurrent remote control sessions. Sessions from
// the display box itself (loopback) are never counted. When a remote session
// pushes the count over the limit, the oldest remote session is evicted.
// A limit of zero disables the cap.
type ConnectionLimiter struct {
	mu        sync.Mutex
	maxRemote int
	remote    []string          // Remote client IDs, oldest first
	addrs     map[string]string // Client ID -> remote address
}

// NewConnectionLimiter creates a limiter allowing maxRemote remote sessions.
func NewConnectionLimiter(maxRemote int) *ConnectionLimiter {
	return &ConnectionLimiter{
		maxRemote: maxRemote,
		addrs:     make(map[string]string),
	}
}

// TryAdd registers a session and returns the ID of the session it evicted,
// or "" if none.
func (cl *ConnectionLimiter) TryAdd(clientID, addr string) (evictedID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.addrs[clientID]; exists {
		return ""
	}
	cl.addrs[clientID] = addr

	if isLocalAddr(addr) {
		return ""
	}

	cl.remote = append(cl.remote, clientID)
	if cl.maxRemote <= 0 || len(cl.remote) <= cl.maxRemote {
		return ""
	}

	evictedID = cl.remote[0]
	cl.remote = cl.remote[1:]
	delete(cl.addrs, evictedID)
	return evictedID
}

// Remove unregisters a session.
func (cl *ConnectionLimiter) Remove(clientID string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.addrs[clientID]; !exists {
		return
	}
	delete(cl.addrs, clientID)

	for i, id := range cl.remote {
		if id == clientID {
			cl.remote = append(cl.remote[:i], cl.remote[i+1:]...)
			return
		}
	}
}

// RemoteCount returns the number of tracked remote sessions.
func (cl *ConnectionLimiter) RemoteCount() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.remote)
}

// isLocalAddr reports whether addr (an IP, optionally with port) is loopback.
func isLocalAddr(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
