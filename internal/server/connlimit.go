package server

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/lawnchairsociety/chronicle/internal/config"
)

// ConnLimiter caps how many play channels may be open at once, per client
// address and across the server. A zero cap is no cap.
type ConnLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	open     int
	maxPerIP int
	maxTotal int
}

func NewConnLimiter(cfg config.ConnectionsConfig) *ConnLimiter {
	return &ConnLimiter{
		perIP:    make(map[string]int),
		maxPerIP: cfg.MaxPerIP,
		maxTotal: cfg.MaxTotal,
	}
}

// Acquire reserves a slot for ip. The returned release may be called any
// number of times; only the first call frees the slot.
func (c *ConnLimiter) Acquire(ip string) (release func(), ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxTotal > 0 && c.open >= c.maxTotal {
		return nil, false
	}
	if c.maxPerIP > 0 && c.perIP[ip] >= c.maxPerIP {
		return nil, false
	}
	c.perIP[ip]++
	c.open++

	var once sync.Once
	return func() { once.Do(func() { c.release(ip) }) }, true
}

func (c *ConnLimiter) release(ip string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch n := c.perIP[ip]; {
	case n > 1:
		c.perIP[ip] = n - 1
	case n == 1:
		delete(c.perIP, ip)
	default:
		return
	}
	c.open--
}

// ConnStats is reported by the status endpoint.
type ConnStats struct {
	Total int `json:"total"`
	IPs   int `json:"ips"`
}

func (c *ConnLimiter) Stats() ConnStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConnStats{Total: c.open, IPs: len(c.perIP)}
}

// clientIP names the caller for connection accounting and logs. A proxy's
// X-Forwarded-For or X-Real-IP wins over the socket address, but only when it
// holds a parseable address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
