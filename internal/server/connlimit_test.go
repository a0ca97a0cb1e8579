package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/lawnchairsociety/chronicle/internal/config"
)

func mustAcquire(t *testing.T, l *ConnLimiter, ip string) func() {
	t.Helper()
	release, ok := l.Acquire(ip)
	if !ok {
		t.Fatalf("Acquire(%s) rejected, stats %+v", ip, l.Stats())
	}
	return release
}

func TestConnLimiter_Caps(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.ConnectionsConfig
		held     []string
		next     string
		wantOpen bool
	}{
		{"per ip cap", config.ConnectionsConfig{MaxPerIP: 2, MaxTotal: 100}, []string{"10.0.0.1", "10.0.0.1"}, "10.0.0.1", false},
		{"other ip unaffected", config.ConnectionsConfig{MaxPerIP: 2, MaxTotal: 100}, []string{"10.0.0.1", "10.0.0.1"}, "10.0.0.2", true},
		{"total cap", config.ConnectionsConfig{MaxPerIP: 10, MaxTotal: 3}, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, "10.0.0.4", false},
		{"no caps", config.ConnectionsConfig{}, []string{"10.0.0.1", "10.0.0.1", "10.0.0.1", "10.0.0.1"}, "10.0.0.1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewConnLimiter(tt.cfg)
			for _, ip := range tt.held {
				mustAcquire(t, l, ip)
			}
			if _, ok := l.Acquire(tt.next); ok != tt.wantOpen {
				t.Errorf("Acquire(%s) = %v, want %v", tt.next, ok, tt.wantOpen)
			}
		})
	}
}

func TestConnLimiter_ReleaseFreesSlot(t *testing.T) {
	l := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 1, MaxTotal: 1})

	release := mustAcquire(t, l, "10.0.0.1")
	if _, ok := l.Acquire("10.0.0.2"); ok {
		t.Fatal("Server-wide cap should reject a second address")
	}

	release()
	mustAcquire(t, l, "10.0.0.2")
}

func TestConnLimiter_ReleaseIsIdempotent(t *testing.T) {
	l := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 5, MaxTotal: 5})

	first := mustAcquire(t, l, "10.0.0.1")
	mustAcquire(t, l, "10.0.0.1")

	first()
	first()
	if stats := l.Stats(); stats != (ConnStats{Total: 1, IPs: 1}) {
		t.Errorf("Double release should free one slot, got %+v", stats)
	}
	if l.perIP["10.0.0.1"] != 1 {
		t.Errorf("Expected one slot left for 10.0.0.1, got %d", l.perIP["10.0.0.1"])
	}
}

func TestConnLimiter_Stats(t *testing.T) {
	l := NewConnLimiter(config.ConnectionsConfig{MaxPerIP: 10, MaxTotal: 100})

	mustAcquire(t, l, "10.0.0.1")
	mustAcquire(t, l, "10.0.0.1")
	last := mustAcquire(t, l, "10.0.0.2")

	if stats := l.Stats(); stats != (ConnStats{Total: 3, IPs: 2}) {
		t.Errorf("Expected 3 connections from 2 addresses, got %+v", stats)
	}

	last()
	if stats := l.Stats(); stats != (ConnStats{Total: 2, IPs: 1}) {
		t.Errorf("Released address should be forgotten, got %+v", stats)
	}
}

func TestConnLimiter_Concurrent(t *testing.T) {
	l := NewConnLimiter(config.ConnectionsConfig{MaxTotal: 10})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := l.Acquire("10.0.0.1"); ok {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 10 {
		t.Errorf("Expected exactly 10 admissions, got %d", admitted)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"socket address", nil, "192.168.1.100:54321", "192.168.1.100"},
		{"ipv6 socket address", nil, "[::1]:4000", "::1"},
		{"no port", nil, "192.168.1.100", "192.168.1.100"},
		{"forwarded first hop", map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}, "10.0.0.1:1", "203.0.113.50"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.25 "}, "10.0.0.1:1", "198.51.100.25"},
		{"forwarded beats real ip", map[string]string{"X-Forwarded-For": "203.0.113.50", "X-Real-IP": "198.51.100.25"}, "10.0.0.1:1", "203.0.113.50"},
		{"garbage forwarded falls through", map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "198.51.100.25"}, "10.0.0.1:1", "198.51.100.25"},
		{"garbage everywhere", map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "nope"}, "10.0.0.1:1", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
