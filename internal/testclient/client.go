// Package testclient drives a running chronicle server over its HTTP API and
// play channel for smoke testing.
package testclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TestClient talks to one chronicle server as one player.
type TestClient struct {
	Name    string
	baseURL string
	http    *http.Client

	ws        *websocket.Conn
	replies   chan Reply
	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// NewTestClient creates a client for the server at address (host:port).
func NewTestClient(name, address string) *TestClient {
	return &TestClient{
		Name:    name,
		baseURL: "http://" + strings.TrimPrefix(address, "http://"),
		http:    &http.Client{Timeout: 5 * time.Second},
		replies: make(chan Reply, 16),
		done:    make(chan struct{}),
	}
}

// Do sends a JSON request and decodes a JSON response into out when out is
// non-nil. It returns the HTTP status code.
func (c *TestClient) Do(method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// CreateVampire creates a vampire named after the client and returns its id.
func (c *TestClient) CreateVampire(origin string) (int64, error) {
	var v struct {
		ID int64 `json:"id"`
	}
	status, err := c.Do("POST", "/api/vampires", map[string]string{"name": c.Name, "origin": origin}, &v)
	if err != nil {
		return 0, err
	}
	if status != http.StatusCreated {
		return 0, fmt.Errorf("create vampire returned %d", status)
	}
	return v.ID, nil
}

// Reply is one play-channel message from the server.
type Reply struct {
	Op           string          `json:"op"`
	ConnectionID string          `json:"connection_id"`
	Data         json.RawMessage `json:"data"`
	Error        string          `json:"error"`
	Status       int             `json:"status"`
}

// ConnectPlay opens the play channel for vampireID. Replies are queued until
// read with Next.
func (c *TestClient) ConnectPlay(vampireID int64) error {
	url := fmt.Sprintf("ws%s/ws?vampire=%d", strings.TrimPrefix(c.baseURL, "http"), vampireID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.ws = conn
	go c.pump()
	return nil
}

func (c *TestClient) pump() {
	defer close(c.replies)
	for {
		var r Reply
		if err := c.ws.ReadJSON(&r); err != nil {
			return
		}
		select {
		case c.replies <- r:
		case <-c.done:
			return
		}
	}
}

// Send writes one play-channel request.
func (c *TestClient) Send(op string, fields map[string]any) error {
	if c.ws == nil {
		return errors.New("play channel not connected")
	}
	req := map[string]any{"op": op}
	for k, v := range fields {
		req[k] = v
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(req)
}

// Next returns the next reply, skipping any whose op is not op or "error".
func (c *TestClient) Next(op string, timeout time.Duration) (Reply, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case r, ok := <-c.replies:
			if !ok {
				return Reply{}, errors.New("play channel closed")
			}
			if r.Op == op || r.Op == "error" {
				return r, nil
			}
		case <-timer.C:
			return Reply{}, fmt.Errorf("no %q reply within %s", op, timeout)
		}
	}
}

// Close closes the play channel, if open. It is safe to call twice.
func (c *TestClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		if c.ws != nil {
			err = c.ws.Close()
		}
	})
	return err
}
