// Package mpd plays background music through an MPD server.
package mpd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog/log"
)

// ErrNotConnected is returned by Ping before a connection exists.
var ErrNotConnected = errors.New("not connected to MPD")

// DefaultDialTimeout bounds connecting to MPD, including its greeting.
const DefaultDialTimeout = 3 * time.Second

// Client wraps the gompd client with lazy connection and reconnection.
type Client struct {
	mu          sync.Mutex
	client      *mpd.Client
	host        string
	port        int
	password    string
	dialTimeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDialTimeout overrides DefaultDialTimeout.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.dialTimeout = d
	}
}

// NewClient creates a client for host:port. It does not connect.
func NewClient(host string, port int, password string, opts ...ClientOption) *Client {
	c := &Client{
		host:        host,
		port:        port,
		password:    password,
		dialTimeout: DefaultDialTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Addr returns the MPD address.
func (c *Client) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// Connect establishes the connection.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked()
}

func (c *Client) connectLocked() error {
	addr := c.Addr()
	log.Info().Str("addr", addr).Msg("Connecting to MPD")

	client, err := dial(addr, c.dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to MPD: %w", err)
	}
	if c.password != "" {
		if err := client.Command("password %s", c.password).OK(); err != nil {
			client.Close()
			return fmt.Errorf("MPD authentication failed: %w", err)
		}
	}

	c.client = client
	log.Info().Str("addr", addr).Msg("Connected to MPD")
	return nil
}

// dial connects and reads the server greeting within timeout. A
// connection that completes after the deadline is closed.
func dial(addr string, timeout time.Duration) (*mpd.Client, error) {
	type result struct {
		client *mpd.Client
		err    error
	}
	ch := make(chan result, 1)
	go func() {
		client, err := mpd.Dial("tcp", addr)
		ch <- result{client, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.client, r.err
	case <-timer.C:
		go func() {
			if r := <-ch; r.client != nil {
				r.client.Close()
			}
		}()
		return nil, fmt.Errorf("dial %s: no answer within %s", addr, timeout)
	}
}

// do runs fn on a live connection, reconnecting once if the ping fails.
func (c *Client) do(fn func(*mpd.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		if err := c.client.Ping(); err != nil {
			log.Warn().Err(err).Msg("MPD connection lost, reconnecting")
			c.client.Close()
			c.client = nil
		}
	}
	if c.client == nil {
		if err := c.connectLocked(); err != nil {
			return err
		}
	}
	return fn(c.client)
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// Ping checks the existing connection without reconnecting.
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return ErrNotConnected
	}
	return c.client.Ping()
}

// Status returns the MPD status attributes.
func (c *Client) Status() (mpd.Attrs, error) {
	var attrs mpd.Attrs
	err := c.do(func(m *mpd.Client) error {
		var err error
		attrs, err = m.Status()
		return err
	})
	return attrs, err
}

// Play starts playback at pos, or resumes when pos is negative.
func (c *Client) Play(pos int) error {
	if pos < 0 {
		pos = -1
	}
	return c.do(func(m *mpd.Client) error { return m.Play(pos) })
}

// Pause pauses or resumes playback.
func (c *Client) Pause(pause bool) error {
	return c.do(func(m *mpd.Client) error { return m.Pause(pause) })
}

// Stop stops playback.
func (c *Client) Stop() error {
	return c.do(func(m *mpd.Client) error { return m.Stop() })
}

// SetVolume sets the volume, clamped to 0-100.
func (c *Client) SetVolume(vol int) error {
	if vol < 0 {
		vol = 0
	} else if vol > 100 {
		vol = 100
	}
	return c.do(func(m *mpd.Client) error { return m.SetVolume(vol) })
}

// SetRepeat sets repeat mode.
func (c *Client) SetRepeat(on bool) error {
	return c.do(func(m *mpd.Client) error { return m.Repeat(on) })
}

// SetSingle sets single mode.
func (c *Client) SetSingle(on bool) error {
	return c.do(func(m *mpd.Client) error { return m.Single(on) })
}

// Clear empties the queue.
func (c *Client) Clear() error {
	return c.do(func(m *mpd.Client) error { return m.Clear() })
}

// Add appends a URI to the queue.
func (c *Client) Add(uri string) error {
	return c.do(func(m *mpd.Client) error { return m.Add(uri) })
}
