package server

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"chat-relay/internal/network"
	"chat-relay/pkg/logger"
)

// SessionState tracks where a connection is in its lifecycle
type SessionState int

const (
	StateConnecting SessionState = iota
	StateAuthenticating
	StateActive
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Client represents one connection and, once authenticated, one user.
// Username is set by Registry.Add and never changes afterwards.
type Client struct {
	ID       string
	Username string
	Remote   string

	conn   io.ReadWriteCloser
	reader *network.FrameReader
	writer *bufio.Writer
	state  SessionState

	// mu serialises writes so one logical message is never interleaved
	mu        sync.Mutex
	closeOnce sync.Once

	// guarded by the registry lock
	released bool
	report   TeardownReport
}

func newClient(conn io.ReadWriteCloser, remote string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		Remote: remote,
		conn:   conn,
		reader: network.NewFrameReader(conn),
		writer: bufio.NewWriter(conn),
		state:  StateConnecting,
	}
}

// name is used in log lines before and after authentication
func (c *Client) name() string {
	if c.Username != "" {
		return c.Username
	}
	return c.ID
}

func (c *Client) setState(state SessionState) {
	logger.Server.Debug("Session %s: %s -> %s", c.name(), c.state, state)
	c.state = state
}

// Send writes frames as one logical message
func (c *Client) Send(frames ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, frame := range frames {
		if err := network.WriteFrame(c.writer, frame); err != nil {
			return err
		}
	}
	return c.writer.Flush()
}

// SendFile writes the header frames followed by exactly size bytes from src,
// holding the send lock for the whole transfer
func (c *Client) SendFile(headers []string, src io.Reader, size int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, frame := range headers {
		if err := network.WriteFrame(c.writer, frame); err != nil {
			return err
		}
	}
	if _, err := io.CopyN(c.writer, src, size); err != nil {
		return fmt.Errorf("stream payload: %w", err)
	}
	return c.writer.Flush()
}

// Close closes the connection once; later calls are no-ops
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}
