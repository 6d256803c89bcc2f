package server

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/network"
	"chat-relay/pkg/logger"
	"github.com/stretchr/testify/require"
)

func init() {
	for _, l := range []*logger.Logger{logger.Server, logger.Relay, logger.Game, logger.Auth} {
		l.SetOutput(io.Discard)
	}
}

// fakeConn records writes and never yields input. Writes fail once
// failWrites is set or writeLimit writes have succeeded.
type fakeConn struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	failWrites bool
	writeLimit int
	writes     int
	closed     bool
}

func (f *fakeConn) Read([]byte) (int, error) { return 0, io.EOF }

func (f *fakeConn) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites || (f.writeLimit > 0 && f.writes >= f.writeLimit) {
		return 0, errors.New("broken pipe")
	}
	f.writes++
	return f.buf.Write(p)
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) setFailWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = true
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// frames decodes everything written so far
func (f *fakeConn) frames(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	data := append([]byte(nil), f.buf.Bytes()...)
	f.mu.Unlock()

	var out []string
	fr := network.NewFrameReader(bytes.NewReader(data))
	for {
		frame, err := fr.ReadFrame()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, frame)
	}
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buf.Reset()
}

// scriptedConn is a fakeConn whose reads come from in
type scriptedConn struct {
	fakeConn
	in io.Reader
}

func (s *scriptedConn) Read(p []byte) (int, error) { return s.in.Read(p) }

func newFakeClient(t *testing.T, reg *Registry, name string) (*Client, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	c := newClient(conn, "fake:"+name)
	require.NoError(t, reg.Add(c, name))
	return c, conn
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		Host:        "127.0.0.1",
		Port:        0,
		StoreKind:   config.StoreMemory,
		ScratchDir:  t.TempDir(),
		MaxFileSize: 1 << 20,
	}
	return NewServer(cfg, auth.NewMemoryStore())
}
