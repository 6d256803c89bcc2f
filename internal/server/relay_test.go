package server

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSender(t *testing.T, s *Server, name, input string) *Client {
	t.Helper()
	c := newClient(&scriptedConn{in: strings.NewReader(input)}, "fake:"+name)
	require.NoError(t, s.registry.Add(c, name))
	return c
}

func TestServer_RelayFile_Continues_Past_Failed_Recipient(t *testing.T) {
	s := newTestServer(t)
	sender := newSender(t, s, "alice", "hello")
	_, bobConn := newFakeClient(t, s.registry, "bob")
	_, carolConn := newFakeClient(t, s.registry, "carol")
	_, daveConn := newFakeClient(t, s.registry, "dave")
	carolConn.setFailWrites()

	require.NoError(t, s.relayFile(sender, "notes.txt", 5, announceFraming))

	want := "[FILE]:notes.txt:alice:5\nhello"
	assert.Equal(t, want, bobConn.buf.String())
	assert.Equal(t, want, daveConn.buf.String())

	assert.True(t, carolConn.isClosed())
	assert.Equal(t, []string{"alice", "bob", "dave"}, s.registry.Names())

	entries, err := os.ReadDir(s.cfg.ScratchDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestServer_RelayFile_Upload_Framing_Strips_Directories(t *testing.T) {
	s := newTestServer(t)
	sender := newSender(t, s, "alice", "../../x.bin|3\nabc")
	_, bobConn := newFakeClient(t, s.registry, "bob")

	require.NoError(t, s.handleFileUpload(sender))
	assert.Equal(t, "/file\nx.bin|3\nabc", bobConn.buf.String())
}
