package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_BroadcastAll_Excludes_Sender(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg)
	alice, aliceConn := newFakeClient(t, reg, "alice")
	_, bobConn := newFakeClient(t, reg, "bob")
	_, carolConn := newFakeClient(t, reg, "carol")

	router.BroadcastAll("alice: hi", alice)

	assert.Empty(t, aliceConn.frames(t))
	assert.Equal(t, []string{"alice: hi"}, bobConn.frames(t))
	assert.Equal(t, []string{"alice: hi"}, carolConn.frames(t))
}

func TestRouter_BroadcastRoster(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg)
	_, bobConn := newFakeClient(t, reg, "bob")
	newFakeClient(t, reg, "alice")

	router.BroadcastRoster()
	assert.Equal(t, []string{"ACTIVE USERS: alice, bob"}, bobConn.frames(t))
}

func TestRouter_Write_Failure_Drops_Recipient(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg)
	_, aliceConn := newFakeClient(t, reg, "alice")
	_, bobConn := newFakeClient(t, reg, "bob")
	bobConn.failWrites = true

	router.BroadcastAll("[SERVER] hello", nil)

	assert.Equal(t, []string{"[SERVER] hello"}, aliceConn.frames(t))
	assert.True(t, bobConn.isClosed())
	_, ok := reg.Lookup("bob")
	assert.False(t, ok)
	assert.Equal(t, []string{"alice"}, reg.Names())
}

func TestRouter_SendToMany(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg)
	alice, aliceConn := newFakeClient(t, reg, "alice")
	_, bobConn := newFakeClient(t, reg, "bob")
	_, carolConn := newFakeClient(t, reg, "carol")

	missing := router.SendToMany("[DM from alice]: psst", []string{"bob", "ghost", "alice"}, alice)

	assert.Equal(t, []string{"ghost"}, missing)
	assert.Equal(t, []string{"[DM from alice]: psst"}, bobConn.frames(t))
	assert.Empty(t, carolConn.frames(t))
	assert.Empty(t, aliceConn.frames(t))
}

func TestRouter_SendToOne(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg)
	_, bobConn := newFakeClient(t, reg, "bob")

	require.NoError(t, router.SendToOne("ping", "bob"))
	assert.Equal(t, []string{"ping"}, bobConn.frames(t))

	assert.ErrorIs(t, router.SendToOne("ping", "ghost"), ErrTargetNotFound)
}

func TestRouter_DeliverFile(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg)
	bob, bobConn := newFakeClient(t, reg, "bob")

	path := filepath.Join(t.TempDir(), "payload")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	require.True(t, router.DeliverFile(bob, []string{"/file", "a.txt|5"}, path, 5))
	assert.Equal(t, "/file\na.txt|5\nhello", bobConn.buf.String())
}
