package client

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chat-relay/internal/network"
	"chat-relay/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Client.SetOutput(io.Discard)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line   string
		frames []string
	}{
		{"hello there", []string{"hello there"}},
		{"/to bob,carol see you at 5", []string{"/to:bob,carol|see you at 5"}},
		{"/dm bob", []string{"[DM_REQUEST]:bob"}},
		{"/gc bob carol", []string{"[GC_REQUEST]:bob:carol"}},
		{"/yes alice", []string{"[INVITE_REPLY]:alice:yes"}},
		{"/no alice", []string{"[INVITE_REPLY]:alice:no"}},
		{"/play bob", []string{"[TIC_TAC_TOE]:REQUEST:bob"}},
		{"/accept alice", []string{"[TIC_TAC_TOE]:ACCEPT:alice"}},
		{"/reject alice", []string{"[TIC_TAC_TOE]:REJECT:alice"}},
		{"/move bob 2 1", []string{"[TIC_TAC_TOE]:MOVE:bob:2:1"}},
		{"[team_MSG]:raw frames pass through", []string{"[team_MSG]:raw frames pass through"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.frames, cmd.Frames)
		})
	}
}

func TestParseCommand_Special(t *testing.T) {
	cmd, err := ParseCommand("/quit")
	require.NoError(t, err)
	assert.True(t, cmd.Quit)
	assert.Equal(t, []string{"[LOGOUT]"}, cmd.Frames)

	cmd, err = ParseCommand("/sendfile ./my notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "./my notes.txt", cmd.SendFile)
	assert.Empty(t, cmd.Frames)

	cmd, err = ParseCommand("/help")
	require.NoError(t, err)
	assert.True(t, cmd.Help)

	for _, bad := range []string{"/move bob x 1", "/move bob 1", "/dm", "/to bob", "/sendfile"} {
		_, err := ParseCommand(bad)
		assert.Error(t, err, bad)
	}
}

// pipeClient wires a client to one end of an in-memory connection
func pipeClient(t *testing.T, input string) (*Client, net.Conn, *bytes.Buffer) {
	t.Helper()
	local, remote := net.Pipe()
	t.Cleanup(func() { remote.Close() })

	var out bytes.Buffer
	c := NewClient(Options{
		DownloadDir: t.TempDir(),
		In:          strings.NewReader(input),
		Out:         &out,
	})
	c.attach(local)
	return c, remote, &out
}

func TestClient_Authenticate_Answers_Prompts(t *testing.T) {
	c, server, _ := pipeClient(t, "x\nalice\npw\nr\nalice\nsecret\n")

	answers := make(chan []string, 1)
	go func() {
		fr := network.NewFrameReader(server)
		var got []string
		for _, reply := range []string{"[AUTH] Invalid choice.", "[AUTH] Registered successfully."} {
			for _, prompt := range []string{network.PromptChoice, network.PromptUsername, network.PromptPassword} {
				network.WriteFrame(server, prompt)
				line, err := fr.ReadLine()
				if err != nil {
					break
				}
				got = append(got, line)
			}
			network.WriteFrame(server, reply)
		}
		answers <- got
	}()

	require.NoError(t, c.authenticate())
	assert.Equal(t, []string{"x", "alice", "pw", "r", "alice", "secret"}, <-answers)
	assert.Equal(t, "alice", c.username)
}

func TestClient_Receives_Both_File_Framings(t *testing.T) {
	c, server, out := pipeClient(t, "")

	go func() {
		network.WriteFrame(server, "/file")
		network.WriteFrame(server, "notes.txt|6")
		server.Write([]byte("a\nb\nc\n"))
		network.WriteFrame(server, network.FileAnnounceHeader("../evil.bin", "bob", 3))
		server.Write([]byte{7, 8, 9})
		network.WriteFrame(server, network.FileAnnounceHeader("notes.txt", "bob", 2))
		server.Write([]byte("hi"))
		network.WriteFrame(server, "ACTIVE USERS: alice, bob")
		server.Close()
	}()

	c.messageHandler()

	dir := c.opts.DownloadDir
	data, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "evil.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 8, 9}, data)

	data, err = os.ReadFile(filepath.Join(dir, "notes_1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	assert.Contains(t, out.String(), "Online (2): alice, bob")
}

func TestClient_Renders_Game_Frames(t *testing.T) {
	c, server, out := pipeClient(t, "")
	c.username = "alice"

	go func() {
		network.WriteFrame(server, "[TIC_TAC_TOE]:START:bob:X")
		network.WriteFrame(server, "[TIC_TAC_TOE]:STATE:X| | \n |O| \n | | :alice")
		network.WriteFrame(server, "[TIC_TAC_TOE]:ERROR:bob:Not your turn.")
		network.WriteFrame(server, "[TIC_TAC_TOE]:RESULT:You win!")
		server.Close()
	}()

	c.messageHandler()

	text := out.String()
	assert.Contains(t, text, "Game with bob started, you play X")
	assert.Contains(t, text, "Your turn")
	assert.Contains(t, text, "Not your turn.")
	assert.Contains(t, text, "You win!")
}

func TestClient_SendFile(t *testing.T) {
	c, server, _ := pipeClient(t, "")

	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, os.WriteFile(path, []byte("12345"), 0644))

	received := make(chan string, 1)
	go func() {
		fr := network.NewFrameReader(server)
		cmd, _ := fr.ReadLine()
		meta, _ := fr.ReadLine()
		body, _ := io.ReadAll(fr.ReadPayload(5))
		received <- cmd + "\n" + meta + "\n" + string(body)
	}()

	require.NoError(t, c.SendFile(path))
	assert.Equal(t, "/file\nreport.txt|5\n12345", <-received)

	assert.Error(t, c.SendFile(filepath.Join(t.TempDir(), "missing.txt")))
}
