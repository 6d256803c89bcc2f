package network

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"chat-relay/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameReader_Reassembles_State(t *testing.T) {
	grid := game.NewGrid()
	grid[0][0] = game.X
	grid[1][1] = game.O

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, GameStart("bob", "X")))
	require.NoError(t, WriteFrame(&buf, GameState(grid.String(), "alice")))
	require.NoError(t, WriteFrame(&buf, ServerNotice("after")))

	fr := NewFrameReader(&buf)

	frame, err := fr.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "[TIC_TAC_TOE]:START:bob:X", frame)

	frame, err = fr.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "[TIC_TAC_TOE]:STATE:X| | \n |O| \n | | :alice", frame)

	decoded, current, err := ParseState(frame)
	require.NoError(t, err)
	assert.Equal(t, grid, decoded)
	assert.Equal(t, "alice", current)

	frame, err = fr.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, "[SERVER] after", frame)

	_, err = fr.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameReader_Truncated_State(t *testing.T) {
	fr := NewFrameReader(strings.NewReader("[TIC_TAC_TOE]:STATE: | | \n"))
	_, err := fr.ReadFrame()
	assert.Error(t, err)
}

func TestFrameReader_Payload_Mode(t *testing.T) {
	stream := "[FILE]:a.bin:5\nhello/exit\n"
	fr := NewFrameReader(strings.NewReader(stream))

	line, err := fr.ReadLine()
	require.NoError(t, err)
	u := Parse(line)
	require.Equal(t, KindFileAnnounce, u.Kind)

	payload := fr.ReadPayload(u.FileSize)

	_, err = fr.ReadLine()
	assert.ErrorIs(t, err, ErrPayloadPending)

	var out bytes.Buffer
	n, err := io.Copy(&out, payload)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, "hello", out.String())
	assert.Zero(t, fr.Remaining())

	line, err = fr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "/exit", line)
}

func TestFrameReader_Short_Payload(t *testing.T) {
	fr := NewFrameReader(strings.NewReader("abc"))
	_, err := io.CopyN(io.Discard, fr.ReadPayload(10), 10)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFrameReader_Discard(t *testing.T) {
	fr := NewFrameReader(strings.NewReader("0123456789next\n"))
	fr.ReadPayload(10)
	require.NoError(t, fr.Discard())

	line, err := fr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "next", line)
}

func TestFrameReader_Unterminated_Final_Line(t *testing.T) {
	fr := NewFrameReader(strings.NewReader("bye"))
	line, err := fr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "bye", line)

	_, err = fr.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestParseState_Rejects_Bad_Grids(t *testing.T) {
	for _, frame := range []string{
		"[TIC_TAC_TOE]:START:bob:X",
		"[TIC_TAC_TOE]:STATE: | | \n | | ",
		"[TIC_TAC_TOE]:STATE: | | \n | | :alice",
		"[TIC_TAC_TOE]:STATE: | \n | | \n | | :alice",
		"[TIC_TAC_TOE]:STATE:Z| | \n | | \n | | :alice",
	} {
		_, _, err := ParseState(frame)
		assert.ErrorIs(t, err, ErrMalformedUnit, frame)
	}
}

func TestParseForwardedFile(t *testing.T) {
	name, sender, size, err := ParseForwardedFile("[FILE]:a.txt:alice:12")
	require.NoError(t, err)
	assert.Equal(t, "a.txt", name)
	assert.Equal(t, "alice", sender)
	assert.Equal(t, int64(12), size)

	_, _, _, err = ParseForwardedFile("[FILE]:a.txt:12")
	assert.ErrorIs(t, err, ErrMalformedUnit)
}
