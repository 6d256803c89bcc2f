package network

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"chat-relay/internal/game"
)

// ErrPayloadPending is returned when a text read is attempted before the
// declared binary payload has been consumed
var ErrPayloadPending = errors.New("binary payload not fully consumed")

// FrameReader splits a connection into newline-terminated text frames and
// length-delimited binary payloads. The mode is explicit: after ReadPayload
// the reader only yields payload bytes until exactly n have been consumed.
type FrameReader struct {
	r         *bufio.Reader
	remaining int64
}

// NewFrameReader wraps r for frame-oriented reading
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// ReadLine returns the next text line without its terminator
func (fr *FrameReader) ReadLine() (string, error) {
	if fr.remaining > 0 {
		return "", ErrPayloadPending
	}

	line, err := fr.r.ReadString('\n')
	if err != nil {
		// peer closed after an unterminated final line
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadFrame returns the next text frame. A STATE frame is reassembled from
// its StateLines lines; every other frame is one line.
func (fr *FrameReader) ReadFrame() (string, error) {
	first, err := fr.ReadLine()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(first, StatePrefix) {
		return first, nil
	}

	lines := []string{first}
	for len(lines) < StateLines {
		next, err := fr.ReadLine()
		if err != nil {
			return "", fmt.Errorf("truncated state frame: %w", err)
		}
		lines = append(lines, next)
	}
	return strings.Join(lines, "\n"), nil
}

// ReadPayload switches the reader to binary mode and returns a reader that
// yields exactly n bytes. Text reads fail until the payload is drained.
func (fr *FrameReader) ReadPayload(n int64) io.Reader {
	fr.remaining = n
	return &payloadReader{fr: fr}
}

// Discard drops whatever is left of the current payload
func (fr *FrameReader) Discard() error {
	for fr.remaining > 0 {
		chunk := fr.remaining
		if chunk > 1<<20 {
			chunk = 1 << 20
		}
		n, err := fr.r.Discard(int(chunk))
		fr.remaining -= int64(n)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
	}
	return nil
}

// Remaining reports how many payload bytes are still unread
func (fr *FrameReader) Remaining() int64 {
	return fr.remaining
}

type payloadReader struct {
	fr *FrameReader
}

func (p *payloadReader) Read(b []byte) (int, error) {
	if p.fr.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(b)) > p.fr.remaining {
		b = b[:p.fr.remaining]
	}
	n, err := p.fr.r.Read(b)
	p.fr.remaining -= int64(n)
	if errors.Is(err, io.EOF) && p.fr.remaining > 0 {
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}

// WriteFrame writes one text frame followed by its terminator
func WriteFrame(w io.Writer, frame string) error {
	_, err := io.WriteString(w, frame+"\n")
	return err
}

// ParseState decodes a reassembled STATE frame
func ParseState(frame string) (game.Grid, string, error) {
	var grid game.Grid

	body, ok := strings.CutPrefix(frame, StatePrefix)
	if !ok {
		return grid, "", fmt.Errorf("not a state frame: %w", ErrMalformedUnit)
	}
	idx := strings.LastIndex(body, ":")
	if idx < 0 {
		return grid, "", fmt.Errorf("state frame has no current player: %w", ErrMalformedUnit)
	}
	current := body[idx+1:]

	rows := strings.Split(body[:idx], "\n")
	if len(rows) != game.Size {
		return grid, "", fmt.Errorf("state grid has %d rows: %w", len(rows), ErrMalformedUnit)
	}
	for r, row := range rows {
		cells := strings.Split(row, "|")
		if len(cells) != game.Size {
			return grid, "", fmt.Errorf("state row %d has %d cells: %w", r, len(cells), ErrMalformedUnit)
		}
		for c, cell := range cells {
			switch game.Cell(cell) {
			case game.Empty, game.X, game.O:
				grid[r][c] = game.Cell(cell)
			default:
				return grid, "", fmt.Errorf("state cell %q: %w", cell, ErrMalformedUnit)
			}
		}
	}
	return grid, current, nil
}

// ParseForwardedFile decodes a [FILE]:<name>:<sender>:<size> header
func ParseForwardedFile(line string) (name, sender string, size int64, err error) {
	parts, ok := fields(line, TagFile)
	if !ok || len(parts) < 3 {
		return "", "", 0, fmt.Errorf("expected %s:<name>:<sender>:<size>: %w", TagFile, ErrMalformedUnit)
	}
	size, err = parseSize(parts[len(parts)-1])
	if err != nil {
		return "", "", 0, err
	}
	sender = parts[len(parts)-2]
	name = strings.Join(parts[:len(parts)-2], ":")
	return name, sender, size, nil
}
