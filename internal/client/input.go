package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"chat-relay/internal/network"
)

// ErrInputClosed is returned once stdin is exhausted
var ErrInputClosed = errors.New("input closed")

// InputHandler reads user lines from the terminal
type InputHandler struct {
	scanner *bufio.Scanner
	display *Display
}

// NewInputHandler creates a new input handler
func NewInputHandler(in io.Reader, display *Display) *InputHandler {
	return &InputHandler{
		scanner: bufio.NewScanner(in),
		display: display,
	}
}

// ReadLine shows prompt (if any) and returns the next trimmed line
func (ih *InputHandler) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		ih.display.PrintPrompt(prompt)
	}
	if !ih.scanner.Scan() {
		if err := ih.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(ih.scanner.Text()), nil
}

// Command is one parsed line of user input
type Command struct {
	// Frames are sent to the server as-is
	Frames   []string
	SendFile string
	Help     bool
	Quit     bool
}

// ParseCommand turns a user line into protocol frames. Lines that do not
// start with a known slash command are sent unchanged.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, nil
	}

	need := func(n int, usage string) error {
		if len(fields) < n+1 {
			return fmt.Errorf("usage: %s", usage)
		}
		return nil
	}

	switch fields[0] {
	case "/help":
		return Command{Help: true}, nil
	case "/quit", "/exit":
		return Command{Quit: true, Frames: []string{network.TagLogout}}, nil
	case "/sendfile":
		path := strings.TrimSpace(strings.TrimPrefix(line, "/sendfile"))
		if path == "" {
			return Command{}, errors.New("usage: /sendfile <path>")
		}
		return Command{SendFile: path}, nil
	case "/to":
		if err := need(2, "/to <user,user> <text>"); err != nil {
			return Command{}, err
		}
		rest := strings.TrimSpace(strings.TrimPrefix(line, "/to"))
		targets, text, _ := strings.Cut(rest, " ")
		return Command{Frames: []string{network.CmdTo + targets + "|" + strings.TrimSpace(text)}}, nil
	case "/dm":
		if err := need(1, "/dm <user>"); err != nil {
			return Command{}, err
		}
		return Command{Frames: []string{network.TagDMRequest + ":" + fields[1]}}, nil
	case "/gc":
		if err := need(1, "/gc <user> [user...]"); err != nil {
			return Command{}, err
		}
		return Command{Frames: []string{network.TagGCRequest + ":" + strings.Join(fields[1:], ":")}}, nil
	case "/yes", "/no":
		if err := need(1, fields[0]+" <user>"); err != nil {
			return Command{}, err
		}
		reply := strings.TrimPrefix(fields[0], "/")
		return Command{Frames: []string{network.TagInviteReply + ":" + fields[1] + ":" + reply}}, nil
	case "/play":
		if err := need(1, "/play <user>"); err != nil {
			return Command{}, err
		}
		return Command{Frames: []string{gameCommand(network.ActionRequest, fields[1])}}, nil
	case "/accept":
		if err := need(1, "/accept <user>"); err != nil {
			return Command{}, err
		}
		return Command{Frames: []string{gameCommand(network.ActionAccept, fields[1])}}, nil
	case "/reject":
		if err := need(1, "/reject <user>"); err != nil {
			return Command{}, err
		}
		return Command{Frames: []string{gameCommand(network.ActionReject, fields[1])}}, nil
	case "/move":
		if err := need(3, "/move <opponent> <row> <col>"); err != nil {
			return Command{}, err
		}
		row, err := strconv.Atoi(fields[2])
		if err != nil {
			return Command{}, fmt.Errorf("row must be a number: %w", err)
		}
		col, err := strconv.Atoi(fields[3])
		if err != nil {
			return Command{}, fmt.Errorf("col must be a number: %w", err)
		}
		return Command{Frames: []string{gameCommand(network.ActionMove, fields[1], strconv.Itoa(row), strconv.Itoa(col))}}, nil
	default:
		return Command{Frames: []string{line}}, nil
	}
}

func gameCommand(action string, args ...string) string {
	return network.TagGame + ":" + action + ":" + strings.Join(args, ":")
}
