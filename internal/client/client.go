package client

import (
	"bufio"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"chat-relay/internal/network"
	"chat-relay/pkg/logger"
)

// Options configures a client
type Options struct {
	ServerAddr  string
	CAFile      string
	Insecure    bool
	DownloadDir string
	In          io.Reader
	Out         io.Writer
}

// Client represents the terminal chat client
type Client struct {
	opts     Options
	conn     net.Conn
	reader   *network.FrameReader
	writer   *bufio.Writer
	writeMu  sync.Mutex
	display  *Display
	input    *InputHandler
	username string
	logger   *logger.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewClient creates a new client instance
func NewClient(opts Options) *Client {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "downloads"
	}

	display := NewDisplay(opts.Out)
	return &Client{
		opts:    opts,
		display: display,
		input:   NewInputHandler(opts.In, display),
		logger:  logger.Client,
		done:    make(chan struct{}),
	}
}

// Start connects, authenticates and runs the interactive loop
func (c *Client) Start() error {
	c.display.PrintBanner()

	if err := c.connectToServer(); err != nil {
		c.display.PrintError(fmt.Sprintf("Failed to connect to server: %v", err))
		return err
	}
	defer c.Close()

	if err := c.authenticate(); err != nil {
		c.display.PrintError(fmt.Sprintf("Authentication failed: %v", err))
		return err
	}

	go c.messageHandler()
	return c.runMainLoop()
}

func (c *Client) tlsConfig() (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.opts.Insecure {
		cfg.InsecureSkipVerify = true
		return cfg, nil
	}
	if c.opts.CAFile != "" {
		pem, err := os.ReadFile(c.opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates in %s", c.opts.CAFile)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

// connectToServer establishes the TLS connection
func (c *Client) connectToServer() error {
	c.display.PrintInfo("Connecting to server...")

	cfg, err := c.tlsConfig()
	if err != nil {
		return err
	}
	conn, err := tls.Dial("tcp", c.opts.ServerAddr, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.attach(conn)
	c.display.PrintServerStatus("Connected to " + c.opts.ServerAddr)
	c.logger.Info("Connected to server at %s", c.opts.ServerAddr)
	return nil
}

func (c *Client) attach(conn net.Conn) {
	c.conn = conn
	c.reader = network.NewFrameReader(conn)
	c.writer = bufio.NewWriter(conn)
}

// authenticate answers the server's prompts until it reports success
func (c *Client) authenticate() error {
	for {
		frame, err := c.reader.ReadFrame()
		if err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}

		if !strings.HasPrefix(frame, network.TagAuth) {
			c.display.PrintServerStatus(frame)
			continue
		}

		prompt := strings.TrimSpace(strings.TrimPrefix(frame, network.TagAuth))
		if !strings.HasSuffix(prompt, ":") {
			if strings.Contains(prompt, network.AuthSuccessMarker) {
				c.display.PrintServerStatus(prompt)
				return nil
			}
			c.display.PrintWarning(prompt)
			continue
		}

		answer, err := c.input.ReadLine(prompt)
		if err != nil {
			return err
		}
		if frame == network.PromptUsername {
			c.username = answer
		}
		if err := c.send(answer); err != nil {
			return err
		}
	}
}

// runMainLoop reads user commands until quit or disconnect
func (c *Client) runMainLoop() error {
	c.display.PrintHelp()

	lines := make(chan string)
	inputErr := make(chan error, 1)
	go func() {
		for {
			line, err := c.input.ReadLine("")
			if err != nil {
				inputErr <- err
				return
			}
			lines <- line
		}
	}()

	for {
		select {
		case <-c.done:
			c.display.PrintWarning("Disconnected from server")
			return nil
		case err := <-inputErr:
			if errors.Is(err, ErrInputClosed) {
				c.send(network.TagLogout)
				return nil
			}
			return err
		case line := <-lines:
			quit, err := c.handleInput(line)
			if err != nil {
				c.display.PrintError(err.Error())
			}
			if quit {
				return nil
			}
		}
	}
}

func (c *Client) handleInput(line string) (bool, error) {
	cmd, err := ParseCommand(line)
	if err != nil {
		return false, err
	}
	if cmd.Help {
		c.display.PrintHelp()
		return false, nil
	}
	if cmd.SendFile != "" {
		return false, c.SendFile(cmd.SendFile)
	}
	if err := c.send(cmd.Frames...); err != nil {
		return true, err
	}
	return cmd.Quit, nil
}

func (c *Client) send(frames ...string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	for _, frame := range frames {
		if err := network.WriteFrame(c.writer, frame); err != nil {
			return err
		}
	}
	return c.writer.Flush()
}

// SendFile uploads the file at path to every other online user
func (c *Client) SendFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() || info.Size() == 0 {
		return fmt.Errorf("%s is not a non-empty file", path)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	for _, frame := range network.FileUploadHeader(filepath.Base(path), info.Size()) {
		if err := network.WriteFrame(c.writer, frame); err != nil {
			return err
		}
	}
	if _, err := io.CopyN(c.writer, f, info.Size()); err != nil {
		return fmt.Errorf("send %s: %w", path, err)
	}
	if err := c.writer.Flush(); err != nil {
		return err
	}

	c.display.PrintInfo(fmt.Sprintf("Sent %s (%d bytes)", filepath.Base(path), info.Size()))
	c.logger.Info("Uploaded %s (%d bytes)", path, info.Size())
	return nil
}

// messageHandler displays server frames until the connection closes
func (c *Client) messageHandler() {
	defer c.Close()

	for {
		frame, err := c.reader.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.logger.Error("Connection error: %v", err)
			}
			return
		}
		if err := c.handleFrame(frame); err != nil {
			c.logger.Error("Failed to handle %q: %v", frame, err)
			if !errors.Is(err, network.ErrMalformedUnit) {
				return
			}
		}
	}
}

// handleFrame renders one server frame. File headers pull their payload from
// the connection before returning.
func (c *Client) handleFrame(frame string) error {
	switch {
	case frame == network.CmdFile:
		meta, err := c.reader.ReadLine()
		if err != nil {
			return err
		}
		name, size, err := network.ParseFileMeta(meta)
		if err != nil {
			return err
		}
		return c.receiveFile(name, "", size)

	case strings.HasPrefix(frame, network.TagFile+":"):
		name, sender, size, err := network.ParseForwardedFile(frame)
		if err != nil {
			return err
		}
		return c.receiveFile(name, sender, size)

	case strings.HasPrefix(frame, network.TagGame+":"):
		c.handleGameFrame(frame)

	case strings.HasPrefix(frame, network.RosterPrefix):
		names := strings.Split(strings.TrimPrefix(frame, network.RosterPrefix), ", ")
		c.display.PrintRoster(names)

	case strings.HasPrefix(frame, network.TagInvite):
		inviter := strings.Fields(strings.TrimPrefix(frame, network.TagInvite))
		hint := "Answer with /yes <user> or /no <user>"
		if len(inviter) > 0 {
			hint = fmt.Sprintf("Answer with /yes %s or /no %s", inviter[0], inviter[0])
		}
		c.display.PrintInvite(frame, hint)

	case strings.HasPrefix(frame, "[DM from"):
		c.display.PrintDirect(frame)

	case strings.HasPrefix(frame, network.TagError):
		c.display.PrintError(strings.TrimSpace(strings.TrimPrefix(frame, network.TagError)))

	case strings.HasPrefix(frame, network.TagServer):
		c.display.PrintServerStatus(strings.TrimSpace(strings.TrimPrefix(frame, network.TagServer)))

	default:
		c.display.PrintChat(frame)
	}
	return nil
}

func (c *Client) handleGameFrame(frame string) {
	parts := strings.SplitN(strings.TrimPrefix(frame, network.TagGame+":"), ":", 3)
	switch parts[0] {
	case network.ActionInvite:
		if len(parts) > 1 {
			c.display.PrintInvite(parts[1]+" wants to play Tic-Tac-Toe.",
				fmt.Sprintf("Answer with /accept %s or /reject %s", parts[1], parts[1]))
		}
	case network.ActionStart:
		if len(parts) > 2 {
			c.display.PrintGameStart(parts[1], parts[2])
		}
	case network.ActionState:
		grid, current, err := network.ParseState(frame)
		if err != nil {
			c.display.PrintWarning("Unreadable board: " + err.Error())
			return
		}
		c.display.PrintBoard(grid, current, c.username)
	case network.ActionResult:
		c.display.PrintGameEnd(strings.TrimPrefix(frame, network.TagGame+":"+network.ActionResult+":"))
	case network.ActionError:
		if len(parts) > 2 {
			c.display.PrintError(parts[2])
		}
	default:
		c.display.PrintChat(frame)
	}
}

// receiveFile stores exactly size payload bytes under the download directory
func (c *Client) receiveFile(name, sender string, size int64) error {
	payload := c.reader.ReadPayload(size)

	if err := os.MkdirAll(c.opts.DownloadDir, 0755); err != nil {
		c.reader.Discard()
		return fmt.Errorf("create download directory: %w", err)
	}

	name = safeName(name)
	path := uniquePath(c.opts.DownloadDir, name)
	f, err := os.Create(path)
	if err != nil {
		if derr := c.reader.Discard(); derr != nil {
			return derr
		}
		c.display.PrintError(fmt.Sprintf("Cannot save %s: %v", name, err))
		return nil
	}
	defer f.Close()

	if _, err := io.CopyN(f, payload, size); err != nil {
		os.Remove(path)
		return fmt.Errorf("receive %s: %w", name, err)
	}

	c.display.PrintFileReceived(name, sender, path, size)
	c.logger.Info("Saved %s (%d bytes) to %s", name, size, path)
	return nil
}

// safeName keeps only the final path element of a sender-chosen name
func safeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return "file"
	}
	return name
}

// uniquePath avoids overwriting an earlier download with the same name
func uniquePath(dir, name string) string {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, base+"_"+strconv.Itoa(i)+ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// Close closes the connection
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
		c.logger.Info("Connection closed")
	})
}
