package server

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"chat-relay/internal/network"
	"chat-relay/pkg/logger"
)

// fileFraming selects how a relayed file is announced to recipients
type fileFraming int

const (
	// uploadFraming forwards as /file, <name>|<size>, bytes
	uploadFraming fileFraming = iota
	// announceFraming forwards as [FILE]:<name>:<sender>:<size>, bytes
	announceFraming
)

func (f fileFraming) headers(name, sender string, size int64) []string {
	if f == announceFraming {
		return []string{network.FileAnnounceHeader(name, sender, size)}
	}
	return network.FileUploadHeader(name, size)
}

// handleFileUpload reads the metadata line that follows /file and relays the payload
func (s *Server) handleFileUpload(c *Client) error {
	meta, err := c.reader.ReadLine()
	if err != nil {
		return err
	}
	name, size, err := network.ParseFileMeta(meta)
	if err != nil {
		// without a size the payload cannot be skipped, so only the header is rejected
		s.router.Deliver(c, network.ErrorNotice(err.Error()))
		return nil
	}
	return s.relayFile(c, name, size, uploadFraming)
}

// relayFile copies exactly size bytes from the sender into a scratch file and
// streams it to every other online user. Only a failure reading from the
// sender is returned.
func (s *Server) relayFile(c *Client, name string, size int64, framing fileFraming) error {
	name = sanitizeFileName(name)
	payload := c.reader.ReadPayload(size)

	if size > s.cfg.MaxFileSize {
		if err := c.reader.Discard(); err != nil {
			return err
		}
		logger.Relay.Warn("Rejected %s from %s: %d bytes exceeds limit", name, c.Username, size)
		s.router.Deliver(c, network.ErrorNotice(fmt.Sprintf("File %s exceeds the %d byte limit.", name, s.cfg.MaxFileSize)))
		return nil
	}

	transferID := uuid.NewString()
	path := filepath.Join(s.cfg.ScratchDir, transferID)
	if err := receive(path, payload, size); err != nil {
		os.Remove(path)
		if derr := c.reader.Discard(); derr != nil {
			return fmt.Errorf("receive %s: %w", name, derr)
		}
		logger.Relay.Error("Failed to store %s from %s: %v", name, c.Username, err)
		s.router.Deliver(c, network.ErrorNotice("Could not receive file "+name+"."))
		return nil
	}
	defer os.Remove(path)

	logger.Relay.Info("Transfer %s: %s (%d bytes) from %s", transferID, name, size, c.Username)

	headers := framing.headers(name, c.Username, size)
	delivered := 0
	for _, recipient := range s.registry.Clients(c) {
		if s.router.DeliverFile(recipient, headers, path, size) {
			delivered++
		} else {
			logger.Relay.Warn("Transfer %s: delivery to %s failed", transferID, recipient.Username)
		}
	}

	logger.Relay.Info("Transfer %s delivered to %d users", transferID, delivered)
	return nil
}

func receive(path string, payload io.Reader, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(f, payload, size); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// sanitizeFileName strips directories so a name can never escape the
// recipient's download folder
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == ".." || name == "/" || name == "" {
		return "file"
	}
	return name
}
