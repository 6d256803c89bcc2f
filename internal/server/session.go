package server

import (
	"errors"
	"io"
	"net"
	"strings"

	"chat-relay/internal/network"
	"chat-relay/pkg/logger"
)

// errLogout ends the dispatch loop on an explicit logout
var errLogout = errors.New("logout")

// handleConn runs one connection from accept to close
func (s *Server) handleConn(conn net.Conn) {
	client := newClient(conn, conn.RemoteAddr().String())
	s.track(client)
	defer s.teardown(client)

	if !s.isRunning.Load() {
		return
	}

	s.logger.Info("New client connected: %s from %s", client.ID, client.Remote)

	client.setState(StateAuthenticating)
	if err := s.authenticate(client); err != nil {
		s.logger.Info("Client %s left during authentication: %v", client.ID, err)
		return
	}

	client.setState(StateActive)
	s.announceJoin(client)

	for {
		line, err := client.reader.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("Read from %s failed: %v", client.Username, err)
			}
			return
		}

		unit := network.Parse(line)
		s.logger.Debug("Received %s from %s", unit.Kind, client.Username)

		if err := s.dispatch(client, unit); err != nil {
			if !errors.Is(err, errLogout) {
				s.logger.Warn("Session %s ended: %v", client.Username, err)
			}
			return
		}
	}
}

// authenticate runs the three-step prompt cycle until a user is signed in.
// It returns only a transport error.
func (s *Server) authenticate(c *Client) error {
	for {
		choice, err := s.prompt(c, network.PromptChoice)
		if err != nil {
			return err
		}
		username, err := s.prompt(c, network.PromptUsername)
		if err != nil {
			return err
		}
		secret, err := s.prompt(c, network.PromptPassword)
		if err != nil {
			return err
		}

		reply, ok := s.evaluateAuth(c, choice, username, secret)
		if err := c.Send(network.AuthReply(reply)); err != nil {
			if ok {
				s.registry.Abandon(c)
			}
			return err
		}
		if ok {
			return nil
		}
	}
}

func (s *Server) prompt(c *Client, prompt string) (string, error) {
	if err := c.Send(prompt); err != nil {
		return "", err
	}
	answer, err := c.reader.ReadLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// evaluateAuth verifies or registers the credentials and claims the name in
// the directory. The reply is the text for the [AUTH] line.
func (s *Server) evaluateAuth(c *Client, choice, username, secret string) (string, bool) {
	var success string

	switch strings.ToLower(choice) {
	case "r":
		if err := s.store.Register(username, secret); err != nil {
			logger.Auth.Info("Registration failed for %q: %v", username, err)
			return describeAuth(err), false
		}
		success = "Registered successfully."
	case "l":
		if err := s.store.Verify(username, secret); err != nil {
			logger.Auth.Info("Login failed for %q: %v", username, err)
			return describeAuth(err), false
		}
		success = "Logged in successfully."
	default:
		return "Invalid choice.", false
	}

	if err := s.registry.Add(c, username); err != nil {
		logger.Auth.Info("Rejected second session for %s", username)
		return describeAuth(err), false
	}

	logger.Auth.Info("%s authenticated from %s", username, c.Remote)
	return success, true
}

func (s *Server) announceJoin(c *Client) {
	s.router.Deliver(c, network.ServerNotice("Welcome %s!", c.Username))
	s.router.BroadcastRoster()
	s.router.BroadcastAll(network.ServerNotice("%s joined the chat.", c.Username), c)
}

// dispatch handles one unit. A returned error ends the session.
func (s *Server) dispatch(c *Client, u network.Unit) error {
	switch u.Kind {
	case network.KindEmpty:
	case network.KindMalformed:
		s.router.Deliver(c, network.ErrorNotice(u.Err.Error()))
	case network.KindLogout:
		return errLogout
	case network.KindChat:
		s.router.BroadcastAll(network.FormatChat(c.Username, u.Text), c)
	case network.KindChannel:
		s.router.BroadcastAll(u.Raw, c)
	case network.KindDirect:
		s.router.SendToMany(network.FormatDirect(c.Username, u.Text), u.Targets, c)
	case network.KindDMRequest:
		s.RequestInvite(c, u.Target, network.InviteDM)
	case network.KindGCRequest:
		for _, target := range u.Targets {
			s.RequestInvite(c, target, network.InviteGroupChat)
		}
	case network.KindInviteReply:
		s.ResolveInvite(c, u.Target, u.Accept)
	case network.KindGameRequest:
		s.RequestInvite(c, u.Target, network.InviteGame)
	case network.KindGameAccept:
		s.AcceptGame(c, u.Target)
	case network.KindGameReject:
		s.RejectGame(c, u.Target)
	case network.KindGameMove:
		s.ApplyValidatedMove(c, u.Target, u.Row, u.Col)
	case network.KindFileUpload:
		return s.handleFileUpload(c)
	case network.KindFileAnnounce:
		return s.relayFile(c, u.FileName, u.FileSize, announceFraming)
	}
	return nil
}

// teardown removes every trace of the session and closes its connection
func (s *Server) teardown(c *Client) {
	c.setState(StateClosing)
	s.untrack(c)

	if c.Username != "" {
		report := s.registry.Teardown(c)
		if report.Owned {
			name := c.Username
			for _, peer := range report.InviteCounterparts {
				s.router.Deliver(peer, network.ServerNotice("%s disconnected. Invitation canceled.", name))
			}
			for _, peer := range report.GameInviteCounterparts {
				s.router.Deliver(peer, network.ServerNotice("%s disconnected. Tic-Tac-Toe invitation canceled.", name))
			}
			s.forfeit(name, report.Forfeits)

			s.router.BroadcastAll(network.ServerNotice("%s left the chat.", name), c)
			s.router.BroadcastRoster()
		}
		s.logger.Info("%s disconnected", c.Username)
	} else {
		s.logger.Info("Client disconnected: %s", c.ID)
	}

	c.Close()
	c.setState(StateClosed)
}
