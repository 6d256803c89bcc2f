package server

import (
	"errors"

	"chat-relay/internal/network"
)

// RequestInvite records an invitation from inviter to target and prompts the
// target. Failures are reported to the inviter and returned.
func (s *Server) RequestInvite(inviter *Client, target string, kind network.InviteKind) error {
	targetClient, err := s.registry.RequestInvite(inviter.Username, target, kind)
	if err != nil {
		s.router.Deliver(inviter, network.ServerNotice("%s", inviteFailure(err, target, kind)))
		return err
	}

	s.logger.Info("%s invited %s (%s)", inviter.Username, target, kind)
	if kind == network.InviteGame {
		s.router.Deliver(targetClient, network.GameInvite(inviter.Username))
	} else {
		s.router.Deliver(targetClient, network.FormatInvite(inviter.Username, kind))
	}
	return nil
}

func inviteFailure(err error, target string, kind network.InviteKind) string {
	if errors.Is(err, ErrAlreadyPendingOrActive) {
		if kind == network.InviteGame {
			return "Game already exists or pending with " + target + "."
		}
		return "Invitation to " + target + " already pending."
	}
	return describe(err, target)
}

// ResolveInvite answers the oldest DM or group chat invitation from inviter
func (s *Server) ResolveInvite(target *Client, inviter string, accept bool) error {
	inviterClient, kind, err := s.registry.ResolveInvite(target.Username, inviter)
	if err != nil {
		s.router.Deliver(target, network.ErrorNotice("No pending invitation from "+inviter+"."))
		return err
	}

	s.logger.Info("%s answered %s invitation from %s: accept=%t", target.Username, kind, inviter, accept)
	if accept {
		s.router.Deliver(inviterClient, network.ServerNotice("%s accepted your invitation.", target.Username))
	} else {
		s.router.Deliver(inviterClient, network.ServerNotice("%s rejected your invitation.", target.Username))
	}
	return nil
}

// AcceptGame starts the game inviter offered to target
func (s *Server) AcceptGame(target *Client, inviter string) error {
	start, err := s.registry.AcceptGame(target.Username, inviter)
	if err != nil {
		s.router.Deliver(target, network.ServerNotice("No pending game invitation from %s.", inviter))
		return err
	}
	s.CreateGame(start)
	return nil
}

// RejectGame declines the game inviter offered to target
func (s *Server) RejectGame(target *Client, inviter string) error {
	inviterClient, err := s.registry.RejectGame(target.Username, inviter)
	if err != nil {
		s.router.Deliver(target, network.ErrorNotice("No pending game invitation from "+inviter+"."))
		return err
	}
	s.router.Deliver(inviterClient, network.ServerNotice("%s rejected your Tic-Tac-Toe invitation.", target.Username))
	return nil
}
