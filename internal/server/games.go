package server

import (
	"chat-relay/internal/game"
	"chat-relay/internal/network"
	"chat-relay/pkg/logger"
)

// CreateGame tells both players a game has started and sends the empty board
func (s *Server) CreateGame(start GameStart) {
	g := start.Game
	state := network.GameState(g.Grid().String(), g.CurrentTurn())

	logger.Game.Info("Game started: %s (X) vs %s (O)", g.First(), g.Second())

	s.router.Deliver(start.X, network.GameStart(g.Second(), string(game.X)))
	s.router.Deliver(start.O, network.GameStart(g.First(), string(game.O)))
	s.router.Deliver(start.X, state)
	s.router.Deliver(start.O, state)
	s.router.Deliver(start.O, network.ServerNotice("Tic-Tac-Toe started with %s. You are %s.", g.First(), game.O))
	s.router.Deliver(start.X, network.ServerNotice("Tic-Tac-Toe started with %s. You are %s.", g.Second(), game.X))
}

// ApplyValidatedMove plays mover's move against opponent. Rejected moves are
// reported to the mover as a game error and change nothing.
func (s *Server) ApplyValidatedMove(mover *Client, opponent string, row, col int) error {
	report, err := s.registry.ApplyMove(mover.Username, opponent, row, col)
	if err != nil {
		logger.Game.Debug("Rejected move by %s against %s: %v", mover.Username, opponent, err)
		s.router.Deliver(mover, network.GameError(opponent, describe(err, opponent)))
		return err
	}

	res := report.Result
	state := network.GameState(res.Grid.String(), res.Next)
	s.router.Deliver(report.Mover, state)
	s.router.Deliver(report.Opponent, state)

	switch res.Outcome {
	case game.Win:
		logger.Game.Info("%s beat %s", mover.Username, opponent)
		s.router.Deliver(report.Mover, network.GameResult("You win!"))
		s.router.Deliver(report.Opponent, network.GameResult(mover.Username+" wins!"))
	case game.Draw:
		logger.Game.Info("%s and %s drew", mover.Username, opponent)
		s.router.Deliver(report.Mover, network.GameResult("Draw!"))
		s.router.Deliver(report.Opponent, network.GameResult("Draw!"))
	}
	return nil
}

// forfeit ends the games a departed user was playing
func (s *Server) forfeit(departed string, opponents []*Client) {
	for _, peer := range opponents {
		logger.Game.Info("%s forfeited against %s", departed, peer.Username)
		s.router.Deliver(peer, network.GameResult(departed+" disconnected. Game ended."))
	}
}
