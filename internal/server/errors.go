package server

import (
	"errors"
	"fmt"

	"chat-relay/internal/auth"
	"chat-relay/internal/game"
)

var (
	ErrAlreadyLoggedIn        = errors.New("user already logged in")
	ErrTargetNotFound         = errors.New("target not found")
	ErrAlreadyPendingOrActive = errors.New("invitation already pending or session active")
	ErrSelfInvite             = errors.New("cannot invite yourself")
	ErrNoSuchInvite           = errors.New("no such invitation")
	ErrNoActiveGame           = errors.New("no active game")
)

// describe turns a sentinel into the text sent over the wire. subject is the
// other user the failed operation was about.
func describe(err error, subject string) string {
	switch {
	case errors.Is(err, ErrTargetNotFound):
		return fmt.Sprintf("User %s not found.", subject)
	case errors.Is(err, ErrSelfInvite):
		return "You cannot invite yourself."
	case errors.Is(err, ErrNoActiveGame):
		return fmt.Sprintf("No active game with %s.", subject)
	case errors.Is(err, game.ErrNotYourTurn):
		return "Not your turn."
	case errors.Is(err, game.ErrOutOfBounds):
		return "Move out of bounds."
	case errors.Is(err, game.ErrCellOccupied):
		return "Cell already occupied."
	default:
		return "Invalid move."
	}
}

// describeAuth is describe for the [AUTH] exchange. Store failures that are
// not about the credentials get a generic reply.
func describeAuth(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials."
	case errors.Is(err, auth.ErrUserExists):
		return "Username already exists."
	case errors.Is(err, auth.ErrInvalidUsername):
		return "Username must be 3-20 letters, digits, '_' or '-'."
	case errors.Is(err, auth.ErrInvalidSecret):
		return fmt.Sprintf("Password must be at least %d characters.", auth.MinSecretLength)
	case errors.Is(err, ErrAlreadyLoggedIn):
		return "User already logged in."
	default:
		return "Authentication failed."
	}
}
