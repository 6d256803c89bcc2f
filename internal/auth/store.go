// Package auth verifies and registers relay users against a pluggable credential store
package auth

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned when the username is unknown or the secret does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserExists is returned when registering a username that is already taken.
	ErrUserExists = errors.New("username already exists")
	// ErrInvalidUsername is returned for usernames that cannot travel over the wire protocol.
	ErrInvalidUsername = errors.New("username must be 3-20 letters, digits, '_' or '-'")
	// ErrInvalidSecret is returned for secrets that are too short.
	ErrInvalidSecret = errors.New("password must be at least 4 characters")
)

const MinSecretLength = 4

// usernames double as protocol fields, so ':' ',' '|' and whitespace are excluded
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

// Store verifies and creates username/secret pairs.
// Implementations must be safe for concurrent use.
type Store interface {
	Register(username, secret string) error
	Verify(username, secret string) error
	Close() error
}

// ValidateCredentials checks the shape of a new username/secret pair
func ValidateCredentials(username, secret string) error {
	if !usernameRegex.MatchString(username) {
		return ErrInvalidUsername
	}
	if len(secret) < MinSecretLength {
		return ErrInvalidSecret
	}
	return nil
}

func hashSecret(secret string, cost int) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(digest), nil
}

func checkSecret(digest, secret string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
