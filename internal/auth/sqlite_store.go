package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
  username   TEXT PRIMARY KEY,
  digest     TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  last_login INTEGER
);
`

// SQLiteStore keeps accounts in a SQLite database
type SQLiteStore struct {
	db   *sql.DB
	cost int
}

// NewSQLiteStore opens the database at path and ensures the schema exists
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite serialises writers anyway; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, cost: bcrypt.DefaultCost}, nil
}

func (s *SQLiteStore) Register(username, secret string) error {
	if err := ValidateCredentials(username, secret); err != nil {
		return err
	}

	digest, err := hashSecret(secret, s.cost)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		"INSERT INTO users(username, digest, created_at) VALUES (?, ?, ?)",
		username, digest, time.Now().Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Verify(username, secret string) error {
	var digest string
	err := s.db.QueryRow("SELECT digest FROM users WHERE username = ?", username).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("query user: %w", err)
	}

	if err := checkSecret(digest, secret); err != nil {
		return err
	}

	if _, err := s.db.Exec("UPDATE users SET last_login = ? WHERE username = ?", time.Now().Unix(), username); err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
