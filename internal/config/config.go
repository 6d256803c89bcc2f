// Package config loads server settings from an optional dotenv file and the environment
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

const (
	HostEnv        = "CHAT_RELAY_HOST"
	PortEnv        = "CHAT_RELAY_PORT"
	CertFileEnv    = "CHAT_RELAY_CERT_FILE"
	KeyFileEnv     = "CHAT_RELAY_KEY_FILE"
	StoreKindEnv   = "CHAT_RELAY_STORE"
	StorePathEnv   = "CHAT_RELAY_STORE_PATH"
	ScratchDirEnv  = "CHAT_RELAY_SCRATCH_DIR"
	MaxFileSizeEnv = "CHAT_RELAY_MAX_FILE_SIZE"
	LogLevelEnv    = "CHAT_RELAY_LOG_LEVEL"
	LogFileEnv     = "CHAT_RELAY_LOG_FILE"
)

// Credential store backends
const (
	StoreMemory = "memory"
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
)

const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = 5555
	DefaultMaxFileSize = 64 << 20
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds everything the relay server needs to start
type Config struct {
	Host     string
	Port     int
	CertFile string
	KeyFile  string

	StoreKind string
	StorePath string

	ScratchDir  string
	MaxFileSize int64

	LogLevel string
	LogFile  string
}

// Address returns host:port for the listener
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads envFile (if non-empty and present) into the process environment and
// builds a Config from CHAT_RELAY_* variables, falling back to defaults.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	port, err := GetIntOrDefault(PortEnv, DefaultPort)
	if err != nil {
		return Config{}, err
	}

	maxFileSize, err := GetInt64OrDefault(MaxFileSizeEnv, DefaultMaxFileSize)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Host:        GetStringOrDefault(HostEnv, DefaultHost),
		Port:        port,
		CertFile:    GetStringOrDefault(CertFileEnv, "cert.pem"),
		KeyFile:     GetStringOrDefault(KeyFileEnv, "key.pem"),
		StoreKind:   GetStringOrDefault(StoreKindEnv, StoreJSON),
		StorePath:   GetStringOrDefault(StorePathEnv, "data/users.json"),
		ScratchDir:  GetStringOrDefault(ScratchDirEnv, "received_files"),
		MaxFileSize: maxFileSize,
		LogLevel:    GetStringOrDefault(LogLevelEnv, "INFO"),
		LogFile:     GetStringOrDefault(LogFileEnv, ""),
	}, nil
}

// Validate checks that the configuration can start a server
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range: %w", c.Port, ErrInvalidConfig)
	}
	if c.CertFile == "" || c.KeyFile == "" {
		return fmt.Errorf("certificate and key files are required: %w", ErrInvalidConfig)
	}
	switch c.StoreKind {
	case StoreMemory:
	case StoreJSON, StoreSQLite:
		if c.StorePath == "" {
			return fmt.Errorf("store %q needs a path: %w", c.StoreKind, ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("unknown store %q: %w", c.StoreKind, ErrInvalidConfig)
	}
	if c.ScratchDir == "" {
		return fmt.Errorf("scratch directory is required: %w", ErrInvalidConfig)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive: %w", ErrInvalidConfig)
	}
	return nil
}
