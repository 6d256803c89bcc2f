// Chat Relay Server - Main Entry Point
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/server"
	"chat-relay/pkg/logger"
)

var (
	version   = "1.0.0"
	buildTime = "dev"
	envFile   = flag.String("env", ".env", "Optional dotenv file")
	port      = flag.Int("port", config.DefaultPort, "Server port")
	host      = flag.String("host", config.DefaultHost, "Server host")
	certFile  = flag.String("cert", "cert.pem", "TLS certificate file")
	keyFile   = flag.String("key", "key.pem", "TLS private key file")
	store     = flag.String("store", config.StoreJSON, "Credential store (memory, json, sqlite)")
	storePath = flag.String("store-path", "data/users.json", "Credential store path")
	logLevel  = flag.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	logFile   = flag.String("log-file", "", "Log file path (optional)")
	help      = flag.Bool("help", false, "Show help information")
	ver       = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	// Show help
	if *help {
		showHelp()
		return
	}

	// Show version
	if *ver {
		showVersion()
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	if err := initLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Server.Info("Starting Chat Relay Server v%s", version)

	credentials, err := auth.Open(cfg.StoreKind, cfg.StorePath)
	if err != nil {
		logger.Server.Fatal("Failed to open credential store: %v", err)
	}
	defer credentials.Close()

	logger.Server.Info("Credential store %q ready", cfg.StoreKind)

	relay := server.NewServer(cfg, credentials)
	if err := relay.Listen(); err != nil {
		logger.Server.Fatal("Server failed to start: %v", err)
	}

	// Setup graceful shutdown
	done := setupGracefulShutdown(relay)

	if err := relay.Serve(); err != nil {
		logger.Server.Fatal("Server stopped unexpectedly: %v", err)
	}
	<-done
}

// loadConfig reads the dotenv file and environment, then applies flags that
// were set explicitly on the command line
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(*envFile)
	if err != nil {
		return cfg, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "host":
			cfg.Host = *host
		case "cert":
			cfg.CertFile = *certFile
		case "key":
			cfg.KeyFile = *keyFile
		case "store":
			cfg.StoreKind = *store
		case "store-path":
			cfg.StorePath = *storePath
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-file":
			cfg.LogFile = *logFile
		}
	})

	return cfg, cfg.Validate()
}

// initLogging sets up the logging system
func initLogging(cfg config.Config) error {
	logger.SetGlobalLogLevel(logger.ParseLevel(cfg.LogLevel))

	// Set up file logging if specified
	if cfg.LogFile != "" {
		if err := logger.Server.SetFile(cfg.LogFile); err != nil {
			return fmt.Errorf("failed to set log file: %w", err)
		}
		logger.Server.Info("Logging to file: %s", cfg.LogFile)
	} else {
		// Initialize default file logging
		if err := logger.InitializeFileLogging("./logs"); err != nil {
			// Don't fail if we can't create log directory, just log to console
			logger.Server.Warn("Could not initialize file logging: %v", err)
		}
	}

	return nil
}

// setupGracefulShutdown stops the server on interrupt signals. The returned
// channel is closed once every session has been torn down.
func setupGracefulShutdown(relay *server.Server) <-chan struct{} {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		<-c
		logger.Server.Info("Received shutdown signal, stopping server...")
		relay.Stop()
		close(done)
	}()
	return done
}

// showHelp displays help information
func showHelp() {
	fmt.Printf(`Chat Relay Server v%s

USAGE:
    %s [OPTIONS]

OPTIONS:
    -env string          Dotenv file to load (default ".env")
    -port int            Server port (default %d)
    -host string         Server host (default "%s")
    -cert string         TLS certificate file (default "cert.pem")
    -key string          TLS private key file (default "key.pem")
    -store string        Credential store: memory, json, sqlite (default "json")
    -store-path string   Credential store path (default "data/users.json")
    -log-level string    Set log level (DEBUG, INFO, WARN, ERROR) (default "INFO")
    -log-file string     Set log file path (optional)
    -help                Show this help message
    -version             Show version information

ENVIRONMENT:
    CHAT_RELAY_HOST, CHAT_RELAY_PORT, CHAT_RELAY_CERT_FILE, CHAT_RELAY_KEY_FILE,
    CHAT_RELAY_STORE, CHAT_RELAY_STORE_PATH, CHAT_RELAY_SCRATCH_DIR,
    CHAT_RELAY_MAX_FILE_SIZE, CHAT_RELAY_LOG_LEVEL, CHAT_RELAY_LOG_FILE
    Flags given on the command line take precedence.

EXAMPLES:
    # Start server with default settings
    %s

    # Listen on all interfaces with a SQLite user database
    %s -host 0.0.0.0 -store sqlite -store-path data/users.db

    # Start with debug logging
    %s -log-level DEBUG

    # Generate a self-signed certificate for local testing
    openssl req -x509 -newkey rsa:2048 -nodes -keyout key.pem -out cert.pem -days 365 -subj "/CN=localhost"

SERVER FEATURES:
    - TLS listener with one session per connection
    - Registration and login against a pluggable credential store
    - Public chat, direct messages and named channel relay
    - DM, group chat and Tic-Tac-Toe invitations
    - Binary file relay to every online user
    - Tic-Tac-Toe games with turn enforcement and disconnect forfeit
`, version, os.Args[0], config.DefaultPort, config.DefaultHost, os.Args[0], os.Args[0], os.Args[0])
}

// showVersion displays version information
func showVersion() {
	fmt.Printf(`Chat Relay Server
Version: %s
Build Time: %s
`, version, buildTime)
}
