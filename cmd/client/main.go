// Command client is a terminal front end for the chat relay
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chat-relay/internal/client"
	"chat-relay/internal/config"
	"chat-relay/pkg/logger"
)

var (
	serverAddr  = flag.String("server", "", "Relay address host:port (default $CHAT_RELAY_SERVER or 127.0.0.1:5555)")
	caFile      = flag.String("ca", "", "PEM certificate used to verify the relay")
	insecure    = flag.Bool("insecure", false, "Accept any relay certificate")
	downloadDir = flag.String("downloads", "downloads", "Directory for received files")
	logLevel    = flag.String("log-level", "WARN", "Log level (DEBUG, INFO, WARN, ERROR)")
	logFile     = flag.String("log-file", "", "Mirror client logs to this file")
)

func main() {
	flag.Parse()

	opts, err := clientOptions()
	if err != nil {
		fmt.Fprintf(os.Stderr, "client: %v\n", err)
		os.Exit(2)
	}

	logger.SetGlobalLogLevel(logger.ParseLevel(*logLevel))
	if *logFile != "" {
		if err := logger.Client.SetFile(*logFile); err != nil {
			fmt.Fprintf(os.Stderr, "client: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.Close()

	chatClient := client.NewClient(opts)

	// Ctrl+C closes the connection; Start then returns on its own
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			logger.Client.Info("Interrupt received, leaving the relay")
			chatClient.Close()
		case <-ctx.Done():
		}
	}()

	if err := chatClient.Start(); err != nil {
		logger.Client.Error("Session with %s ended: %v", opts.ServerAddr, err)
		os.Exit(1)
	}
}

// clientOptions resolves the relay address and certificate policy
func clientOptions() (client.Options, error) {
	addr := *serverAddr
	if addr == "" {
		addr = config.GetStringOrDefault("CHAT_RELAY_SERVER",
			fmt.Sprintf("%s:%d", config.DefaultHost, config.DefaultPort))
	}
	if *insecure && *caFile != "" {
		return client.Options{}, errors.New("-ca and -insecure cannot be combined")
	}

	return client.Options{
		ServerAddr:  addr,
		CAFile:      *caFile,
		Insecure:    *insecure,
		DownloadDir: *downloadDir,
	}, nil
}
