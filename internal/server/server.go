// Package server implements the TLS chat relay: sessions, routing, invitations,
// file relay and tic-tac-toe games
package server

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/pkg/logger"
)

// Server represents the TLS relay server
type Server struct {
	cfg      config.Config
	store    auth.Store
	registry *Registry
	router   *Router
	listener net.Listener

	// conns holds every open connection, authenticated or not, so Stop can close them
	conns     map[*Client]struct{}
	mu        sync.Mutex
	wg        sync.WaitGroup
	isRunning atomic.Bool
	logger    *logger.Logger
}

// NewServer creates a server that authenticates users against store
func NewServer(cfg config.Config, store auth.Store) *Server {
	registry := NewRegistry()
	return &Server{
		cfg:      cfg,
		store:    store,
		registry: registry,
		router:   NewRouter(registry),
		conns:    make(map[*Client]struct{}),
		logger:   logger.Server,
	}
}

// Registry exposes the shared session tables
func (s *Server) Registry() *Registry {
	return s.registry
}

// Listen loads the certificate and binds the TLS listener
func (s *Server) Listen() error {
	cert, err := tls.LoadX509KeyPair(s.cfg.CertFile, s.cfg.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}

	if err := os.MkdirAll(s.cfg.ScratchDir, 0755); err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	s.listener, err = tls.Listen("tcp", s.cfg.Address(), tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.isRunning.Store(true)
	s.logger.Info("Server started and listening on %s", s.listener.Addr())
	return nil
}

// Addr returns the bound address, or nil before Listen
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until Stop is called
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("server is not listening")
	}

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.isRunning.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error("Failed to accept connection: %v", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// Start listens and serves
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Stop shuts down the server and waits for every session to finish teardown
func (s *Server) Stop() error {
	if !s.isRunning.Swap(false) {
		return nil
	}

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}

	// Close all client connections
	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Server stopped")
	return err
}

func (s *Server) track(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = struct{}{}
}

func (s *Server) untrack(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}
