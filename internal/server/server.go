package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/campusctl/campusctl/internal/discovery"
	"github.com/campusctl/campusctl/internal/logging"
	"github.com/campusctl/campusctl/internal/version"
)

// Config holds the stub server configuration
type Config struct {
	Host      string
	Port      int
	Username  string // Learner account the stub serves
	Advertise bool   // If true, advertise the server over mDNS
	LogLevel  string
}

// Server is the stub platform server: HTTP account endpoints, a WebSocket
// event feed, and optional mDNS advertisement.
type Server struct {
	config     *Config
	store      *Store
	hub        *Hub
	httpServer *http.Server
	mdns       *zeroconf.Server
}

// New creates a new Server instance
func New(config *Config) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if config.Username == "" {
		return nil, errors.New("server requires a learner username")
	}

	hub := NewHub()
	store := NewStore(config.Username, hub.Broadcast)

	return &Server{
		config: config,
		store:  store,
		hub:    hub,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", config.Host, config.Port),
			Handler:           Handler(store, hub),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	logging.Info("Starting stub platform server",
		zap.String("addr", s.httpServer.Addr),
		zap.String("username", s.config.Username),
		zap.Bool("advertise", s.config.Advertise),
		zap.String("log_level", s.config.LogLevel),
	)

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}

	if s.config.Advertise {
		if err := s.advertise(listener); err != nil {
			_ = listener.Close()
			return err
		}
	}

	logging.Info("Server listening for connections",
		zap.String("addr", listener.Addr().String()),
	)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping server...")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// advertise registers the server as a "_campusctl._tcp" mDNS service so
// `campusctl scan` can find it.
func (s *Server) advertise(listener net.Listener) error {
	port := s.config.Port
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "campusctl"
	}

	txt := []string{
		"version=" + version.Version,
		"username=" + s.config.Username,
	}

	mdns, err := zeroconf.Register(
		fmt.Sprintf("campusctl-%s", hostname),
		discovery.ServiceType,
		discovery.ServiceDomain,
		port,
		txt,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	s.mdns = mdns

	logging.Info("Advertising server over mDNS",
		zap.String("service", discovery.ServiceType),
		zap.Int("port", port),
	)
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if s.mdns != nil {
		s.mdns.Shutdown()
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		logging.Warn("Shutdown timeout, forcing close", zap.Error(err))
		_ = s.httpServer.Close()
	}

	s.hub.Close()
	logging.Sync()
	return nil
}
