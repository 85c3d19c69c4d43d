package telemetry

import (
	"context"
	"sync"

	"github.com/lixenwraith/simlab/config"
	"github.com/lixenwraith/simlab/core"
)

// Server runs a Broadcaster on a TCP address as a lifecycle service
type Server struct {
	cfg    config.Telemetry
	source func() any
	b      *Broadcaster

	mu     sync.Mutex
	addr   string
	cancel context.CancelFunc
	done   chan struct{}
}

// NewServer creates a stopped server publishing source() every cfg.Interval
func NewServer(cfg config.Telemetry, source func() any, onCommand func(Command)) *Server {
	return &Server{
		cfg:    cfg,
		source: source,
		b:      NewBroadcaster(onCommand),
	}
}

// Name implements service.Service
func (s *Server) Name() string { return "telemetry" }

// Dependencies implements service.Service
func (s *Server) Dependencies() []string { return nil }

// Optional reports that a busy port does not abort startup
func (s *Server) Optional() bool { return true }

// Start binds the address and begins publishing
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}

	addr, err := s.b.ListenAndServe(s.cfg.Addr)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.addr, s.cancel, s.done = addr, cancel, make(chan struct{})

	done := s.done
	core.Go(func() {
		defer close(done)
		s.b.Run(ctx, s.source, s.cfg.Interval)
	})
	return nil
}

// Stop halts publishing and closes the listener and clients
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	return s.b.Close()
}

// Addr returns the bound address while running
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Broadcaster exposes the underlying fan-out
func (s *Server) Broadcaster() *Broadcaster {
	return s.b
}
