// internal/dns/server.go
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"iterdns.io/internal/logging"
	"iterdns.io/internal/models"
	"iterdns.io/internal/querylog"
	"iterdns.io/internal/resolver"
	"iterdns.io/internal/wire"
)

// Engine resolves a single domain name end-to-end.
type Engine interface {
	Resolve(ctx context.Context, domain string) (*resolver.Result, error)
}

// Server is the UDP-facing query loop. One datagram is processed
// end-to-end, including every network hop of the iterative walk, before the
// next is read; nothing is dispatched off this single path.
type Server struct {
	engine Engine
	log    *querylog.Log
	port   string

	conn *net.UDPConn

	statsMu sync.Mutex
	stats   Stats
}

// Stats holds DNS server statistics
type Stats struct {
	QueriesReceived int64
	QueriesAnswered int64
	QueriesServfail int64
	QueriesDropped  int64
}

// Config holds configuration for the DNS server
type Config struct {
	Port string
}

// DefaultConfig returns DNS server config with sensible defaults
func DefaultConfig() *Config {
	return &Config{Port: "5353"}
}

// NewServer creates a new DNS server instance
func NewServer(engine Engine, log *querylog.Log, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	return &Server{
		engine: engine,
		log:    log,
		port:   config.Port,
	}
}

// Start listens on the configured UDP port and serves queries until ctx is
// cancelled, then prints the metrics summary and releases the socket.
func (s *Server) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", "0.0.0.0:"+s.port)
	if err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP port %s: %w", s.port, err)
	}
	s.conn = conn

	logging.Info("dns", "DNS server listening", "port", s.port)

	// Closing the socket is the only way to unblock the read loop.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, wire.MaxDatagramSize)
	for {
		n, clientAddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				break
			}
			logging.Error("dns", "read failed", err)
			continue
		}
		s.handleDatagram(ctx, clientAddr, buf[:n])
	}

	logging.Info("dns", "DNS server shutting down")
	s.log.PrintSummary()
	return nil
}

// Stop releases the listening socket, unblocking Start.
func (s *Server) Stop() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Addr returns the bound socket address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// GetStats returns current server statistics
func (s *Server) GetStats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

func (s *Server) countQuery(update func(*Stats)) {
	s.statsMu.Lock()
	update(&s.stats)
	s.statsMu.Unlock()
}

// handleDatagram processes one incoming query: decode, resolve, respond.
func (s *Server) handleDatagram(ctx context.Context, clientAddr *net.UDPAddr, data []byte) {
	s.countQuery(func(st *Stats) { st.QueriesReceived++ })

	query, err := wire.Unpack(data)
	if err != nil || len(query.Question) == 0 {
		// Silently dropped: no reply, no log entry.
		s.countQuery(func(st *Stats) { st.QueriesDropped++ })
		return
	}

	question := query.Question[0]
	domain := models.TrimName(question.Name)

	logging.Debug("dns", "query received", "client", clientAddr.String(), "domain", domain)

	result, err := s.engine.Resolve(ctx, domain)

	msg := &wire.Message{
		Header: wire.Header{
			ID:       query.ID,
			Response: true,
		},
		Question: query.Question,
	}

	if err != nil {
		msg.Rcode = wire.RcodeServerFailure
		s.countQuery(func(st *Stats) { st.QueriesServfail++ })
		logging.Info("dns", "resolution failed", "domain", domain, "error", err.Error())
	} else {
		msg.Authoritative = true
		msg.Answer = result.Answers
		s.countQuery(func(st *Stats) { st.QueriesAnswered++ })
		logging.Info("dns", "answered", "domain", domain,
			"address", result.Address.String(), "servers_visited", result.ServersVisited,
			"from_cache", result.FromCache)
	}

	packed, err := msg.Pack()
	if err != nil {
		logging.Error("dns", "failed to pack response", err, "domain", domain)
		return
	}

	if _, err := s.conn.WriteToUDP(packed, clientAddr); err != nil {
		logging.Error("dns", "failed to send response", err, "client", clientAddr.String())
	}
}
