// Package server owns the game-facing TLS listener: one accepted connection
// becomes one session goroutine speaking the text protocol against the shared
// game coordinator.
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"

	"live-quiz-service/internal/game"
)

// Server accepts TLS connections and hands each one to a session handler.
type Server struct {
	addr      string
	tlsConfig *tls.Config
	game      *game.Game
}

func New(addr string, cert tls.Certificate, g *game.Game) *Server {
	return &Server{
		addr:      addr,
		tlsConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
		game:      g,
	}
}

// Serve listens and accepts until ctx is cancelled. Cancellation closes the
// listener, which unblocks Accept; in-flight sessions finish on their own
// when their clients disconnect.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := tls.Listen("tcp", s.addr, s.tlsConfig)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.serve(ctx, ln)
}

// ServeListener is Serve over an already-open listener; tests use it to bind
// an ephemeral port.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	return s.serve(ctx, tls.NewListener(ln, s.tlsConfig))
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	log.Printf("[server] listening on %s", ln.Addr())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("[server] listener closed")
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConn(conn)
	}
}
