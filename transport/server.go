// Package transport is the connection-per-message inbox/outbound
// layer carrying paxos.Envelope values between council members: one
// JSON document per TCP connection, no ordering guaranteed between
// connections.
package transport

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync"

	"council/paxos"
)

// Handler processes one decoded inbound envelope. It runs on its own
// connection's goroutine, so a slow or delaying Handler never blocks
// the accept loop from taking the next connection.
type Handler func(paxos.Envelope)

// Server is a member's inbox: it binds one TCP endpoint, accepts
// connections concurrently, decodes exactly one envelope per
// connection, and hands it to Handler.
type Server struct {
	address  string
	handler  Handler
	listener net.Listener
	quit     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewServer creates an inbox bound to address, dispatching every
// successfully decoded envelope to handler.
func NewServer(address string, handler Handler) *Server {
	return &Server{
		address: address,
		handler: handler,
		quit:    make(chan struct{}),
	}
}

// Start binds the listener and begins accepting connections in the
// background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("inbox listen on %s: %w", s.address, err)
	}
	s.listener = listener

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				log.Printf("inbox accept error on %s: %v", s.address, err)
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection decodes exactly one envelope and closes. Malformed
// or truncated payloads are logged and dropped without affecting any
// other connection or acceptor state.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	var env paxos.Envelope
	if err := json.NewDecoder(conn).Decode(&env); err != nil {
		log.Printf("inbox %s: dropping malformed payload: %v", s.address, err)
		return
	}
	s.handler(env)
}

// Stop closes the listener and waits for in-flight handlers to finish.
// Safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.listener != nil {
			s.listener.Close()
		}
	})
	s.wg.Wait()
}
