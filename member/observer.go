package member

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"council/paxos"
)

// Event is one protocol occurrence streamed to attached dashboards:
// a PROMISE or ACCEPTED emitted by this member's acceptor in response
// to peer.
type Event struct {
	Member string        `json:"member"`
	Peer   string        `json:"peer"`
	Kind   string        `json:"kind"`
	Msg    paxos.Message `json:"message"`
}

// Observer is a per-member websocket broadcast hub: it has no effect
// on protocol state, and a member with no Observer attached behaves
// identically to one with a quiet one.
type Observer struct {
	address  string
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	broadcast chan Event
	quit      chan struct{}
}

// NewObserver builds a dashboard hub bound to address, serving a
// websocket endpoint at /events.
func NewObserver(address string) *Observer {
	return &Observer{
		address: address,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Event, 64),
		quit:      make(chan struct{}),
	}
}

// Start registers the /events handler and serves it in the
// background.
func (o *Observer) Start() {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", o.handleEvents)
	go o.handleBroadcast()
	go func() {
		if err := http.ListenAndServe(o.address, mux); err != nil {
			log.Printf("observer on %s stopped: %v", o.address, err)
		}
	}()
}

func (o *Observer) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := o.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("observer: upgrade failed: %v", err)
		return
	}

	o.mu.Lock()
	o.clients[conn] = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.clients, conn)
		o.mu.Unlock()
		conn.Close()
	}()

	// The feed is write-only; block here until the dashboard
	// disconnects so the defer above fires.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish queues an event for delivery to every connected dashboard.
// Non-blocking: a full buffer drops the event rather than stalling
// the protocol handler that called it.
func (o *Observer) Publish(e Event) {
	select {
	case o.broadcast <- e:
	default:
		log.Printf("observer: buffer full, dropping event for round with peer %s", e.Peer)
	}
}

func (o *Observer) handleBroadcast() {
	for {
		select {
		case e := <-o.broadcast:
			payload, err := json.Marshal(e)
			if err != nil {
				continue
			}
			o.mu.Lock()
			for client := range o.clients {
				if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
					client.Close()
					delete(o.clients, client)
				}
			}
			o.mu.Unlock()
		case <-o.quit:
			return
		}
	}
}

// Stop closes every connected dashboard connection.
func (o *Observer) Stop() {
	close(o.quit)
	o.mu.Lock()
	for client := range o.clients {
		client.Close()
	}
	o.clients = make(map[*websocket.Conn]bool)
	o.mu.Unlock()
}
