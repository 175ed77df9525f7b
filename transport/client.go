package transport

import (
	"encoding/json"
	"log"
	"net"
	"time"

	"council/paxos"
	"council/roster"
)

// dialTimeout bounds how long a send waits to establish a connection
// before giving up; a dial failure, like an unknown peer or a failed
// write, is swallowed per spec.md §4.7 (no retry, no error to caller).
const dialTimeout = 2 * time.Second

// Client is the outbound sender: one fresh connection per message.
type Client struct {
	rost roster.Roster
}

// NewClient builds a sender that resolves peer ids through rost.
func NewClient(rost roster.Roster) *Client {
	return &Client{rost: rost}
}

// Send delivers one envelope to the named peer. A connection failure
// (unreachable peer, refused connection, timeout) is logged and
// swallowed; the caller never learns whether delivery succeeded,
// matching the unicast contract's "modeled as unreliable but
// non-reordering per pair" semantics.
func (c *Client) Send(to string, env paxos.Envelope) {
	endpoint, known := c.rost[to]
	if !known {
		log.Printf("transport: unknown peer %s, dropping send", to)
		return
	}

	conn, err := net.DialTimeout("tcp", endpoint.Addr(), dialTimeout)
	if err != nil {
		log.Printf("transport: cannot reach %s: %v", to, err)
		return
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(env); err != nil {
		log.Printf("transport: failed writing to %s: %v", to, err)
	}
}

// Broadcast implements paxos.Sender: it sends msg, addressed from
// senderID, to every id in to, each over its own connection.
func (c *Client) Broadcast(senderID, roundID string, to []string, msg paxos.Message) {
	for _, peer := range to {
		c.Send(peer, paxos.Envelope{
			SenderID:   senderID,
			ReceiverID: peer,
			RoundID:    roundID,
			Message:    msg,
		})
	}
}
