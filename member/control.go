package member

import (
	"fmt"
	"log"
	"net"
	"net/rpc"
)

// Control exposes a member's operator surface (spec.md §6's
// proposeValue) over net/rpc, grounded on the teacher's rpc/server.go
// (rpc.NewServer/RegisterName/ServeConn-per-connection). This is the
// "operator port" the council propose CLI verb dials into; it is
// entirely separate from the Paxos TCP inbox (transport.Server) and
// from the websocket observer feed.
type Control struct {
	member   *Member
	listener net.Listener
}

// ProposeArgs is the net/rpc argument for Control.Propose.
type ProposeArgs struct {
	Value string
}

// ProposeReply is the net/rpc result for Control.Propose.
type ProposeReply struct {
	Chosen bool
	Value  string
}

// NewControl builds an operator control endpoint for m.
func NewControl(m *Member) *Control {
	return &Control{member: m}
}

// Propose is the net/rpc-exported method: ProposeArgs in, ProposeReply
// out, error return, matching the signature net/rpc requires. It
// blocks until the round ends, exactly like Member.Propose.
func (c *Control) Propose(args *ProposeArgs, reply *ProposeReply) error {
	result := c.member.Propose(args.Value)
	reply.Chosen = result.Chosen
	reply.Value = result.Value
	return nil
}

// Start binds address and serves RPC connections in the background.
func (c *Control) Start(address string) error {
	rpcServer := rpc.NewServer()
	if err := rpcServer.RegisterName("Control", c); err != nil {
		return fmt.Errorf("register control service: %w", err)
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("control listen on %s: %w", address, err)
	}
	c.listener = listener

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				log.Printf("control %s: accept loop stopping: %v", address, err)
				return
			}
			go rpcServer.ServeConn(conn)
		}
	}()
	return nil
}

// Stop closes the control listener.
func (c *Control) Stop() {
	if c.listener != nil {
		c.listener.Close()
	}
}
