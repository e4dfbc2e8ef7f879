package tcptransport

import (
	"fmt"
	"log/slog"
	"net"

	"github.com/distlab/courier/comm"
)

// Builder can help building TCP transport endpoints.
type Builder struct {
	rank       comm.Rank
	registry   *comm.Registry
	listenAddr string
	peers      map[comm.Rank]string
	log        *slog.Logger
}

// MakeBuilder creates a builder with default parameters. The default
// listen address picks a free port on the loopback interface.
func MakeBuilder() Builder {
	return Builder{
		listenAddr: "127.0.0.1:0",
		peers:      map[comm.Rank]string{},
	}
}

// WithRank sets the rank this endpoint belongs to.
func (b Builder) WithRank(r comm.Rank) Builder {
	b.rank = r
	return b
}

// WithRegistry sets the tag-to-shape registry used to decode incoming
// frames.
func (b Builder) WithRegistry(r *comm.Registry) Builder {
	b.registry = r
	return b
}

// WithListenAddr sets the address the endpoint listens on.
func (b Builder) WithListenAddr(addr string) Builder {
	b.listenAddr = addr
	return b
}

// WithPeer associates a peer rank with its listen address.
func (b Builder) WithPeer(rank comm.Rank, addr string) Builder {
	peers := make(map[comm.Rank]string, len(b.peers)+1)
	for r, a := range b.peers {
		peers[r] = a
	}
	peers[rank] = addr
	b.peers = peers

	return b
}

// WithLogger sets the logger for transport-level diagnostics.
func (b Builder) WithLogger(log *slog.Logger) Builder {
	b.log = log
	return b
}

// Build creates the endpoint and starts accepting connections.
func (b Builder) Build(name string) (*Comp, error) {
	comm.NameMustBeValid(name)

	if b.registry == nil {
		panic("transport " + name + " built without a registry")
	}

	listener, err := net.Listen("tcp", b.listenAddr)
	if err != nil {
		return nil, fmt.Errorf("tcptransport: listen on %s: %w", b.listenAddr, err)
	}

	log := b.log
	if log == nil {
		log = slog.Default()
	}

	c := &Comp{
		name:     name,
		rank:     b.rank,
		registry: b.registry,
		log:      log,
		listener: listener,
		mailbox:  comm.NewMailbox(),
		peers:    b.peers,
		conns:    map[comm.Rank]net.Conn{},
	}

	go c.acceptLoop()

	return c, nil
}
