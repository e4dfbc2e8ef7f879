// Package memtransport provides an in-process implementation of the
// comm.Transport contract. All ranks live in one binary and exchange
// messages through per-rank mailboxes, which makes it the reference
// transport for single-machine testbeds and for tests.
package memtransport

import (
	"fmt"

	"github.com/distlab/courier/comm"
)

// Comp is the shared fabric connecting every rank in the testbed. Each
// rank obtains its own endpoint from it; the endpoints are what implement
// comm.Transport.
type Comp struct {
	name      string
	mailboxes map[comm.Rank]*comm.Mailbox
}

// Name returns the name of the fabric.
func (c *Comp) Name() string {
	return c.name
}

// Endpoint returns the transport endpoint for one rank. It panics when
// the rank was not part of the fabric's configuration.
func (c *Comp) Endpoint(rank comm.Rank) comm.Transport {
	if _, ok := c.mailboxes[rank]; !ok {
		panic(fmt.Sprintf("rank %d is not part of fabric %s", rank, c.name))
	}

	return &endpoint{fabric: c, rank: rank}
}

// Close shuts the fabric down. Blocked receives on every rank return
// comm.ErrClosed and further sends are rejected.
func (c *Comp) Close() {
	for _, mb := range c.mailboxes {
		mb.Close()
	}
}

type endpoint struct {
	fabric *Comp
	rank   comm.Rank
}

func (e *endpoint) Send(msg comm.Msg, dst comm.Rank, tag comm.Tag) error {
	return e.deliver(comm.Envelope{
		Src:  e.rank,
		Tag:  tag,
		Msgs: []comm.Msg{msg},
	}, dst)
}

func (e *endpoint) SendVector(msgs []comm.Msg, dst comm.Rank, tag comm.Tag) error {
	if len(msgs) == 0 {
		return fmt.Errorf("memtransport: empty vector send to rank %d", dst)
	}

	return e.deliver(comm.Envelope{
		Src:  e.rank,
		Tag:  tag,
		Msgs: append([]comm.Msg(nil), msgs...),
	}, dst)
}

func (e *endpoint) Recv(src comm.Rank, tag comm.Tag) (comm.Msg, comm.Status, error) {
	return e.fabric.mailboxes[e.rank].Recv(src, tag)
}

func (e *endpoint) RecvVector(src comm.Rank, tag comm.Tag) ([]comm.Msg, comm.Status, error) {
	return e.fabric.mailboxes[e.rank].RecvVector(src, tag)
}

func (e *endpoint) Probe(src comm.Rank, tag comm.Tag) (int, bool) {
	return e.fabric.mailboxes[e.rank].Probe(src, tag)
}

func (e *endpoint) deliver(env comm.Envelope, dst comm.Rank) error {
	mb, ok := e.fabric.mailboxes[dst]
	if !ok {
		return fmt.Errorf("memtransport: rank %d is not part of fabric %s",
			dst, e.fabric.name)
	}

	return mb.Deliver(env)
}
