// Package tcptransport implements the comm.Transport contract over TCP,
// so that ranks can live in different binaries or on different hosts.
// Every rank listens on one address and dials its peers lazily. Frames
// are CBOR-encoded; incoming frames are decoded through the tag-to-shape
// registry supplied by the algorithm layer.
package tcptransport

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/distlab/courier/comm"
)

// maxFrameSize bounds a single delivery. Larger frames indicate a
// corrupted stream.
const maxFrameSize = 64 << 20

type frame struct {
	Src  int               `cbor:"1,keyasint"`
	Tag  int               `cbor:"2,keyasint"`
	Body []cbor.RawMessage `cbor:"3,keyasint"`
}

// Comp is one rank's TCP transport endpoint.
type Comp struct {
	name     string
	rank     comm.Rank
	registry *comm.Registry
	log      *slog.Logger

	listener net.Listener
	mailbox  *comm.Mailbox

	mu     sync.Mutex
	peers  map[comm.Rank]string
	conns  map[comm.Rank]net.Conn
	closed bool
}

// Name returns the name of the transport.
func (c *Comp) Name() string {
	return c.name
}

// Addr returns the address the transport actually listens on.
func (c *Comp) Addr() string {
	return c.listener.Addr().String()
}

// AddPeer associates a rank with the address it listens on. Peers must be
// added before the first send to them.
func (c *Comp) AddPeer(rank comm.Rank, addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.peers[rank] = addr
}

// Send delivers a single message to dst under tag.
func (c *Comp) Send(msg comm.Msg, dst comm.Rank, tag comm.Tag) error {
	return c.sendFrame(dst, tag, []comm.Msg{msg})
}

// SendVector delivers an ordered batch to dst under tag as one frame.
func (c *Comp) SendVector(msgs []comm.Msg, dst comm.Rank, tag comm.Tag) error {
	if len(msgs) == 0 {
		return fmt.Errorf("tcptransport: empty vector send to rank %d", dst)
	}

	return c.sendFrame(dst, tag, msgs)
}

// Recv blocks until a single message matching src and tag has arrived.
func (c *Comp) Recv(src comm.Rank, tag comm.Tag) (comm.Msg, comm.Status, error) {
	return c.mailbox.Recv(src, tag)
}

// RecvVector blocks until a batch matching src and tag has arrived.
func (c *Comp) RecvVector(src comm.Rank, tag comm.Tag) ([]comm.Msg, comm.Status, error) {
	return c.mailbox.RecvVector(src, tag)
}

// Probe reports the element count of the next matching delivery without
// receiving it.
func (c *Comp) Probe(src comm.Rank, tag comm.Tag) (int, bool) {
	return c.mailbox.Probe(src, tag)
}

// Close shuts the endpoint down: the listener stops, open connections are
// closed, and blocked receives return comm.ErrClosed.
func (c *Comp) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conns := c.conns
	c.conns = map[comm.Rank]net.Conn{}
	c.mu.Unlock()

	c.listener.Close()
	for _, conn := range conns {
		conn.Close()
	}

	c.mailbox.Close()
}

func (c *Comp) sendFrame(dst comm.Rank, tag comm.Tag, msgs []comm.Msg) error {
	f := frame{
		Src:  int(c.rank),
		Tag:  int(tag),
		Body: make([]cbor.RawMessage, len(msgs)),
	}

	for i, m := range msgs {
		raw, err := cbor.Marshal(m)
		if err != nil {
			return fmt.Errorf("tcptransport: encode %T: %w", m, err)
		}

		f.Body[i] = raw
	}

	payload, err := cbor.Marshal(f)
	if err != nil {
		return fmt.Errorf("tcptransport: encode frame: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return comm.ErrClosed
	}

	conn, err := c.connLocked(dst)
	if err != nil {
		return err
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))

	if _, err := conn.Write(header[:]); err != nil {
		return fmt.Errorf("tcptransport: write to rank %d: %w", dst, err)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("tcptransport: write to rank %d: %w", dst, err)
	}

	return nil
}

func (c *Comp) connLocked(dst comm.Rank) (net.Conn, error) {
	if conn, ok := c.conns[dst]; ok {
		return conn, nil
	}

	addr, ok := c.peers[dst]
	if !ok {
		return nil, fmt.Errorf("tcptransport: no address known for rank %d", dst)
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tcptransport: dial rank %d: %w", dst, err)
	}

	c.conns[dst] = conn

	return conn, nil
}

func (c *Comp) acceptLoop() {
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			return
		}

		go c.serve(conn)
	}
}

func (c *Comp) serve(conn net.Conn) {
	defer conn.Close()

	for {
		env, err := c.readEnvelope(conn)
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()

			if !closed && err != io.EOF {
				c.log.Error("tcptransport: read failed",
					slog.String("transport", c.name),
					slog.String("err", err.Error()))
			}

			return
		}

		if err := c.mailbox.Deliver(env); err != nil {
			return
		}
	}
}

func (c *Comp) readEnvelope(conn net.Conn) (comm.Envelope, error) {
	var header [4]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return comm.Envelope{}, err
	}

	size := binary.BigEndian.Uint32(header[:])
	if size == 0 || size > maxFrameSize {
		return comm.Envelope{}, fmt.Errorf("frame size %d out of range", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return comm.Envelope{}, err
	}

	var f frame
	if err := cbor.Unmarshal(payload, &f); err != nil {
		return comm.Envelope{}, fmt.Errorf("decode frame: %w", err)
	}

	env := comm.Envelope{
		Src:  comm.Rank(f.Src),
		Tag:  comm.Tag(f.Tag),
		Msgs: make([]comm.Msg, len(f.Body)),
	}

	for i, raw := range f.Body {
		msg, err := c.registry.New(comm.Tag(f.Tag))
		if err != nil {
			return comm.Envelope{}, err
		}

		if err := cbor.Unmarshal(raw, msg); err != nil {
			return comm.Envelope{}, fmt.Errorf("decode tag %d body: %w", f.Tag, err)
		}

		env.Msgs[i] = msg
	}

	return env, nil
}
