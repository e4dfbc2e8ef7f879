package comm

import "errors"

//go:generate mockgen -destination "mock_comm_test.go" -self_package=github.com/distlab/courier/comm -package comm -write_package_comment=false github.com/distlab/courier/comm Transport

// ErrVectorProbe reports that the size probe before a vector receive
// found an undefined or zero element count. It signals a violated
// protocol invariant between communicating processes and is not
// recoverable; callers are expected to propagate it to process exit.
var ErrVectorProbe = errors.New("comm: vector probe returned no elements")

// ErrClosed is returned by transport operations after the transport has
// been shut down.
var ErrClosed = errors.New("comm: transport closed")

// A Transport moves tagged messages between ranks. It is one process's
// endpoint view: sends originate from the owning rank and receives
// deliver to it. Implementations must preserve send order for every
// (source, destination, tag) channel; the holding buffer relies on that.
type Transport interface {
	// Send delivers a single message to dst under tag.
	Send(msg Msg, dst Rank, tag Tag) error

	// SendVector delivers an ordered batch of messages to dst under tag
	// as one unit.
	SendVector(msgs []Msg, dst Rank, tag Tag) error

	// Recv blocks until a single message matching src and tag is
	// available and returns it. src may be AnySource and tag may be
	// AnyTag.
	Recv(src Rank, tag Tag) (Msg, Status, error)

	// RecvVector blocks until a batch matching src and tag is available
	// and returns the whole batch in send order.
	RecvVector(src Rank, tag Tag) ([]Msg, Status, error)

	// Probe reports the element count of the next matching delivery
	// without receiving it. It never blocks; ok is false when nothing
	// matching has arrived yet.
	Probe(src Rank, tag Tag) (count int, ok bool)
}
