package comm

import "sync"

// An Envelope is one transport delivery: an ordered batch of one or more
// messages from a single source under a single tag.
type Envelope struct {
	Src  Rank
	Tag  Tag
	Msgs []Msg
}

// A Mailbox is the blocking delivery queue behind a transport endpoint.
// Deliver may be called from any goroutine (an in-process sender, a
// socket reader) while the owning process blocks in Recv. Matching takes
// the earliest envelope in arrival order, so per-channel FIFO is
// preserved.
type Mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Envelope
	closed bool
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)

	return m
}

// Deliver appends an envelope and wakes blocked receivers. It returns
// ErrClosed after Close.
func (m *Mailbox) Deliver(env Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.queue = append(m.queue, env)
	m.cond.Broadcast()

	return nil
}

// Recv blocks until a single-element envelope matching src and tag is
// available and returns its message. Batch envelopes are left for
// RecvVector.
func (m *Mailbox) Recv(src Rank, tag Tag) (Msg, Status, error) {
	env, err := m.take(src, tag, true)
	if err != nil {
		return nil, Status{}, err
	}

	return env.Msgs[0], status(env), nil
}

// RecvVector blocks until an envelope matching src and tag is available
// and returns its whole batch.
func (m *Mailbox) RecvVector(src Rank, tag Tag) ([]Msg, Status, error) {
	env, err := m.take(src, tag, false)
	if err != nil {
		return nil, Status{}, err
	}

	return env.Msgs, status(env), nil
}

// Probe reports the element count of the earliest matching envelope
// without removing it. It never blocks.
func (m *Mailbox) Probe(src Rank, tag Tag) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.match(src, tag, false)
	if i < 0 {
		return 0, false
	}

	return len(m.queue[i].Msgs), true
}

// Len returns the number of queued envelopes.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.queue)
}

// Close wakes every blocked receiver with ErrClosed and rejects further
// deliveries.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.cond.Broadcast()
}

func (m *Mailbox) take(src Rank, tag Tag, scalarOnly bool) (Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for {
		i := m.match(src, tag, scalarOnly)
		if i >= 0 {
			env := m.queue[i]
			m.queue = append(m.queue[:i], m.queue[i+1:]...)

			return env, nil
		}

		if m.closed {
			return Envelope{}, ErrClosed
		}

		m.cond.Wait()
	}
}

func (m *Mailbox) match(src Rank, tag Tag, scalarOnly bool) int {
	for i, env := range m.queue {
		if src != AnySource && env.Src != src {
			continue
		}

		if tag != AnyTag && env.Tag != tag {
			continue
		}

		if scalarOnly && len(env.Msgs) != 1 {
			continue
		}

		return i
	}

	return -1
}

func status(env Envelope) Status {
	return Status{Src: env.Src, Tag: env.Tag, Count: len(env.Msgs)}
}
