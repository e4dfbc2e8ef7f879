package comm

import (
	"fmt"
	"log/slog"
)

// A Process owns one rank's view of the communication substrate: its
// logical clock, its holding buffer, its broadcast scope, and a handle to
// the transport. A Process is confined to the single goroutine that runs
// the algorithm body; none of its methods are safe for concurrent use.
type Process struct {
	HookableBase

	name  string
	rank  Rank
	label string

	transport Transport
	clock     LamportClock
	buffer    Buffer
	scope     []Rank

	log *slog.Logger
}

// ProcessBuilder can build processes.
type ProcessBuilder struct {
	transport Transport
	rank      Rank
	label     string
	log       *slog.Logger
}

// MakeProcessBuilder creates a builder with default parameters.
func MakeProcessBuilder() ProcessBuilder {
	return ProcessBuilder{}
}

// WithTransport sets the transport endpoint the process communicates
// through.
func (b ProcessBuilder) WithTransport(t Transport) ProcessBuilder {
	b.transport = t
	return b
}

// WithRank sets the rank of the process.
func (b ProcessBuilder) WithRank(r Rank) ProcessBuilder {
	b.rank = r
	return b
}

// WithLabel sets the human-readable label used in diagnostics only.
func (b ProcessBuilder) WithLabel(label string) ProcessBuilder {
	b.label = label
	return b
}

// WithLogger sets the logger for the process's diagnostic output.
func (b ProcessBuilder) WithLogger(log *slog.Logger) ProcessBuilder {
	b.log = log
	return b
}

// Build creates the process.
func (b ProcessBuilder) Build(name string) *Process {
	NameMustBeValid(name)

	if b.transport == nil {
		panic("process " + name + " built without a transport")
	}

	log := b.log
	if log == nil {
		log = slog.Default()
	}

	return &Process{
		name:      name,
		rank:      b.rank,
		label:     b.label,
		transport: b.transport,
		buffer:    NewBuffer(BuildName(name, "Buffer")),
		log: log.With(
			slog.Int("rank", int(b.rank)),
			slog.String("label", b.label),
		),
	}
}

// Name returns the name of the process.
func (p *Process) Name() string {
	return p.name
}

// Rank returns the rank of the process.
func (p *Process) Rank() Rank {
	return p.rank
}

// Label returns the diagnostic label of the process.
func (p *Process) Label() string {
	return p.label
}

// ClockTime returns the current value of the process's logical clock.
func (p *Process) ClockTime() int64 {
	return p.clock.Time()
}

// Buffer returns the process's holding buffer, mainly so that observation
// hooks can be attached to it.
func (p *Process) Buffer() Buffer {
	return p.buffer
}

// SetBroadcastScope configures the ordered set of ranks a broadcast sends
// to. The process's own rank may be included; it is always skipped when
// actually broadcasting.
func (p *Process) SetBroadcastScope(ranks []Rank) {
	p.scope = append([]Rank(nil), ranks...)
}

// AdvanceClock moves the logical clock forward by one for a purely local
// event, such as entering a new round, and returns the new value.
func (p *Process) AdvanceClock() int64 {
	return p.clock.Advance()
}

// Send stamps the message with the clock and forwards it to the rank dst
// under tag. The clock advances by one.
func (p *Process) Send(msg Msg, dst Rank, tag Tag) error {
	p.ensureID(msg)
	p.clock.Stamp(msg)

	if err := p.transport.Send(msg, dst, tag); err != nil {
		return fmt.Errorf("send to rank %d tag %d: %w", dst, tag, err)
	}

	p.hookMsg(HookPosMsgSend, msg, Status{Src: dst, Tag: tag, Count: 1})

	return nil
}

// Broadcast stamps the message once and forwards a copy to every rank in
// the broadcast scope except the process itself. The clock advances by
// one regardless of the recipient count.
func (p *Process) Broadcast(msg Msg, tag Tag) error {
	p.scopeMustBeSet()
	p.ensureID(msg)
	p.clock.Stamp(msg)

	for _, dst := range p.scope {
		if dst == p.rank {
			continue
		}

		copied := msg.Clone()
		if err := p.transport.Send(copied, dst, tag); err != nil {
			return fmt.Errorf("broadcast to rank %d tag %d: %w", dst, tag, err)
		}

		p.hookMsg(HookPosMsgSend, copied, Status{Src: dst, Tag: tag, Count: 1})
	}

	return nil
}

// SendVector sends an ordered batch of messages to dst under tag as one
// unit. The clock advances by one for the whole batch and every element
// carries the same timestamp.
func (p *Process) SendVector(msgs []Msg, dst Rank, tag Tag) error {
	for _, m := range msgs {
		p.ensureID(m)
	}
	p.clock.StampBatch(msgs)

	if err := p.transport.SendVector(msgs, dst, tag); err != nil {
		return fmt.Errorf("send vector to rank %d tag %d: %w", dst, tag, err)
	}

	p.hookMsg(HookPosMsgSend, msgs[0], Status{Src: dst, Tag: tag, Count: len(msgs)})

	return nil
}

// BroadcastVector broadcasts an ordered batch to every rank in the scope
// except self, with a single clock advance shared by the whole batch.
func (p *Process) BroadcastVector(msgs []Msg, tag Tag) error {
	p.scopeMustBeSet()
	for _, m := range msgs {
		p.ensureID(m)
	}
	p.clock.StampBatch(msgs)

	for _, dst := range p.scope {
		if dst == p.rank {
			continue
		}

		copied := make([]Msg, len(msgs))
		for i, m := range msgs {
			copied[i] = m.Clone()
		}

		if err := p.transport.SendVector(copied, dst, tag); err != nil {
			return fmt.Errorf("broadcast vector to rank %d tag %d: %w", dst, tag, err)
		}

		p.hookMsg(HookPosMsgSend, copied[0], Status{Src: dst, Tag: tag, Count: len(copied)})
	}

	return nil
}

// Receive returns the next message matching src and tag, consulting the
// holding buffer before blocking on the transport. The clock observes the
// message's timestamp exactly once either way.
func (p *Process) Receive(src Rank, tag Tag) (Msg, Status, error) {
	msg, st, ok := p.buffer.Fetch(src, []Tag{tag})
	if !ok {
		var err error
		msg, st, err = p.transport.Recv(src, tag)
		if err != nil {
			return nil, Status{}, fmt.Errorf("receive from rank %d tag %d: %w", src, tag, err)
		}
	}

	p.clock.Observe(msg)
	p.hookMsg(HookPosMsgRecv, msg, st)

	return msg, st, nil
}

// ReceiveAny is Receive with a wildcard source filter.
func (p *Process) ReceiveAny(tag Tag) (Msg, Status, error) {
	return p.Receive(AnySource, tag)
}

// ReceiveVector receives an ordered batch from src under tag. It first
// probes the transport for the batch size; an undefined or zero count is
// a fatal protocol violation reported as ErrVectorProbe, and no partial
// receive happens. On success the clock observes the first element only.
func (p *Process) ReceiveVector(src Rank, tag Tag) ([]Msg, Status, error) {
	count, ok := p.transport.Probe(src, tag)
	if !ok || count == 0 {
		return nil, Status{}, fmt.Errorf(
			"receive vector from rank %d tag %d: %w", src, tag, ErrVectorProbe)
	}

	msgs, st, err := p.transport.RecvVector(src, tag)
	if err != nil {
		return nil, Status{}, fmt.Errorf(
			"receive vector from rank %d tag %d: %w", src, tag, err)
	}

	p.clock.Observe(msgs[0])
	p.hookMsg(HookPosMsgRecv, msgs[0], st)

	return msgs, st, nil
}

// ReceiveVectorAny is ReceiveVector with a wildcard source filter.
func (p *Process) ReceiveVectorAny(tag Tag) ([]Msg, Status, error) {
	return p.ReceiveVector(AnySource, tag)
}

// Logf emits a diagnostic line annotated with the process identity and
// the current clock value.
func (p *Process) Logf(format string, args ...any) {
	p.log.Info(fmt.Sprintf(format, args...), slog.Int64("clock", p.clock.Time()))
}

func (p *Process) ensureID(msg Msg) {
	if msg.Meta().ID == "" {
		msg.Meta().ID = GetIDGenerator().Generate()
	}
}

func (p *Process) scopeMustBeSet() {
	if len(p.scope) == 0 {
		panic("process " + p.name + " broadcasts before setting a scope")
	}
}

func (p *Process) hookMsg(pos *HookPos, msg Msg, st Status) {
	if p.NumHooks() == 0 {
		return
	}

	p.InvokeHook(HookCtx{
		Domain: p,
		Pos:    pos,
		Item:   msg,
		Detail: st,
	})
}
