package comm

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTag is returned when a registry is asked for a tag it has no
// message shape for.
var ErrUnknownTag = errors.New("comm: no message shape registered for tag")

// A Handler consumes a dispatched message together with its delivery
// status.
type Handler func(msg Msg, status Status)

// A HandlerTable maps tags to the handlers a multi-tag receive routes
// them to.
type HandlerTable map[Tag]Handler

// A Registry resolves which concrete message shape belongs to a tag. The
// algorithm layer registers one constructor per tag it uses. Wire
// transports need the registry to decode incoming frames; in-process
// transports pass message values directly and do not consult it.
type Registry struct {
	factories map[Tag]func() Msg
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Tag]func() Msg)}
}

// Register associates a tag with a constructor for its message shape.
func (r *Registry) Register(tag Tag, factory func() Msg) {
	if _, dup := r.factories[tag]; dup {
		panic(fmt.Sprintf("tag %d registered twice", tag))
	}

	r.factories[tag] = factory
}

// New constructs a default-state message of the shape registered for tag.
func (r *Registry) New(tag Tag) (Msg, error) {
	factory, ok := r.factories[tag]
	if !ok {
		return nil, fmt.Errorf("tag %d: %w", tag, ErrUnknownTag)
	}

	return factory(), nil
}

// Tags returns the registered tags in ascending order.
func (r *Registry) Tags() []Tag {
	tags := make([]Tag, 0, len(r.factories))
	for t := range r.factories {
		tags = append(tags, t)
	}

	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	return tags
}

// ReceiveMultiTag receives the next message available from src regardless
// of the tag it arrives on. If the arriving tag has a registered handler,
// the clock observes the message and the handler is invoked; the return
// value is then true. Otherwise the message is stored in the holding
// buffer for later retrieval by a typed receive, the clock is untouched,
// and the return value is false.
func (p *Process) ReceiveMultiTag(src Rank, handlers HandlerTable) (bool, error) {
	msg, st, err := p.transport.Recv(src, AnyTag)
	if err != nil {
		return false, fmt.Errorf("multi-tag receive from rank %d: %w", src, err)
	}

	handler, ok := handlers[st.Tag]
	if !ok {
		p.buffer.Store(msg, st)
		return false, nil
	}

	p.clock.Observe(msg)
	p.hookMsg(HookPosMsgRecv, msg, st)
	handler(msg, st)

	return true, nil
}
