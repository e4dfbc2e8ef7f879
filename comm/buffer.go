package comm

// A Buffer is an ordered holding area for messages that arrived before
// anything asked for them. A receive operation that picks up a message on
// an unexpected tag stores it here; a later receive for that tag drains
// it in insertion order.
type Buffer interface {
	Named
	Hookable

	// Store appends a message and its delivery status to the holding
	// area. The buffer owns the message until it is fetched.
	Store(msg Msg, status Status)

	// Fetch removes and returns the earliest entry whose source matches
	// src (AnySource matches every rank) and whose tag is in tags.
	// Ownership of the message transfers to the caller.
	Fetch(src Rank, tags []Tag) (Msg, Status, bool)

	Size() int

	// Clear removes all elements in the buffer.
	Clear()
}

// NewBuffer creates a default buffer object.
func NewBuffer(name string) Buffer {
	NameMustBeValid(name)

	return &bufferImpl{
		name: name,
	}
}

type bufferedEntry struct {
	msg    Msg
	status Status
}

type bufferImpl struct {
	HookableBase

	name    string
	entries []bufferedEntry
}

// Name returns the name of the buffer.
func (b *bufferImpl) Name() string {
	return b.name
}

func (b *bufferImpl) Store(msg Msg, status Status) {
	b.entries = append(b.entries, bufferedEntry{msg: msg, status: status})

	if b.NumHooks() > 0 {
		b.InvokeHook(HookCtx{
			Domain: b,
			Pos:    HookPosBufStore,
			Item:   msg,
			Detail: status,
		})
	}
}

func (b *bufferImpl) Fetch(src Rank, tags []Tag) (Msg, Status, bool) {
	for i, e := range b.entries {
		if src != AnySource && e.status.Src != src {
			continue
		}

		if !tagInSet(e.status.Tag, tags) {
			continue
		}

		b.entries = append(b.entries[:i], b.entries[i+1:]...)

		if b.NumHooks() > 0 {
			b.InvokeHook(HookCtx{
				Domain: b,
				Pos:    HookPosBufFetch,
				Item:   e.msg,
				Detail: e.status,
			})
		}

		return e.msg, e.status, true
	}

	return nil, Status{}, false
}

func (b *bufferImpl) Size() int {
	return len(b.entries)
}

func (b *bufferImpl) Clear() {
	b.entries = nil
}

func tagInSet(tag Tag, tags []Tag) bool {
	for _, t := range tags {
		if t == tag || t == AnyTag {
			return true
		}
	}

	return false
}
