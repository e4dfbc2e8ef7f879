package comm

// A Rank is the integer identity of a process. It is assigned at
// construction time and stable for the process's lifetime.
type Rank int

// A Tag identifies the kind, or channel, of a message. Tags demultiplex
// independent conversations that share one transport.
type Tag int

// AnySource matches messages from every rank in receive and probe calls.
const AnySource Rank = -1

// AnyTag matches messages of every tag in receive calls.
const AnyTag Tag = -1

// A Msg is a piece of information that is transferred between processes.
type Msg interface {
	Meta() *MsgMeta
	Clone() Msg
}

// MsgMeta contains the metadata that is attached to every message.
type MsgMeta struct {
	ID        string
	Timestamp int64
}

// A Status describes how a message was actually delivered: the rank it
// came from, the tag it arrived on, and the number of elements in the
// delivery. At send positions the Src field holds the recipient instead.
type Status struct {
	Src   Rank
	Tag   Tag
	Count int
}
