package datarecording

import (
	"github.com/distlab/courier/comm"
)

// CommEvent is one recorded substrate event.
type CommEvent struct {
	Kind    string
	Process string
	Peer    int
	Tag     int
	Clock   int64
	MsgID   string
	Count   int
}

// A CommTracer is a hook that records every message event of a process
// and its holding buffer into a DataRecorder table. One tracer may be
// attached to many processes running on their own goroutines; the
// recorder serializes the inserts.
type CommTracer struct {
	recorder DataRecorder
	table    string
}

// NewCommTracer creates a tracer recording into the comm_events table.
func NewCommTracer(recorder DataRecorder) *CommTracer {
	t := &CommTracer{
		recorder: recorder,
		table:    "comm_events",
	}

	recorder.CreateTable(t.table, CommEvent{})

	return t
}

// Attach registers the tracer on a process and on its holding buffer.
func (t *CommTracer) Attach(p *comm.Process) {
	p.AcceptHook(t)
	p.Buffer().AcceptHook(t)
}

// Func records the hooked message event.
func (t *CommTracer) Func(ctx comm.HookCtx) {
	msg, ok := ctx.Item.(comm.Msg)
	if !ok {
		return
	}

	kind, ok := eventKinds[ctx.Pos]
	if !ok {
		return
	}

	process := ""
	if n, ok := ctx.Domain.(comm.Named); ok {
		process = n.Name()
	}

	st, _ := ctx.Detail.(comm.Status)

	t.recorder.InsertData(t.table, CommEvent{
		Kind:    kind,
		Process: process,
		Peer:    int(st.Src),
		Tag:     int(st.Tag),
		Clock:   msg.Meta().Timestamp,
		MsgID:   msg.Meta().ID,
		Count:   st.Count,
	})
}

var eventKinds = map[*comm.HookPos]string{
	comm.HookPosMsgSend:  "send",
	comm.HookPosMsgRecv:  "recv",
	comm.HookPosBufStore: "buf_store",
	comm.HookPosBufFetch: "buf_fetch",
}
