package comm

import (
	"log/slog"
	"reflect"
)

// MsgLogger is a hook that logs messages as they pass through a process
// or its holding buffer.
type MsgLogger struct {
	*slog.Logger
}

// NewMsgLogger returns a new MsgLogger which writes into the logger.
func NewMsgLogger(logger *slog.Logger) *MsgLogger {
	return &MsgLogger{Logger: logger}
}

// Func writes the message information into the logger.
func (h *MsgLogger) Func(ctx HookCtx) {
	msg, ok := ctx.Item.(Msg)
	if !ok {
		return
	}

	domain := ""
	if n, ok := ctx.Domain.(Named); ok {
		domain = n.Name()
	}

	st, _ := ctx.Detail.(Status)

	h.Logger.Debug(ctx.Pos.Name,
		slog.String("domain", domain),
		slog.Int("peer", int(st.Src)),
		slog.Int("tag", int(st.Tag)),
		slog.Int("count", st.Count),
		slog.Int64("ts", msg.Meta().Timestamp),
		slog.String("type", reflect.TypeOf(msg).String()),
		slog.String("id", msg.Meta().ID),
	)
}
