package comm

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookPosMsgSend triggers after a message is stamped and handed to the
// transport.
var HookPosMsgSend = &HookPos{Name: "MsgSend"}

// HookPosMsgRecv triggers after a receive event has updated the clock.
var HookPosMsgRecv = &HookPos{Name: "MsgRecv"}

// HookPosBufStore marks when a message is stored into the holding buffer.
var HookPosBufStore = &HookPos{Name: "BufStore"}

// HookPosBufFetch marks when a message is removed from the holding buffer.
var HookPosBufFetch = &HookPos{Name: "BufFetch"}

// HookCtx is the context that holds all the information about the site
// that a hook is triggered. Item carries the message and Detail carries
// its delivery Status.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accepts Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)
}

// Hook is a short piece of program that can be invoked by a hookable
// object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other types that
// implement the Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.Hooks)
}

// InvokeHook triggers the registered Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
