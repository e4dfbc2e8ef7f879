package comm

// A LamportClock is a per-process logical clock. It only moves forward:
// by one on every local event, and to max(local, remote)+1 when a remote
// timestamp is observed. A clock is touched only by the goroutine that
// owns the process, so it needs no locking.
type LamportClock struct {
	time int64
}

// Time returns the current clock value.
func (c *LamportClock) Time() int64 {
	return c.time
}

// Advance moves the clock forward by one for a purely local event and
// returns the new value.
func (c *LamportClock) Advance() int64 {
	c.time++
	return c.time
}

// Stamp advances the clock and writes the new value into the message.
// It must be called exactly once per send event.
func (c *LamportClock) Stamp(msg Msg) {
	c.time++
	msg.Meta().Timestamp = c.time
}

// StampBatch advances the clock once and writes the same value into every
// message of the batch. A vector send is a single event, no matter how
// many elements it carries.
func (c *LamportClock) StampBatch(msgs []Msg) {
	c.time++
	for _, m := range msgs {
		m.Meta().Timestamp = c.time
	}
}

// Observe merges the timestamp of a received message into the clock,
// setting it to max(local, remote)+1, and returns the new value. It must
// be called exactly once per receive event; a vector receive observes
// only its first element.
func (c *LamportClock) Observe(msg Msg) int64 {
	ts := msg.Meta().Timestamp
	if ts > c.time {
		c.time = ts
	}
	c.time++

	return c.time
}
