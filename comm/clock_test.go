package comm

import (
	. "github.com/onsi/ginkgo/v2"
	g "github.com/onsi/gomega"
)

var _ = Describe("LamportClock", func() {
	var clock LamportClock

	BeforeEach(func() {
		clock = LamportClock{}
	})

	It("should start at zero", func() {
		g.Expect(clock.Time()).To(g.Equal(int64(0)))
	})

	It("should advance by one per local event", func() {
		g.Expect(clock.Advance()).To(g.Equal(int64(1)))
		g.Expect(clock.Advance()).To(g.Equal(int64(2)))
		g.Expect(clock.Time()).To(g.Equal(int64(2)))
	})

	It("should stamp a message with the advanced value", func() {
		msg := newSampleMsg()

		clock.Stamp(msg)

		g.Expect(msg.Meta().Timestamp).To(g.Equal(int64(1)))
		g.Expect(clock.Time()).To(g.Equal(int64(1)))
	})

	It("should stamp a batch as one event", func() {
		msgs := []Msg{newSampleMsg(), newSampleMsg(), newSampleMsg()}

		clock.StampBatch(msgs)

		g.Expect(clock.Time()).To(g.Equal(int64(1)))
		for _, m := range msgs {
			g.Expect(m.Meta().Timestamp).To(g.Equal(int64(1)))
		}
	})

	It("should jump past a larger remote timestamp", func() {
		msg := newSampleMsg()
		msg.Timestamp = 10

		g.Expect(clock.Observe(msg)).To(g.Equal(int64(11)))
	})

	It("should still tick when the remote timestamp is behind", func() {
		for i := 0; i < 10; i++ {
			clock.Advance()
		}

		msg := newSampleMsg()
		msg.Timestamp = 3

		g.Expect(clock.Observe(msg)).To(g.Equal(int64(11)))
	})

	It("should order a receive strictly after its send", func() {
		sender := LamportClock{}
		msg := newSampleMsg()
		sender.Stamp(msg)

		g.Expect(clock.Observe(msg)).To(g.BeNumerically(">", msg.Meta().Timestamp))
	})
})
