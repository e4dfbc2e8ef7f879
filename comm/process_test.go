package comm

import (
	. "github.com/onsi/ginkgo/v2"
	g "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("Process", func() {
	var (
		mockCtrl  *gomock.Controller
		transport *MockTransport
		process   *Process
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		transport = NewMockTransport(mockCtrl)
		process = MakeProcessBuilder().
			WithRank(5).
			WithTransport(transport).
			Build("Node[5]")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should stamp and forward a send", func() {
		msg := newSampleMsg()
		transport.EXPECT().Send(msg, Rank(2), Tag(3)).Return(nil)

		g.Expect(process.Send(msg, 2, 3)).To(g.Succeed())

		g.Expect(msg.Meta().Timestamp).To(g.Equal(int64(1)))
		g.Expect(msg.Meta().ID).ToNot(g.BeEmpty())
		g.Expect(process.ClockTime()).To(g.Equal(int64(1)))
	})

	It("should advance the clock once per send", func() {
		transport.EXPECT().Send(gomock.Any(), Rank(2), Tag(3)).Return(nil).Times(3)

		for i := 0; i < 3; i++ {
			g.Expect(process.Send(newSampleMsg(), 2, 3)).To(g.Succeed())
		}

		g.Expect(process.ClockTime()).To(g.Equal(int64(3)))
	})

	It("should broadcast to the scope minus itself", func() {
		process.SetBroadcastScope([]Rank{2, 5, 7})
		transport.EXPECT().Send(gomock.Any(), Rank(2), Tag(3)).Return(nil)
		transport.EXPECT().Send(gomock.Any(), Rank(7), Tag(3)).Return(nil)

		g.Expect(process.Broadcast(newSampleMsg(), 3)).To(g.Succeed())

		g.Expect(process.ClockTime()).To(g.Equal(int64(1)))
	})

	It("should give every broadcast copy its own ID", func() {
		process.SetBroadcastScope([]Rank{2, 7})

		var sent []Msg
		transport.EXPECT().Send(gomock.Any(), gomock.Any(), Tag(3)).
			Do(func(msg Msg, _ Rank, _ Tag) {
				sent = append(sent, msg)
			}).
			Return(nil).
			Times(2)

		g.Expect(process.Broadcast(newSampleMsg(), 3)).To(g.Succeed())

		g.Expect(sent[0].Meta().ID).ToNot(g.Equal(sent[1].Meta().ID))
		g.Expect(sent[0].Meta().Timestamp).To(g.Equal(sent[1].Meta().Timestamp))
	})

	It("should panic on a broadcast without a scope", func() {
		g.Expect(func() {
			_ = process.Broadcast(newSampleMsg(), 3)
		}).To(g.Panic())
	})

	It("should stamp a vector as a single event", func() {
		msgs := []Msg{newSampleMsg(), newSampleMsg(), newSampleMsg()}
		transport.EXPECT().SendVector(msgs, Rank(2), Tag(3)).Return(nil)

		g.Expect(process.SendVector(msgs, 2, 3)).To(g.Succeed())

		g.Expect(process.ClockTime()).To(g.Equal(int64(1)))
		for _, m := range msgs {
			g.Expect(m.Meta().Timestamp).To(g.Equal(int64(1)))
		}
	})

	It("should receive from the transport and observe the timestamp", func() {
		msg := newSampleMsg()
		msg.Timestamp = 10
		transport.EXPECT().Recv(Rank(2), Tag(3)).
			Return(msg, Status{Src: 2, Tag: 3, Count: 1}, nil)

		got, st, err := process.Receive(2, 3)

		g.Expect(err).ToNot(g.HaveOccurred())
		g.Expect(got).To(g.BeIdenticalTo(msg))
		g.Expect(st.Src).To(g.Equal(Rank(2)))
		g.Expect(process.ClockTime()).To(g.Equal(int64(11)))
	})

	It("should serve a receive from the holding buffer first", func() {
		msg := newSampleMsg()
		msg.Timestamp = 4
		process.Buffer().Store(msg, Status{Src: 2, Tag: 3, Count: 1})

		got, _, err := process.Receive(2, 3)

		g.Expect(err).ToNot(g.HaveOccurred())
		g.Expect(got).To(g.BeIdenticalTo(msg))
		g.Expect(process.Buffer().Size()).To(g.Equal(0))
		g.Expect(process.ClockTime()).To(g.Equal(int64(5)))
	})

	It("should receive a vector after a successful probe", func() {
		msgs := []Msg{newSampleMsg(), newSampleMsg()}
		msgs[0].Meta().Timestamp = 7
		msgs[1].Meta().Timestamp = 7
		transport.EXPECT().Probe(Rank(2), Tag(3)).Return(2, true)
		transport.EXPECT().RecvVector(Rank(2), Tag(3)).
			Return(msgs, Status{Src: 2, Tag: 3, Count: 2}, nil)

		got, st, err := process.ReceiveVector(2, 3)

		g.Expect(err).ToNot(g.HaveOccurred())
		g.Expect(got).To(g.HaveLen(2))
		g.Expect(st.Count).To(g.Equal(2))
		g.Expect(process.ClockTime()).To(g.Equal(int64(8)))
	})

	It("should fail a vector receive when the probe finds nothing", func() {
		transport.EXPECT().Probe(Rank(2), Tag(3)).Return(0, false)

		_, _, err := process.ReceiveVector(2, 3)

		g.Expect(err).To(g.MatchError(ErrVectorProbe))
	})

	It("should fail a vector receive on a zero-element probe", func() {
		transport.EXPECT().Probe(Rank(2), Tag(3)).Return(0, true)

		_, _, err := process.ReceiveVector(2, 3)

		g.Expect(err).To(g.MatchError(ErrVectorProbe))
	})

	It("should advance the clock for a local event", func() {
		g.Expect(process.AdvanceClock()).To(g.Equal(int64(1)))
		g.Expect(process.ClockTime()).To(g.Equal(int64(1)))
	})

	It("should invoke hooks around send and receive", func() {
		var positions []*HookPos
		process.AcceptHook(hookFunc(func(ctx HookCtx) {
			positions = append(positions, ctx.Pos)
		}))

		msg := newSampleMsg()
		transport.EXPECT().Send(msg, Rank(2), Tag(3)).Return(nil)
		transport.EXPECT().Recv(Rank(2), Tag(3)).
			Return(newSampleMsg(), Status{Src: 2, Tag: 3, Count: 1}, nil)

		g.Expect(process.Send(msg, 2, 3)).To(g.Succeed())
		_, _, err := process.Receive(2, 3)
		g.Expect(err).ToNot(g.HaveOccurred())

		g.Expect(positions).To(g.Equal([]*HookPos{HookPosMsgSend, HookPosMsgRecv}))
	})

	It("should order a typed receive after the matching send", func() {
		sender := MakeProcessBuilder().
			WithRank(2).
			WithTransport(transport).
			Build("Node[2]")

		var inFlight Msg
		transport.EXPECT().Send(gomock.Any(), Rank(5), Tag(3)).
			Do(func(msg Msg, _ Rank, _ Tag) {
				inFlight = msg
			}).
			Return(nil)

		g.Expect(sender.Send(newSampleMsg(), 5, 3)).To(g.Succeed())

		transport.EXPECT().Recv(Rank(2), Tag(3)).
			DoAndReturn(func(src Rank, tag Tag) (Msg, Status, error) {
				return inFlight, Status{Src: src, Tag: tag, Count: 1}, nil
			})

		got, _, err := Receive[*sampleMsg](process, 2, 3)

		g.Expect(err).ToNot(g.HaveOccurred())
		g.Expect(got).To(g.BeIdenticalTo(inFlight))
		g.Expect(process.ClockTime()).To(g.BeNumerically(">", sender.ClockTime()))
	})
})
