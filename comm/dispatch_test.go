package comm

import (
	. "github.com/onsi/ginkgo/v2"
	g "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

var _ = Describe("Registry", func() {
	var registry *Registry

	BeforeEach(func() {
		registry = NewRegistry()
	})

	It("should construct the registered shape", func() {
		registry.Register(3, func() Msg { return newSampleMsg() })

		msg, err := registry.New(3)

		g.Expect(err).ToNot(g.HaveOccurred())
		g.Expect(msg).To(g.BeAssignableToTypeOf(&sampleMsg{}))
	})

	It("should reject an unknown tag", func() {
		_, err := registry.New(3)

		g.Expect(err).To(g.MatchError(ErrUnknownTag))
	})

	It("should panic on a duplicate registration", func() {
		registry.Register(3, func() Msg { return newSampleMsg() })

		g.Expect(func() {
			registry.Register(3, func() Msg { return newSampleMsg() })
		}).To(g.Panic())
	})

	It("should list tags in ascending order", func() {
		registry.Register(9, func() Msg { return newSampleMsg() })
		registry.Register(1, func() Msg { return newSampleMsg() })
		registry.Register(4, func() Msg { return newSampleMsg() })

		g.Expect(registry.Tags()).To(g.Equal([]Tag{1, 4, 9}))
	})
})

var _ = Describe("Process multi-tag receive", func() {
	var (
		mockCtrl  *gomock.Controller
		transport *MockTransport
		process   *Process
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		transport = NewMockTransport(mockCtrl)
		process = MakeProcessBuilder().
			WithRank(0).
			WithTransport(transport).
			Build("Node[0]")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should dispatch a handled tag and observe the clock", func() {
		msg := newSampleMsg()
		msg.Timestamp = 6
		transport.EXPECT().Recv(Rank(2), AnyTag).
			Return(msg, Status{Src: 2, Tag: 3, Count: 1}, nil)

		var handled []Msg
		handlers := HandlerTable{
			3: func(m Msg, _ Status) { handled = append(handled, m) },
		}

		fired, err := process.ReceiveMultiTag(2, handlers)

		g.Expect(err).ToNot(g.HaveOccurred())
		g.Expect(fired).To(g.BeTrue())
		g.Expect(handled).To(g.HaveLen(1))
		g.Expect(handled[0]).To(g.BeIdenticalTo(msg))
		g.Expect(process.Buffer().Size()).To(g.Equal(0))
		g.Expect(process.ClockTime()).To(g.Equal(int64(7)))
	})

	It("should park an unhandled tag without touching the clock", func() {
		msg := newSampleMsg()
		msg.Timestamp = 6
		transport.EXPECT().Recv(Rank(2), AnyTag).
			Return(msg, Status{Src: 2, Tag: 4, Count: 1}, nil)

		fired, err := process.ReceiveMultiTag(2, HandlerTable{
			3: func(Msg, Status) { Fail("handler for a different tag fired") },
		})

		g.Expect(err).ToNot(g.HaveOccurred())
		g.Expect(fired).To(g.BeFalse())
		g.Expect(process.Buffer().Size()).To(g.Equal(1))
		g.Expect(process.ClockTime()).To(g.Equal(int64(0)))
	})

	It("should hand a parked message to a later typed receive", func() {
		msg := newSampleMsg()
		msg.Timestamp = 6
		transport.EXPECT().Recv(Rank(2), AnyTag).
			Return(msg, Status{Src: 2, Tag: 4, Count: 1}, nil)

		_, err := process.ReceiveMultiTag(2, HandlerTable{})
		g.Expect(err).ToNot(g.HaveOccurred())

		got, st, err := Receive[*sampleMsg](process, 2, 4)

		g.Expect(err).ToNot(g.HaveOccurred())
		g.Expect(got).To(g.BeIdenticalTo(msg))
		g.Expect(st.Tag).To(g.Equal(Tag(4)))
		g.Expect(process.Buffer().Size()).To(g.Equal(0))
		g.Expect(process.ClockTime()).To(g.Equal(int64(7)))
	})

	It("should accept deliveries from any source", func() {
		msg := newSampleMsg()
		transport.EXPECT().Recv(AnySource, AnyTag).
			Return(msg, Status{Src: 9, Tag: 3, Count: 1}, nil)

		var from Rank
		fired, err := process.ReceiveMultiTag(AnySource, HandlerTable{
			3: func(_ Msg, st Status) { from = st.Src },
		})

		g.Expect(err).ToNot(g.HaveOccurred())
		g.Expect(fired).To(g.BeTrue())
		g.Expect(from).To(g.Equal(Rank(9)))
	})
})
