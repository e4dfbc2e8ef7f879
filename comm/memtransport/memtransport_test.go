package memtransport

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/distlab/courier/comm"
)

type pingMsg struct {
	comm.MsgMeta

	Seq int
}

func (m *pingMsg) Meta() *comm.MsgMeta {
	return &m.MsgMeta
}

func (m *pingMsg) Clone() comm.Msg {
	cloneMsg := *m
	cloneMsg.ID = comm.GetIDGenerator().Generate()

	return &cloneMsg
}

var _ = Describe("Fabric", func() {
	var (
		fabric *Comp
		ep0    comm.Transport
		ep1    comm.Transport
		ep2    comm.Transport
	)

	BeforeEach(func() {
		fabric = MakeBuilder().
			WithRankCount(3).
			Build("Fabric")
		ep0 = fabric.Endpoint(0)
		ep1 = fabric.Endpoint(1)
		ep2 = fabric.Endpoint(2)
	})

	It("should move a message between two ranks", func() {
		want := &pingMsg{Seq: 1}
		Expect(ep0.Send(want, 1, 7)).To(Succeed())

		msg, st, err := ep1.Recv(0, 7)

		Expect(err).ToNot(HaveOccurred())
		Expect(msg).To(BeIdenticalTo(comm.Msg(want)))
		Expect(st).To(Equal(comm.Status{Src: 0, Tag: 7, Count: 1}))
	})

	It("should preserve send order per channel", func() {
		Expect(ep0.Send(&pingMsg{Seq: 1}, 1, 7)).To(Succeed())
		Expect(ep0.Send(&pingMsg{Seq: 2}, 1, 7)).To(Succeed())

		msg1, _, _ := ep1.Recv(0, 7)
		msg2, _, _ := ep1.Recv(0, 7)

		Expect(msg1.(*pingMsg).Seq).To(Equal(1))
		Expect(msg2.(*pingMsg).Seq).To(Equal(2))
	})

	It("should fill in the source on an any-source receive", func() {
		Expect(ep2.Send(&pingMsg{Seq: 9}, 1, 7)).To(Succeed())

		_, st, err := ep1.Recv(comm.AnySource, comm.AnyTag)

		Expect(err).ToNot(HaveOccurred())
		Expect(st.Src).To(Equal(comm.Rank(2)))
		Expect(st.Tag).To(Equal(comm.Tag(7)))
	})

	It("should carry a vector as one delivery", func() {
		batch := []comm.Msg{&pingMsg{Seq: 1}, &pingMsg{Seq: 2}, &pingMsg{Seq: 3}}
		Expect(ep0.SendVector(batch, 1, 7)).To(Succeed())

		count, ok := ep1.Probe(0, 7)
		Expect(ok).To(BeTrue())
		Expect(count).To(Equal(3))

		msgs, st, err := ep1.RecvVector(0, 7)

		Expect(err).ToNot(HaveOccurred())
		Expect(msgs).To(HaveLen(3))
		Expect(st.Count).To(Equal(3))
		Expect(msgs[2].(*pingMsg).Seq).To(Equal(3))
	})

	It("should reject an empty vector send", func() {
		Expect(ep0.SendVector(nil, 1, 7)).ToNot(Succeed())
	})

	It("should reject a send to a rank outside the fabric", func() {
		Expect(ep0.Send(&pingMsg{}, 9, 7)).ToNot(Succeed())
	})

	It("should panic when an unknown rank asks for an endpoint", func() {
		Expect(func() { fabric.Endpoint(9) }).To(Panic())
	})

	It("should block a receive until the send happens", func() {
		received := make(chan comm.Msg, 1)
		go func() {
			msg, _, _ := ep1.Recv(0, 7)
			received <- msg
		}()

		Consistently(received).ShouldNot(Receive())

		want := &pingMsg{Seq: 4}
		Expect(ep0.Send(want, 1, 7)).To(Succeed())

		Eventually(received).Should(Receive(BeIdenticalTo(comm.Msg(want))))
	})

	It("should release blocked receivers on close", func() {
		errs := make(chan error, 1)
		go func() {
			_, _, err := ep1.Recv(0, 7)
			errs <- err
		}()

		fabric.Close()

		Eventually(errs).Should(Receive(MatchError(comm.ErrClosed)))
		Expect(ep0.Send(&pingMsg{}, 1, 7)).To(MatchError(comm.ErrClosed))
	})

	It("should carry process traffic across goroutines", func() {
		sender := comm.MakeProcessBuilder().
			WithRank(0).
			WithTransport(ep0).
			Build("Node[0]")
		receiver := comm.MakeProcessBuilder().
			WithRank(1).
			WithTransport(ep1).
			Build("Node[1]")

		done := make(chan int64, 1)
		go func() {
			defer GinkgoRecover()

			msg, _, err := comm.Receive[*pingMsg](receiver, 0, 7)
			Expect(err).ToNot(HaveOccurred())
			Expect(msg.Seq).To(Equal(42))
			done <- receiver.ClockTime()
		}()

		Expect(sender.Send(&pingMsg{Seq: 42}, 1, 7)).To(Succeed())

		var receiverClock int64
		Eventually(done).Should(Receive(&receiverClock))
		Expect(receiverClock).To(BeNumerically(">", sender.ClockTime()))
	})
})
