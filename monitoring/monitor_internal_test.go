package monitoring

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/distlab/courier/comm"
	"github.com/distlab/courier/comm/memtransport"
)

var _ = Describe("Monitor", func() {
	var (
		m *Monitor
	)

	BeforeEach(func() {
		m = NewMonitor()
	})

	It("should register processes and their buffers", func() {
		fabric := memtransport.MakeBuilder().
			WithRankCount(2).
			Build("Fabric")

		p := comm.MakeProcessBuilder().
			WithRank(0).
			WithTransport(fabric.Endpoint(0)).
			Build("Node[0]")

		m.RegisterProcess(p)

		Expect(m.processes).To(HaveLen(1))
		Expect(m.buffers).To(HaveLen(1))
		Expect(m.buffers[0].Name()).To(Equal("Node[0].Buffer"))
	})
})
