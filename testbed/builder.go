package testbed

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/xid"

	"github.com/distlab/courier/comm"
	"github.com/distlab/courier/comm/memtransport"
	"github.com/distlab/courier/datarecording"
	"github.com/distlab/courier/monitoring"
)

// Builder can be used to build a testbed.
type Builder struct {
	rankCount      int
	monitorOn      bool
	monitorPort    int
	outputFileName string
	clickHouse     *datarecording.ClickHouseConfig
	log            *slog.Logger
}

// MakeBuilder creates a new builder. A .env file in the working
// directory, when present, provides defaults: COURIER_MONITOR_PORT turns
// monitoring on, COURIER_OUTPUT names the recording database, and
// COURIER_CLICKHOUSE_ADDR switches recording to a shared ClickHouse
// server (with COURIER_CLICKHOUSE_DB, _USER and _PASSWORD).
func MakeBuilder() Builder {
	_ = godotenv.Load()

	b := Builder{}

	if v := os.Getenv("COURIER_MONITOR_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("COURIER_MONITOR_PORT %q: %w", v, err))
		}

		b.monitorOn = true
		b.monitorPort = port
	}

	b.outputFileName = os.Getenv("COURIER_OUTPUT")

	if addr := os.Getenv("COURIER_CLICKHOUSE_ADDR"); addr != "" {
		b.clickHouse = &datarecording.ClickHouseConfig{
			Addr:     addr,
			Database: os.Getenv("COURIER_CLICKHOUSE_DB"),
			Username: os.Getenv("COURIER_CLICKHOUSE_USER"),
			Password: os.Getenv("COURIER_CLICKHOUSE_PASSWORD"),
		}
	}

	return b
}

// WithRankCount sets the number of processes in the testbed, ranked 0
// through n-1.
func (b Builder) WithRankCount(n int) Builder {
	b.rankCount = n
	return b
}

// WithMonitoring enables the monitoring server. A port of 0 picks a free
// one.
func (b Builder) WithMonitoring(port int) Builder {
	b.monitorOn = true
	b.monitorPort = port
	return b
}

// WithoutMonitoring disables the monitoring server even when the
// environment enables it.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	b.monitorPort = 0
	return b
}

// WithOutputFileName sets the custom output file name for the data
// recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithClickHouse records into a shared ClickHouse server instead of a
// local SQLite file.
func (b Builder) WithClickHouse(cfg datarecording.ClickHouseConfig) Builder {
	b.clickHouse = &cfg
	return b
}

// WithLogger sets the logger handed to every process.
func (b Builder) WithLogger(log *slog.Logger) Builder {
	b.log = log
	return b
}

// Build builds the testbed.
func (b Builder) Build() *Testbed {
	if b.rankCount < 2 {
		panic("a testbed needs at least two ranks")
	}

	t := &Testbed{
		id: xid.New().String(),
	}

	if b.clickHouse != nil {
		t.recorder = datarecording.NewClickHouseRecorder(*b.clickHouse)
	} else {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "courier_run_" + t.id
		}
		t.recorder = datarecording.NewRecorder(outputPath)
	}

	t.runLog = datarecording.NewRunLog(t.recorder)
	t.runLog.Start()

	tracer := datarecording.NewCommTracer(t.recorder)

	t.fabric = memtransport.MakeBuilder().
		WithRankCount(b.rankCount).
		Build("Fabric")

	scope := make([]comm.Rank, b.rankCount)
	for i := range scope {
		scope[i] = comm.Rank(i)
	}

	for i := 0; i < b.rankCount; i++ {
		rank := comm.Rank(i)

		p := comm.MakeProcessBuilder().
			WithRank(rank).
			WithTransport(t.fabric.Endpoint(rank)).
			WithLogger(b.log).
			Build(fmt.Sprintf("Node[%d]", i))
		p.SetBroadcastScope(scope)
		tracer.Attach(p)

		t.processes = append(t.processes, p)
	}

	if b.monitorOn {
		t.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			t.monitor.WithPortNumber(b.monitorPort)
		}

		for _, p := range t.processes {
			t.monitor.RegisterProcess(p)
		}

		t.monitor.StartServer()
	}

	return t
}
