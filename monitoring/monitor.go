// Package monitoring turns a running testbed into a small web server, so
// that processes, their clocks, and their holding buffers can be
// inspected while an algorithm runs.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	// Enable profiling
	_ "net/http/pprof"
	"runtime/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/distlab/courier/comm"
)

// Monitor can turn a testbed into a server and allows external
// inspection of the processes. The monitor reads process state without
// synchronization; it is a diagnostic aid, not a consistency tool.
type Monitor struct {
	processes   []*comm.Process
	buffers     []comm.Buffer
	portNumber  int
	openBrowser bool
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the dashboard URL in the default
// browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterProcess registers a process to be monitored, together with its
// holding buffer.
func (m *Monitor) RegisterProcess(p *comm.Process) {
	m.processes = append(m.processes, p)
	m.buffers = append(m.buffers, p.Buffer())
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()
	r.HandleFunc("/api/list_processes", m.listProcesses)
	r.HandleFunc("/api/process/{name}", m.listProcessDetails)
	r.HandleFunc("/api/clock/{name}", m.clock)
	r.HandleFunc("/api/buffers", m.listBuffers)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring testbed with %s\n", url)

	if m.openBrowser {
		_ = browser.OpenURL(url)
	}

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

type processRsp struct {
	Name  string `json:"name"`
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	Clock int64  `json:"clock"`
}

func (m *Monitor) listProcesses(w http.ResponseWriter, _ *http.Request) {
	rsp := make([]processRsp, 0, len(m.processes))
	for _, p := range m.processes {
		rsp = append(rsp, processRsp{
			Name:  p.Name(),
			Rank:  int(p.Rank()),
			Label: p.Label(),
			Clock: p.ClockTime(),
		})
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listProcessDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	p := m.findProcessOr404(w, name)
	if p == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(p)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) clock(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	p := m.findProcessOr404(w, name)
	if p == nil {
		return
	}

	fmt.Fprintf(w, "{\"clock\":%d}", p.ClockTime())
}

func (m *Monitor) listBuffers(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, b := range m.buffers {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "{\"buffer\":\"%s\",\"level\":%d}", b.Name(), b.Size())
	}
	fmt.Fprint(w, "]")
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) findProcessOr404(
	w http.ResponseWriter,
	name string,
) *comm.Process {
	for _, p := range m.processes {
		if p.Name() == name {
			return p
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Process not found"))
	dieOnErr(err)

	return nil
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
