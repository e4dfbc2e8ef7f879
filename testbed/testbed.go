// Package testbed wires processes, an in-process transport fabric, and
// the observation periphery (event recording, monitoring) into one
// runnable configuration for distributed-algorithm experiments.
package testbed

import (
	"errors"
	"sync"

	"github.com/distlab/courier/comm"
	"github.com/distlab/courier/comm/memtransport"
	"github.com/distlab/courier/datarecording"
	"github.com/distlab/courier/monitoring"
)

// Testbed is a set of processes connected through one fabric. Build one
// with a Builder.
type Testbed struct {
	id        string
	processes []*comm.Process
	fabric    *memtransport.Comp
	recorder  datarecording.DataRecorder
	runLog    *datarecording.RunLog
	monitor   *monitoring.Monitor
}

// ID returns the unique ID of the testbed run.
func (t *Testbed) ID() string {
	return t.id
}

// Processes returns every process of the testbed in rank order.
func (t *Testbed) Processes() []*comm.Process {
	return t.processes
}

// Process returns the process with the given rank.
func (t *Testbed) Process(rank comm.Rank) *comm.Process {
	return t.processes[int(rank)]
}

// DataRecorder returns the recorder behind the testbed.
func (t *Testbed) DataRecorder() datarecording.DataRecorder {
	return t.recorder
}

// Run executes the algorithm body once per process, each on its own
// goroutine, and waits for all of them to finish. Each process is one
// sequential control flow that alternates between computing and blocking
// on its transport; the body owns the round structure. Run returns the
// joined errors of every body.
func (t *Testbed) Run(body func(p *comm.Process) error) error {
	var wg sync.WaitGroup

	errs := make([]error, len(t.processes))
	for i, p := range t.processes {
		wg.Add(1)

		go func(i int, p *comm.Process) {
			defer wg.Done()
			errs[i] = body(p)
		}(i, p)
	}

	wg.Wait()
	t.recorder.Flush()

	return errors.Join(errs...)
}

// Terminate shuts the testbed down: the fabric closes, which unblocks any
// still-waiting receive with comm.ErrClosed, the run log is completed,
// and buffered records are flushed.
func (t *Testbed) Terminate() {
	t.fabric.Close()
	t.runLog.End()
}
