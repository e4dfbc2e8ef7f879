package datarecording

import (
	"os"
	"strings"
	"time"
)

// RunInfo is one property of the recorded run.
type RunInfo struct {
	Property string
	Value    string
}

// A RunLog records the circumstances of a testbed run into the run_info
// table: when it started and ended, and how the binary was invoked.
type RunLog struct {
	tableName string
	recorder  DataRecorder
	entries   []RunInfo
}

// NewRunLog creates a run log on top of a recorder.
func NewRunLog(recorder DataRecorder) *RunLog {
	l := &RunLog{
		tableName: "run_info",
		recorder:  recorder,
	}

	recorder.CreateTable(l.tableName, RunInfo{})

	return l
}

// Start captures the start time and the command line. The entries are
// held back until End, so that an aborted run leaves no half-written
// record.
func (l *RunLog) Start() {
	now := time.Now().Format("2006-01-02 15:04:05.000000000")
	l.entries = append(l.entries, RunInfo{"Start Time", now})

	l.entries = append(l.entries,
		RunInfo{"Command", strings.Join(os.Args, " ")})

	if wd, err := os.Getwd(); err == nil {
		l.entries = append(l.entries, RunInfo{"Working Directory", wd})
	}
}

// End writes the held entries plus the end time and flushes the
// recorder.
func (l *RunLog) End() {
	for _, entry := range l.entries {
		l.recorder.InsertData(l.tableName, entry)
	}
	l.entries = nil

	now := time.Now().Format("2006-01-02 15:04:05.000000000")
	l.recorder.InsertData(l.tableName, RunInfo{"End Time", now})

	l.recorder.Flush()
}
