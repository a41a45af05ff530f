package wxkey

import (
	"context"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"
)

// DefaultProcessName is the chat client's executable name on the current platform.
func DefaultProcessName() string {
	switch runtime.GOOS {
	case "windows":
		return "Weixin.exe"
	case "linux":
		return "wechat"
	default:
		return "WeChat"
	}
}

type processEntry struct {
	pid  int
	name string
}

// replaced in tests
var listProcesses = func() ([]processEntry, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	entries := make([]processEntry, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			// process exited or is not ours to inspect
			continue
		}
		entries = append(entries, processEntry{pid: int(p.Pid), name: name})
	}
	return entries, nil
}

// FindProcess returns the lowest PID of a running process whose name equals name exactly.
// A failing process-table query is reported as ErrProcessNotFound too.
func FindProcess(name string) (int, error) {
	entries, err := listProcesses()
	if err != nil {
		logrus.WithError(err).Debug("process table query failed")
		return 0, errors.Wrap(ErrProcessNotFound, name)
	}

	pids := []int{}
	for _, e := range entries {
		if e.name == name {
			pids = append(pids, e.pid)
		}
	}
	if len(pids) == 0 {
		return 0, errors.Wrap(ErrProcessNotFound, name)
	}
	sort.Ints(pids)
	return pids[0], nil
}

// Target is a process the debugger is attached to.
type Target interface {
	Pid() int
	Regions() ([]Region, error)
	ReadMemory(ea uintptr, size int) ([]byte, error)
	// Detach releases the process without terminating it.
	Detach() error
}

// AttachOptions tunes platform backends. Zero value is fine.
type AttachOptions struct {
	LLDB   string // lldb executable, darwin only
	Python string // python3 with the lldb module, darwin only
}

// Attach attaches the platform debugger backend to pid.
// Any returned error is an *AttachError and matches ErrAttach.
func Attach(ctx context.Context, pid int, opts AttachOptions) (Target, error) {
	t, err := attachProcess(ctx, pid, opts)
	if err != nil {
		return nil, &AttachError{Pid: pid, Err: err}
	}
	return t, nil
}
