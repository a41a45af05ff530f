//go:build linux

package wxkey

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ptraceTarget holds a ptrace stop on the target's main thread.
// All ptrace requests must come from the OS thread that attached, so the
// goroutine stays locked to it until Detach.
type ptraceTarget struct {
	pid int
	mem *os.File
}

func attachProcess(ctx context.Context, pid int, _ AttachOptions) (Target, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runtime.LockOSThread()
	if err := unix.PtraceAttach(pid); err != nil {
		runtime.UnlockOSThread()
		return nil, errors.Wrap(err, "ptrace attach")
	}

	var status unix.WaitStatus
	if _, err := unix.Wait4(pid, &status, 0, nil); err != nil || !status.Stopped() {
		unix.PtraceDetach(pid)
		runtime.UnlockOSThread()
		if err == nil {
			err = errors.Errorf("target did not stop (status %#x)", uint32(status))
		}
		return nil, errors.Wrap(err, "wait for stop")
	}

	mem, err := os.Open(fmt.Sprintf("/proc/%d/mem", pid))
	if err != nil {
		unix.PtraceDetach(pid)
		runtime.UnlockOSThread()
		return nil, errors.Wrap(err, "open memory")
	}

	return &ptraceTarget{pid: pid, mem: mem}, nil
}

func (t *ptraceTarget) Pid() int {
	return t.pid
}

func (t *ptraceTarget) Regions() ([]Region, error) {
	if t.mem == nil {
		return nil, ErrDetached
	}
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", t.pid))
	if err != nil {
		return nil, errors.Wrap(err, "open maps")
	}
	defer f.Close()
	return ParseMaps(f)
}

func (t *ptraceTarget) ReadMemory(ea uintptr, size int) ([]byte, error) {
	if t.mem == nil {
		return nil, ErrDetached
	}
	buf := make([]byte, size)
	n, err := t.mem.ReadAt(buf, int64(ea))
	if err != nil {
		return nil, errors.Wrapf(err, "read %d bytes at %x", size, ea)
	}
	return buf[:n], nil
}

// Detach leaves the process running.
func (t *ptraceTarget) Detach() error {
	if t.mem == nil {
		return ErrDetached
	}
	t.mem.Close()
	t.mem = nil

	err := unix.PtraceDetach(t.pid)
	runtime.UnlockOSThread()
	return errors.Wrap(err, "ptrace detach")
}
