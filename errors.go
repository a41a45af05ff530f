package wxkey

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrProcessNotFound is returned when no process with the requested name is running,
	// or when the process table could not be queried at all.
	ErrProcessNotFound = errors.New("process not found")

	// ErrAttach is returned when the debugger could not attach to the target process.
	ErrAttach = errors.New("attach failed")

	// ErrUnsupported is returned by Attach on platforms without a debugger backend.
	ErrUnsupported = errors.New("no debugger backend for this platform")

	// ErrDetached is returned by Target methods called after Detach.
	ErrDetached = errors.New("target already detached")
)

// AttachError carries the backend failure behind ErrAttach.
type AttachError struct {
	Pid int
	Err error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("%v: pid %d: %v", ErrAttach, e.Pid, e.Err)
}

func (e *AttachError) Is(target error) bool {
	return target == ErrAttach
}

func (e *AttachError) Unwrap() error {
	return e.Err
}
