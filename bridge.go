package wxkey

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// bridgeTarget drives an out-of-process debugger over a line protocol.
//
//	-> regions              <- REGION <start hex> <end hex> <r 0|1> <w 0|1> ... END
//	-> read <addr hex> <n>  <- DATA <n> followed by n raw bytes, or ERR <message>
//	-> detach               <- DETACHED
//
// The bridge greets with ATTACHED or ATTACH_ERROR <message>.
type bridgeTarget struct {
	pid     int
	w       io.Writer
	r       *bufio.Reader
	closeFn func() error
	done    bool
}

func newBridgeTarget(pid int, w io.Writer, r io.Reader, closeFn func() error) (*bridgeTarget, error) {
	t := &bridgeTarget{pid: pid, w: w, r: bufio.NewReaderSize(r, 64*KiB), closeFn: closeFn}

	line, err := t.expect("ATTACHED", "ATTACH_ERROR")
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(line, "ATTACH_ERROR") {
		return nil, errors.New(strings.TrimSpace(strings.TrimPrefix(line, "ATTACH_ERROR")))
	}
	return t, nil
}

func (t *bridgeTarget) Pid() int {
	return t.pid
}

func (t *bridgeTarget) send(format string, args ...interface{}) error {
	if t.done {
		return ErrDetached
	}
	_, err := fmt.Fprintf(t.w, format+"\n", args...)
	return errors.Wrap(err, "bridge write")
}

// expect returns the next line starting with one of prefixes, skipping debugger chatter.
func (t *bridgeTarget) expect(prefixes ...string) (string, error) {
	for {
		line, err := t.r.ReadString('\n')
		if err != nil {
			return "", errors.Wrap(err, "bridge read")
		}
		line = strings.TrimRight(line, "\r\n")
		for _, p := range prefixes {
			if strings.HasPrefix(line, p) {
				return line, nil
			}
		}
		logrus.WithField("line", line).Trace("bridge output ignored")
	}
}

func (t *bridgeTarget) Regions() ([]Region, error) {
	if err := t.send("regions"); err != nil {
		return nil, err
	}

	var regions []Region
	for {
		line, err := t.expect("REGION ", "END")
		if err != nil {
			return nil, err
		}
		if line == "END" {
			return regions, nil
		}

		var start, end uint64
		var r, w int
		if _, err := fmt.Sscanf(line, "REGION %x %x %d %d", &start, &end, &r, &w); err != nil {
			return nil, errors.Wrapf(err, "bad region line %q", line)
		}
		regions = append(regions, Region{
			Start:    uintptr(start),
			End:      uintptr(end),
			Readable: r != 0,
			Writable: w != 0,
		})
	}
}

func (t *bridgeTarget) ReadMemory(ea uintptr, size int) ([]byte, error) {
	if err := t.send("read %x %d", ea, size); err != nil {
		return nil, err
	}

	line, err := t.expect("DATA ", "ERR")
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(line, "ERR") {
		return nil, errors.Errorf("read %d bytes at %x: %s", size, ea, strings.TrimSpace(strings.TrimPrefix(line, "ERR")))
	}

	n, err := strconv.Atoi(strings.TrimPrefix(line, "DATA "))
	if err != nil || n < 0 || n > size {
		return nil, errors.Errorf("bad data header %q", line)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(t.r, buf); err != nil {
		return nil, errors.Wrap(err, "bridge read data")
	}
	return buf, nil
}

// Detach asks the bridge to detach and waits for it to exit.
// The bridge is reaped even if it already died.
func (t *bridgeTarget) Detach() error {
	if t.done {
		return ErrDetached
	}
	err := t.send("detach")
	if err == nil {
		_, err = t.expect("DETACHED")
	}
	t.done = true

	closeErr := t.closeFn()
	if err != nil {
		return err
	}
	return closeErr
}
