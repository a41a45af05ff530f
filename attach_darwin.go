//go:build darwin

package wxkey

import (
	"context"
	_ "embed"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// The bridge program is passed on the python command line, nothing is written to disk.
//
//go:embed lldb_bridge.py
var lldbBridge string

func attachProcess(ctx context.Context, pid int, opts AttachOptions) (Target, error) {
	lldbPath := opts.LLDB
	if lldbPath == "" {
		lldbPath = "lldb"
	}
	python := opts.Python
	if python == "" {
		python = "python3"
	}

	// directory holding lldb's python module
	out, err := exec.CommandContext(ctx, lldbPath, "-P").Output()
	if err != nil {
		return nil, errors.Wrap(err, "locate lldb python module")
	}

	cmd := exec.CommandContext(ctx, python, "-c", lldbBridge, strconv.Itoa(pid))
	cmd.Env = append(os.Environ(), "PYTHONPATH="+strings.TrimSpace(string(out)))
	stderr := logrus.StandardLogger().WriterLevel(logrus.DebugLevel)
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		stderr.Close()
		return nil, errors.Wrap(err, "bridge stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stderr.Close()
		return nil, errors.Wrap(err, "bridge stdout")
	}
	if err := cmd.Start(); err != nil {
		stderr.Close()
		return nil, errors.Wrap(err, "start lldb bridge")
	}

	wait := func() error {
		stdin.Close()
		err := cmd.Wait()
		stderr.Close()
		return errors.Wrap(err, "lldb bridge")
	}

	t, err := newBridgeTarget(pid, stdin, stdout, wait)
	if err != nil {
		cmd.Process.Kill()
		wait()
		return nil, err
	}
	return t, nil
}
