package main

import (
	"bytes"
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/zed-0xff/wxkey"
)

const hexdumpContext = 64

var troubleshooting = []string{
	"1. make sure WeChat is logged in and a chat window has been opened",
	"2. make sure this program is allowed to debug other processes (lldb permissions on macOS, ptrace_scope or root on Linux, an elevated prompt on Windows)",
	"3. on macOS, System Integrity Protection may have to be disabled",
}

// extractor locates the target, scans it and persists the keys.
type extractor struct {
	cfg       *Config
	verifyDB  string
	dumpDir   string
	hexdump   bool
	progress  bool
	log       logrus.FieldLogger
	out       console

	findProcess func(name string) (int, error)
	scan        func(ctx context.Context, s *wxkey.Scanner, pid int, opts wxkey.AttachOptions) (*wxkey.KeySet, error)
	validator   wxkey.Validator
}

func newExtractor(cfg *Config, w io.Writer) *extractor {
	return &extractor{
		cfg:         cfg,
		log:         logrus.StandardLogger(),
		out:         console{w: w},
		findProcess: wxkey.FindProcess,
		scan: func(ctx context.Context, s *wxkey.Scanner, pid int, opts wxkey.AttachOptions) (*wxkey.KeySet, error) {
			return s.ScanProcess(ctx, pid, opts)
		},
	}
}

// run returns the process exit code.
func (e *extractor) run(ctx context.Context) int {
	e.out.info("looking for %s ..", e.cfg.Process)
	pid, err := e.findProcess(e.cfg.Process)
	if err != nil {
		e.out.fail("%s is not running, start it and log in first", e.cfg.Process)
		return 1
	}
	e.out.ok("found %s: PID %d", e.cfg.Process, pid)

	scanner := e.newScanner(pid)
	var bar passProgress
	if e.progress {
		scanner.Progress = bar.update
	}

	e.out.info("scanning memory of PID %d ..", pid)
	keys, err := e.scan(ctx, scanner, pid, e.cfg.AttachOptions())
	bar.finish()
	if err != nil {
		e.log.WithError(err).WithField("pid", pid).Warn("scan failed")
		keys = nil
	}

	if keys == nil || keys.Len() == 0 {
		e.out.fail("no keys found, try the following:")
		for _, s := range troubleshooting {
			e.out.line("    %s", s)
		}
		return 0
	}

	e.out.ok("found %d candidate key(s):", keys.Len())
	for i, k := range keys.Keys() {
		e.out.line("  [%d] %s", i+1, k)
	}

	if err := wxkey.WriteKeyFile(e.cfg.Output, keys.Keys()); err != nil {
		e.out.fail("%v", err)
		return 1
	}
	e.out.saved("%s", e.cfg.Output)

	if e.verifyDB != "" {
		e.verify(ctx, keys.Keys())
	}
	return 0
}

func (e *extractor) newScanner(pid int) *wxkey.Scanner {
	scanner := wxkey.NewScanner()
	scanner.Timeout = e.cfg.Timeout
	scanner.Log = e.log
	scanner.OnCandidate = func(pass, key string) {
		e.out.info("candidate (%s): %s", pass, key)
	}

	var dumper *wxkey.Dumper
	if e.dumpDir != "" {
		dumper = wxkey.NewDumper(e.dumpDir, pid)
	}
	if !e.hexdump && dumper == nil {
		return scanner
	}

	scanner.OnMatch = func(m wxkey.Match) {
		if e.hexdump {
			data, ea := m.Context(hexdumpContext)
			var buf bytes.Buffer
			wxkey.HexDump(&buf, data, ea)
			e.out.line("%s hit in %s:\n%s", m.Pass, m.Region, buf.String())
		}
		if dumper != nil {
			fname, err := dumper.Dump(m.Region, m.Data)
			if err != nil {
				e.log.WithError(err).WithField("region", m.Region.String()).Warn("region dump failed")
			} else if fname != "" {
				e.out.saved("%s (%d bytes)", fname, len(m.Data))
			}
		}
	}
	return scanner
}

func (e *extractor) verify(ctx context.Context, keys []string) {
	v := e.validator
	if v == nil {
		var err error
		if v, err = e.cfg.NewValidator(); err != nil {
			e.out.fail("%v", err)
			return
		}
	}

	e.out.info("verifying keys against %s ..", e.verifyDB)
	for i, k := range keys {
		if v.Validate(ctx, e.verifyDB, k) {
			e.out.ok("[%d] opens the database", i+1)
		} else {
			e.out.fail("[%d] rejected", i+1)
		}
	}
}
