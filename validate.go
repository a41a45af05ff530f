package wxkey

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultValidatorTool    = "sqlcipher"
	DefaultValidatorTimeout = 10 * time.Second
)

// Validator tells whether key opens the database at dbPath.
type Validator interface {
	Validate(ctx context.Context, dbPath, key string) bool
}

// CLIValidator opens the database with the sqlcipher shell and counts sqlite_master rows.
type CLIValidator struct {
	Tool    string
	Timeout time.Duration
	Log     logrus.FieldLogger
}

func (v CLIValidator) Validate(ctx context.Context, dbPath, key string) bool {
	tool := v.Tool
	if tool == "" {
		tool = DefaultValidatorTool
	}
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = DefaultValidatorTimeout
	}
	log := v.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, dbPath,
		fmt.Sprintf(`PRAGMA key = "x'%s'";`, key),
		"SELECT count(*) FROM sqlite_master;")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"db":     dbPath,
			"stderr": strings.TrimSpace(stderr.String()),
		}).Debug("validator rejected key")
		return false
	}
	return strings.TrimSpace(stdout.String()) != ""
}
