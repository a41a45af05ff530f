package wxkey

import (
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withProcesses(t *testing.T, entries []processEntry, err error) {
	saved := listProcesses
	listProcesses = func() ([]processEntry, error) { return entries, err }
	t.Cleanup(func() { listProcesses = saved })
}

func TestFindProcess(t *testing.T) {
	withProcesses(t, []processEntry{
		{pid: 900, name: "WeChat"},
		{pid: 12, name: "WeChatHelper"},
		{pid: 300, name: "WeChat"},
		{pid: 5, name: "wechat"},
	}, nil)

	pid, err := FindProcess("WeChat")
	require.NoError(t, err)
	assert.Equal(t, 300, pid)

	_, err = FindProcess("Weixin.exe")
	assert.True(t, errors.Is(err, ErrProcessNotFound))
}

func TestFindProcessQueryFailure(t *testing.T) {
	withProcesses(t, nil, errors.New("permission denied"))

	_, err := FindProcess("WeChat")
	assert.True(t, errors.Is(err, ErrProcessNotFound))
}

func TestFindProcessLive(t *testing.T) {
	entries, err := listProcesses()
	if err != nil {
		t.Skipf("process table not available: %v", err)
	}

	var self string
	for _, e := range entries {
		if e.pid == os.Getpid() {
			self = e.name
		}
	}
	if self == "" {
		t.Skip("own process not listed")
	}

	pid, err := FindProcess(self)
	require.NoError(t, err)
	assert.LessOrEqual(t, pid, os.Getpid())
}

func TestDefaultProcessName(t *testing.T) {
	assert.NotEmpty(t, DefaultProcessName())
}
