package main

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zed-0xff/wxkey"
)

type regionsTarget struct {
	regions   []wxkey.Region
	regErr    error
	detachErr error
	detached  int
}

func (r *regionsTarget) Pid() int { return 99 }

func (r *regionsTarget) Regions() ([]wxkey.Region, error) { return r.regions, r.regErr }

func (r *regionsTarget) ReadMemory(uintptr, int) ([]byte, error) {
	return nil, errors.New("not readable")
}

func (r *regionsTarget) Detach() error {
	r.detached++
	return r.detachErr
}

func TestListRegions(t *testing.T) {
	log, hook := test.NewNullLogger()
	var buf bytes.Buffer
	rt := &regionsTarget{regions: []wxkey.Region{
		{Start: 0x1000, End: 0x3000, Readable: true, Writable: true, Path: "[heap]"},
		{Start: 0x4000, End: 0x5000},
	}}

	require.NoError(t, listRegions(console{w: &buf}, rt, log))
	assert.Equal(t, 1, rt.detached)
	assert.Contains(t, buf.String(), "Memory regions of PID 99:")
	assert.Contains(t, buf.String(), "rw [heap]")
	assert.Contains(t, buf.String(), "2 regions, 12 KiB mapped, 8.0 KiB readable")
	assert.Empty(t, hook.AllEntries())
}

func TestListRegionsDetachFailure(t *testing.T) {
	log, hook := test.NewNullLogger()
	rt := &regionsTarget{regErr: errors.New("maps unreadable"), detachErr: errors.New("ESRCH")}

	assert.Error(t, listRegions(console{w: &bytes.Buffer{}}, rt, log))
	assert.Equal(t, 1, rt.detached)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "detach failed", entry.Message)
	assert.Equal(t, 99, entry.Data["pid"])
}
