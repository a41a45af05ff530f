package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zed-0xff/wxkey"
)

const (
	keyA = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	keyB = "FEDCBA9876543210fedcba9876543210FEDCBA9876543210fedcba9876543210"
)

type stubValidator map[string]bool

func (s stubValidator) Validate(_ context.Context, _, key string) bool {
	return s[key]
}

func testExtractor(t *testing.T, keys []string, scanErr error) (*extractor, *bytes.Buffer) {
	cfg := DefaultConfig()
	cfg.Output = filepath.Join(t.TempDir(), "data", "db_key.txt")

	var out bytes.Buffer
	e := newExtractor(cfg, &out)
	e.log, _ = test.NewNullLogger()
	e.findProcess = func(name string) (int, error) { return 4242, nil }
	e.scan = func(_ context.Context, s *wxkey.Scanner, pid int, _ wxkey.AttachOptions) (*wxkey.KeySet, error) {
		assert.Equal(t, 4242, pid)
		assert.Equal(t, cfg.Timeout, s.Timeout)
		if scanErr != nil {
			return nil, scanErr
		}
		ks := wxkey.NewKeySet()
		for _, k := range keys {
			ks.Add(k)
		}
		return ks, nil
	}
	return e, &out
}

func TestExtractProcessNotFound(t *testing.T) {
	e, out := testExtractor(t, nil, nil)
	e.findProcess = func(name string) (int, error) {
		return 0, errors.Wrap(wxkey.ErrProcessNotFound, name)
	}
	e.scan = func(context.Context, *wxkey.Scanner, int, wxkey.AttachOptions) (*wxkey.KeySet, error) {
		t.Fatal("scan must not run")
		return nil, nil
	}

	assert.Equal(t, 1, e.run(context.Background()))
	assert.Contains(t, out.String(), "is not running")
	assert.NoFileExists(t, e.cfg.Output)
}

func TestExtractNoKeys(t *testing.T) {
	e, out := testExtractor(t, nil, nil)

	assert.Equal(t, 0, e.run(context.Background()))
	assert.Contains(t, out.String(), "no keys found")
	assert.Contains(t, out.String(), "logged in")
	assert.NoFileExists(t, e.cfg.Output)
}

func TestExtractScanFailure(t *testing.T) {
	e, out := testExtractor(t, nil, &wxkey.AttachError{Pid: 4242, Err: errors.New("EPERM")})

	assert.Equal(t, 0, e.run(context.Background()))
	assert.Contains(t, out.String(), "no keys found")
	assert.NoFileExists(t, e.cfg.Output)
}

func TestExtractKeys(t *testing.T) {
	e, out := testExtractor(t, []string{keyA, keyB}, nil)

	assert.Equal(t, 0, e.run(context.Background()))
	assert.Contains(t, out.String(), "[1] "+keyA)
	assert.Contains(t, out.String(), "[2] "+keyB)

	data, err := os.ReadFile(e.cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, keyA+"\n"+keyB+"\n", string(data))

	// same keys, same file
	require.Equal(t, 0, e.run(context.Background()))
	again, err := os.ReadFile(e.cfg.Output)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestExtractVerify(t *testing.T) {
	e, out := testExtractor(t, []string{keyA, keyB}, nil)
	e.verifyDB = "msg.db"
	e.validator = stubValidator{keyB: true}

	assert.Equal(t, 0, e.run(context.Background()))
	lines := out.String()
	assert.Contains(t, lines, "[1] rejected")
	assert.Contains(t, lines, "[2] opens the database")
	assert.Less(t, strings.Index(lines, "db_key.txt"), strings.Index(lines, "verifying"), "keys are saved before verification")
}

func TestExtractScannerHooks(t *testing.T) {
	e, out := testExtractor(t, nil, nil)
	e.hexdump = true
	e.dumpDir = filepath.Join(t.TempDir(), "dumps")

	s := e.newScanner(4242)
	require.NotNil(t, s.OnMatch)
	data := []byte("....x'" + keyA + "'....")
	r := wxkey.Region{Start: 0x1000, End: 0x2000, Readable: true}
	s.OnMatch(wxkey.Match{Pass: "literal", Region: r, Data: data, Hit: wxkey.Hit{Offset: 4, Length: 67, Key: keyA}})

	assert.Contains(t, out.String(), "literal hit in 1000-2000 r-")
	assert.Contains(t, out.String(), "            1000: 2e 2e 2e 2e 78 27")
	assert.FileExists(t, filepath.Join(e.dumpDir, "4242_1000-2000.bin.zst"))
}

func TestExtractScannerWithoutHooks(t *testing.T) {
	e, _ := testExtractor(t, nil, nil)
	assert.Nil(t, e.newScanner(1).OnMatch)
}
