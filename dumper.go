package wxkey

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Dumper saves zstd compressed snapshots of regions, each region at most once.
type Dumper struct {
	Dir string
	Pid int

	dumped map[uintptr]bool
}

func NewDumper(dir string, pid int) *Dumper {
	return &Dumper{Dir: dir, Pid: pid, dumped: map[uintptr]bool{}}
}

// FileName is the snapshot name of r: <pid>_<start>-<end>.bin.zst
func (d *Dumper) FileName(r Region) string {
	return filepath.Join(d.Dir, fmt.Sprintf("%d_%X-%X.bin.zst", d.Pid, r.Start, r.End))
}

// Dump writes data read from r. It returns an empty name if r was dumped before.
func (d *Dumper) Dump(r Region, data []byte) (string, error) {
	if d.dumped == nil {
		d.dumped = map[uintptr]bool{}
	}
	if d.dumped[r.Start] {
		return "", nil
	}

	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return "", errors.Wrap(err, "create dump dir")
	}

	fname := d.FileName(r)
	f, err := os.Create(fname)
	if err != nil {
		return "", errors.Wrap(err, "create dump")
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return "", errors.Wrap(err, "zstd writer")
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return "", errors.Wrapf(err, "write %s", fname)
	}
	if err := enc.Close(); err != nil {
		return "", errors.Wrapf(err, "flush %s", fname)
	}

	d.dumped[r.Start] = true
	return fname, nil
}

// ReadDump decompresses a snapshot written by Dump.
func ReadDump(fname string) ([]byte, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "zstd reader")
	}
	defer dec.Close()

	out, err := io.ReadAll(dec)
	return out, errors.Wrapf(err, "decompress %s", fname)
}
