package wxkey

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// Region describes one contiguous mapping of the target's address space.
type Region struct {
	Start    uintptr
	End      uintptr
	Readable bool
	Writable bool
	Path     string // backing file or pseudo name like [heap], empty if anonymous or unknown
}

func (r Region) Size() uint64 {
	if r.End <= r.Start {
		return 0
	}
	return uint64(r.End - r.Start)
}

func (r Region) Perms() string {
	b := []byte("--")
	if r.Readable {
		b[0] = 'r'
	}
	if r.Writable {
		b[1] = 'w'
	}
	return string(b)
}

func (r Region) String() string {
	return fmt.Sprintf("%x-%x %s", r.Start, r.End, r.Perms())
}

// Show prints a one-line description of the region.
func (r Region) Show(w io.Writer) {
	fmt.Fprintf(w, "    ba:%12X size:%12X %9s %s %s\n",
		r.Start, r.Size(), humanize.IBytes(r.Size()), r.Perms(), r.Path)
}

// Read reads up to limit bytes from the start of the region. A limit of 0 reads the whole region.
func (r Region) Read(t Target, limit uint64) ([]byte, error) {
	size := r.Size()
	if limit > 0 && size > limit {
		size = limit
	}
	return t.ReadMemory(r.Start, int(size))
}
