package wxkey

import (
	"fmt"
	"io"
)

// HexDump writes buffer 16 bytes per line, with ascii chars on the right.
// ea is the address of buffer[0].
func HexDump(w io.Writer, buffer []byte, ea uintptr) {
	for i := 0; i < len(buffer); i += 16 {
		fmt.Fprintf(w, "%16X:", uintptr(i)+ea)
		for j := 0; j < 16; j++ {
			if j == 8 {
				fmt.Fprint(w, " ")
			}
			if i+j < len(buffer) {
				fmt.Fprintf(w, " %02x", buffer[i+j])
			} else {
				fmt.Fprint(w, "   ")
			}
		}

		fmt.Fprint(w, "  |")

		for j := 0; j < 16; j++ {
			if i+j < len(buffer) && buffer[i+j] >= 32 && buffer[i+j] <= 126 {
				fmt.Fprintf(w, "%c", buffer[i+j])
			} else {
				fmt.Fprint(w, " ")
			}
		}

		fmt.Fprintln(w, "|")
	}
}

// Context returns the bytes of m's region around the hit, padded by n bytes on each side,
// and the address of the first returned byte.
func (m Match) Context(n int) ([]byte, uintptr) {
	lo := m.Hit.Offset - n
	if lo < 0 {
		lo = 0
	}
	hi := m.Hit.Offset + m.Hit.Length + n
	if hi > len(m.Data) {
		hi = len(m.Data)
	}
	return m.Data[lo:hi], m.Region.Start + uintptr(lo)
}
