package wxkey

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseMaps parses the /proc/<pid>/maps format:
//
//	55d0c2a00000-55d0c2a21000 rw-p 00000000 00:00 0      [heap]
func ParseMaps(r io.Reader) ([]Region, error) {
	var regions []Region

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*KiB), 1*MiB)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		bounds := strings.SplitN(fields[0], "-", 2)
		if len(bounds) != 2 {
			return nil, errors.Errorf("bad address range %q", fields[0])
		}
		start, err := strconv.ParseUint(bounds[0], 16, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad start address %q", bounds[0])
		}
		end, err := strconv.ParseUint(bounds[1], 16, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad end address %q", bounds[1])
		}

		perms := fields[1]
		path := ""
		if len(fields) > 5 {
			path = strings.Join(fields[5:], " ")
		}

		regions = append(regions, Region{
			Start:    uintptr(start),
			End:      uintptr(end),
			Readable: strings.HasPrefix(perms, "r"),
			Writable: len(perms) > 1 && perms[1] == 'w',
			Path:     path,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read maps")
	}
	return regions, nil
}
