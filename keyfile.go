package wxkey

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/facebookgo/atomicfile"
	"github.com/pkg/errors"
)

const DefaultKeyFile = "db_key.txt"

// DefaultKeyFilePath is <dir of executable>/../data/db_key.txt.
func DefaultKeyFilePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "locate executable")
	}
	return filepath.Join(filepath.Dir(exe), "..", "data", DefaultKeyFile), nil
}

// WriteKeyFile replaces path with one key per line, creating parent directories.
// The file is renamed into place so readers never see a partial write.
func WriteKeyFile(path string, keys []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create key file dir")
	}

	f, err := atomicfile.New(path, 0644)
	if err != nil {
		return errors.Wrap(err, "create key file")
	}
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('\n')
	}
	if _, err := f.WriteString(sb.String()); err != nil {
		f.Abort()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(f.Close(), "write %s", path)
}

// ReadKeyFile returns the non-empty lines of a key file.
func ReadKeyFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			keys = append(keys, line)
		}
	}
	return keys, nil
}
