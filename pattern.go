package wxkey

import (
	"bytes"
	"regexp"
	"sort"
)

const KeyLength = 64

// x'<64 hex>' as a key pragma embeds it
var literalKeyRe = regexp.MustCompile(`x'([0-9a-fA-F]{64})'`)

// DefaultMarker is the path fragment of the client's on-disk database directory.
const DefaultMarker = "db_storage"

// Hit is one key candidate found in a buffer.
type Hit struct {
	Offset int // offset of the whole match in the searched buffer
	Length int
	Key    string
}

// Strategy searches a memory buffer for key candidates.
type Strategy interface {
	Name() string
	Search(data []byte) []Hit
}

// LiteralStrategy finds key pragma literals: x'<64 hex characters>'.
type LiteralStrategy struct{}

func (LiteralStrategy) Name() string {
	return "literal"
}

func (LiteralStrategy) Search(data []byte) []Hit {
	var hits []Hit
	for _, m := range literalKeyRe.FindAllSubmatchIndex(data, -1) {
		hits = append(hits, Hit{
			Offset: m[0],
			Length: m[1] - m[0],
			Key:    string(data[m[2]:m[3]]),
		})
	}
	return hits
}

// ExtractLiteralKeys returns the distinct keys of all x'...' literals in buf, in order of appearance.
func ExtractLiteralKeys(buf []byte) []string {
	set := NewKeySet()
	for _, h := range (LiteralStrategy{}).Search(buf) {
		set.Add(h.Key)
	}
	return set.Keys()
}

// MarkerStrategy looks for standalone 64 character hex runs near a marker string.
type MarkerStrategy struct {
	Marker string
	Window int // bytes searched on each side of a marker occurrence
}

func (s MarkerStrategy) Name() string {
	return "marker"
}

func (s MarkerStrategy) Search(data []byte) []Hit {
	marker := []byte(s.Marker)
	if len(marker) == 0 {
		return nil
	}

	var hits []Hit
	seen := map[int]bool{}

	for pos := 0; pos < len(data); {
		i := bytes.Index(data[pos:], marker)
		if i < 0 {
			break
		}
		at := pos + i
		pos = at + 1

		lo := at - s.Window
		if lo < 0 {
			lo = 0
		}
		hi := at + s.Window
		if hi > len(data) {
			hi = len(data)
		}

		for j := lo; j < hi; {
			if !isHex(data[j]) {
				j++
				continue
			}
			// the run must lie inside the window and have no hex neighbours in the buffer
			start := j
			for start > 0 && isHex(data[start-1]) {
				start--
			}
			end := j
			for end < len(data) && isHex(data[end]) {
				end++
			}
			if end-start == KeyLength && start >= lo && end <= hi && !seen[start] {
				seen[start] = true
				key := string(data[start:end])
				if IsPlausibleKey(key) {
					hits = append(hits, Hit{Offset: start, Length: KeyLength, Key: key})
				}
			}
			j = end
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Offset < hits[j].Offset })
	return hits
}

// IsPlausibleKey filters obvious noise: an all-zero key or one made of 4 or fewer distinct characters.
func IsPlausibleKey(key string) bool {
	if len(key) != KeyLength {
		return false
	}
	distinct := map[rune]bool{}
	zero := true
	for _, c := range key {
		distinct[c] = true
		if c != '0' {
			zero = false
		}
	}
	return !zero && len(distinct) > 4
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
