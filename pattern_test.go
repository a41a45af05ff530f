package wxkey

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	keyA = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	keyB = "FEDCBA9876543210fedcba9876543210FEDCBA9876543210fedcba9876543210"
)

func TestExtractLiteralKeys(t *testing.T) {
	buf := []byte("noise\x00\x01PRAGMA key = \"x'" + keyA + "'\";\xff\xfe more x'" + keyB + "' and x'" + keyA + "' again")
	assert.Equal(t, []string{keyA, keyB}, ExtractLiteralKeys(buf))
}

func TestExtractLiteralKeysLength(t *testing.T) {
	assert.Equal(t, []string{keyA}, ExtractLiteralKeys([]byte("x'"+keyA+"'")))
	assert.Empty(t, ExtractLiteralKeys([]byte("x'"+keyA[:63]+"'")))
	assert.Empty(t, ExtractLiteralKeys([]byte("x'"+keyA+"0'")))
	assert.Empty(t, ExtractLiteralKeys([]byte("x'"+keyA)))
	assert.Empty(t, ExtractLiteralKeys([]byte("x'"+keyA[:60]+"zzzz'")))
}

func TestLiteralStrategyHitOffsets(t *testing.T) {
	buf := []byte("abc x'" + keyA + "' def")
	hits := LiteralStrategy{}.Search(buf)
	require.Len(t, hits, 1)
	assert.Equal(t, 4, hits[0].Offset)
	assert.Equal(t, KeyLength+3, hits[0].Length)
	assert.Equal(t, keyA, hits[0].Key)
}

func TestExtractLiteralKeysLargeBuffer(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	buf := make([]byte, 5*MiB)
	for i := range buf {
		// no quotes, so the noise itself can never form a literal
		b := byte(rnd.Intn(256))
		if b == '\'' {
			b = 0
		}
		buf[i] = b
	}

	key := strings.Repeat("1", KeyLength)
	literal := "x'" + key + "'"
	off := rnd.Intn(len(buf) - len(literal))
	copy(buf[off:], literal)

	assert.Equal(t, []string{key}, ExtractLiteralKeys(buf))
}

func TestIsPlausibleKey(t *testing.T) {
	assert.True(t, IsPlausibleKey(keyA))
	assert.False(t, IsPlausibleKey(strings.Repeat("0", KeyLength)))
	assert.False(t, IsPlausibleKey(keyA[:63]))
	assert.False(t, IsPlausibleKey(keyA+"0"))

	four := strings.Repeat("abcd", KeyLength/4)
	assert.False(t, IsPlausibleKey(four))
	five := "e" + four[1:]
	assert.True(t, IsPlausibleKey(five))
}

func TestMarkerStrategy(t *testing.T) {
	s := MarkerStrategy{Marker: DefaultMarker, Window: 1024}

	t.Run("key near marker", func(t *testing.T) {
		buf := []byte("/Users/x/Library/db_storage/message/msg_0.db\x00\x00" + keyA + "\x00tail")
		hits := s.Search(buf)
		require.Len(t, hits, 1)
		assert.Equal(t, keyA, hits[0].Key)
		assert.Equal(t, strings.Index(string(buf), keyA), hits[0].Offset)
	})

	t.Run("key before marker", func(t *testing.T) {
		buf := []byte("\x00" + keyB + "\x00\x00db_storage")
		hits := s.Search(buf)
		require.Len(t, hits, 1)
		assert.Equal(t, keyB, hits[0].Key)
	})

	t.Run("no marker", func(t *testing.T) {
		assert.Empty(t, s.Search([]byte("\x00"+keyA+"\x00")))
	})

	t.Run("outside window", func(t *testing.T) {
		buf := []byte("db_storage" + strings.Repeat("\x00", 2048) + keyA)
		assert.Empty(t, s.Search(buf))
	})

	t.Run("run crossing window start", func(t *testing.T) {
		// marker at 1031, window starts at 7: only 58 key chars are inside
		buf := []byte("\x00" + keyA + strings.Repeat("\x00", 966) + "db_storage")
		assert.Empty(t, s.Search(buf))

		// the same key fully inside the window is found
		buf = []byte(strings.Repeat("\x00", 7) + keyA + strings.Repeat("\x00", 960) + "db_storage")
		hits := s.Search(buf)
		require.Len(t, hits, 1)
		assert.Equal(t, 7, hits[0].Offset)
	})

	t.Run("run crossing window end", func(t *testing.T) {
		// window ends at 1024, the run starts at 1020
		buf := []byte("db_storage" + strings.Repeat("\x00", 1010) + keyA + "\x00")
		assert.Empty(t, s.Search(buf))

		buf = []byte("db_storage" + strings.Repeat("\x00", 950) + keyA + "\x00")
		hits := s.Search(buf)
		require.Len(t, hits, 1)
		assert.Equal(t, 960, hits[0].Offset)
	})

	t.Run("longer hex run", func(t *testing.T) {
		assert.Empty(t, s.Search([]byte("db_storage\x00"+keyA+"ab\x00")))
		assert.Empty(t, s.Search([]byte("db_storage\x00"+keyA[:63]+"\x00")))
	})

	t.Run("noise filtered", func(t *testing.T) {
		buf := []byte("db_storage\x00" + strings.Repeat("0", KeyLength) + "\x00" + strings.Repeat("ab", KeyLength/2) + "\x00")
		assert.Empty(t, s.Search(buf))
	})

	t.Run("two markers one key", func(t *testing.T) {
		buf := []byte("db_storage\x00" + keyA + "\x00db_storage")
		hits := s.Search(buf)
		require.Len(t, hits, 1)
	})

	t.Run("empty marker", func(t *testing.T) {
		assert.Nil(t, MarkerStrategy{}.Search([]byte(keyA)))
	})
}
