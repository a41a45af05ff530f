package wxkey

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize    = 16
	ivSize      = 16
	hmacSalt    = 0x3a
	hmacKDFIter = 2
)

var sqliteMagic = []byte("SQLite format 3\x00")

// CipherProfile describes the page layout of one SQLCipher major version.
type CipherProfile struct {
	Name     string
	PageSize int
	Reserve  int // IV + HMAC, rounded up to the cipher block size
	Hash     func() hash.Hash
}

var (
	SQLCipher4 = CipherProfile{Name: "sqlcipher4", PageSize: 4096, Reserve: 80, Hash: sha512.New}
	SQLCipher3 = CipherProfile{Name: "sqlcipher3", PageSize: 1024, Reserve: 48, Hash: sha1.New}
)

// HeaderValidator checks a raw key against the HMAC stored on page 1,
// without needing a sqlcipher binary.
type HeaderValidator struct {
	Profiles []CipherProfile // default: SQLCipher4, SQLCipher3
	Log      logrus.FieldLogger
}

func (v HeaderValidator) Validate(_ context.Context, dbPath, key string) bool {
	log := v.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	ok, err := v.check(dbPath, key)
	if err != nil {
		log.WithError(err).WithField("db", dbPath).Debug("header check failed")
	}
	return ok
}

func (v HeaderValidator) check(dbPath, key string) (bool, error) {
	raw, err := hex.DecodeString(key)
	if err != nil || len(raw) != KeyLength/2 {
		return false, errors.Errorf("key is not %d hex chars", KeyLength)
	}

	profiles := v.Profiles
	if len(profiles) == 0 {
		profiles = []CipherProfile{SQLCipher4, SQLCipher3}
	}

	f, err := os.Open(dbPath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	maxPage := 0
	for _, p := range profiles {
		if p.PageSize > maxPage {
			maxPage = p.PageSize
		}
	}
	page := make([]byte, maxPage)
	n, err := io.ReadFull(f, page)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false, errors.Wrap(err, "read page 1")
	}
	page = page[:n]

	if bytes.HasPrefix(page, sqliteMagic) {
		return false, errors.New("database is not encrypted")
	}

	for _, p := range profiles {
		if len(page) < p.PageSize {
			continue
		}
		if p.verify(raw, page[:p.PageSize]) {
			return true, nil
		}
	}
	return false, nil
}

// verify checks the HMAC of page 1 under profile p.
func (p CipherProfile) verify(key, page []byte) bool {
	salt := page[:saltSize]
	macSalt := make([]byte, saltSize)
	for i, b := range salt {
		macSalt[i] = b ^ hmacSalt
	}
	macKey := pbkdf2.Key(key, macSalt, hmacKDFIter, len(key), p.Hash)

	mac := hmac.New(p.Hash, macKey)
	end := p.PageSize - p.Reserve
	mac.Write(page[saltSize : end+ivSize])
	var pgno [4]byte
	binary.LittleEndian.PutUint32(pgno[:], 1)
	mac.Write(pgno[:])

	sum := mac.Sum(nil)
	stored := page[end+ivSize : end+ivSize+len(sum)]
	return hmac.Equal(sum, stored)
}
