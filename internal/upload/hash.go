package upload

import (
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"hash"
	"io"
)

// fingerprintOf hashes r from its start and rewinds it.
// It returns the hex digest and the number of bytes read.
func fingerprintOf(r io.ReadSeeker) (string, int64, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", 0, err
	}
	h := md5.New() //nolint:gosec // see import
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// hashingBody hashes the bytes the SDK reads from the request body.
// A rewind to the start restarts the hash; any other reposition makes the
// digest unusable.
type hashingBody struct {
	r     io.ReadSeeker
	h     hash.Hash
	pos   int64
	valid bool
}

func newHashingBody(r io.ReadSeeker) *hashingBody {
	return &hashingBody{r: r, h: md5.New(), valid: true} //nolint:gosec // see import
}

func (b *hashingBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	b.h.Write(p[:n])
	b.pos += int64(n)
	return n, err
}

func (b *hashingBody) Seek(offset int64, whence int) (int64, error) {
	pos, err := b.r.Seek(offset, whence)
	if err != nil {
		return pos, err
	}
	switch pos {
	case 0:
		b.h.Reset()
		b.valid = true
	case b.pos:
	default:
		b.valid = false
	}
	b.pos = pos
	return pos, nil
}

// Sum returns the hex digest of the bytes read since the last rewind.
func (b *hashingBody) Sum() (string, bool) {
	if !b.valid {
		return "", false
	}
	return hex.EncodeToString(b.h.Sum(nil)), true
}
