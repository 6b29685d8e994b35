// Package crypto provides content digest utilities for Victoria Catalog.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// DigestReader wraps an io.Reader and computes a SHA-256 digest while
// reading, so uploads can be fingerprinted in a single pass.
type DigestReader struct {
	reader io.Reader
	sha256 hash.Hash
	size   int64
}

// NewDigestReader creates a DigestReader over r.
func NewDigestReader(r io.Reader) *DigestReader {
	return &DigestReader{
		reader: r,
		sha256: sha256.New(),
	}
}

// Read implements io.Reader and updates the digest.
func (d *DigestReader) Read(p []byte) (n int, err error) {
	n, err = d.reader.Read(p)
	if n > 0 {
		d.sha256.Write(p[:n])
		d.size += int64(n)
	}
	return n, err
}

// SHA256 returns the hex-encoded SHA-256 digest of the bytes read so far.
// Call after reading is complete.
func (d *DigestReader) SHA256() string {
	return hex.EncodeToString(d.sha256.Sum(nil))
}

// Size returns the total number of bytes read.
func (d *DigestReader) Size() int64 {
	return d.size
}
