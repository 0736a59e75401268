// Package fingerprint computes the content hashes used as dedup keys at
// every hierarchy level. Digests are 128 bits rendered as lowercase hex.
package fingerprint

import (
	"crypto/md5" //nolint:gosec // dedup key, not a security boundary
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Supported algorithm names.
const (
	MD5    = "md5"
	BLAKE3 = "blake3"
)

// Size is the digest length in bytes.
const Size = 16

// Hasher fingerprints bytes and text. It is stateless and safe for
// concurrent use.
type Hasher struct {
	name string
	sum  func([]byte) [Size]byte
}

// New returns the hasher for the named algorithm. An empty name selects MD5.
func New(algorithm string) (*Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "", MD5:
		return &Hasher{name: MD5, sum: md5.Sum}, nil //nolint:gosec
	case BLAKE3:
		return &Hasher{name: BLAKE3, sum: blake3Sum128}, nil
	default:
		return nil, fmt.Errorf("unknown fingerprint algorithm %q", algorithm)
	}
}

// Default returns the MD5 hasher.
func Default() *Hasher {
	h, _ := New(MD5)
	return h
}

// Name returns the algorithm name.
func (h *Hasher) Name() string {
	return h.name
}

// Bytes returns the hex digest of b.
func (h *Hasher) Bytes(b []byte) string {
	sum := h.sum(b)
	return hex.EncodeToString(sum[:])
}

// String returns the hex digest of the UTF-8 encoding of s.
func (h *Hasher) String(s string) string {
	return h.Bytes([]byte(s))
}

// Strings fingerprints each element of texts, preserving order.
func (h *Hasher) Strings(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = h.String(t)
	}
	return out
}

func blake3Sum128(b []byte) [Size]byte {
	full := blake3.Sum256(b)
	var sum [Size]byte
	copy(sum[:], full[:Size])
	return sum
}
