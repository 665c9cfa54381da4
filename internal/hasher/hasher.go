// Package hasher computes content digests that tie a finding to the exact
// bytes that were examined.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// chunkSize bounds memory per digest regardless of file size.
const chunkSize = 64 * 1024

// Digest streams the file at path through SHA-256 and returns the lowercase
// hex digest of its full content.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DigestReader(f)
}

// DigestReader is Digest for an already open stream.
func DigestReader(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestOrEmpty returns "" instead of an error so a single unreadable file
// never aborts a scan.
func DigestOrEmpty(path string) string {
	d, err := Digest(path)
	if err != nil {
		return ""
	}
	return d
}
