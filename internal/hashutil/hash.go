// Package hashutil computes and canonicalizes the content hashes this
// catalog uses as its primary key for deduplication.
package hashutil

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/zeebo/blake3"

	"assetcatalog/internal/constants"
)

var hexPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ComputeBlake3Hex computes the BLAKE3 hash of a byte slice, returned as a
// lowercase 64-char hex string (no "blake3:" prefix).
func ComputeBlake3Hex(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ComputeFileBlake3Hex streams a file's contents through BLAKE3 without
// loading it entirely into memory, returning the lowercase 64-char hex
// digest.
func ComputeFileBlake3Hex(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// StreamAndHash copies r into w while computing the BLAKE3 digest of the
// bytes written, returning the lowercase 64-char hex digest and the total
// byte count. Used by the upload path to hash a temp file while streaming
// it to disk in a single pass.
func StreamAndHash(w io.Writer, r io.Reader) (digestHex string, size int64, err error) {
	hasher := blake3.New()
	mw := io.MultiWriter(w, hasher)
	size, err = io.Copy(mw, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), size, nil
}

// Canonical renders a raw 64-char hex digest in this catalog's canonical
// hash form: "blake3:" + 64 lowercase hex chars.
func Canonical(hexDigest string) string {
	return constants.HashAlgoPrefix + strings.ToLower(hexDigest)
}

// Normalize accepts a caller-supplied hash string in the canonical form
// (optionally mixed-case, with surrounding whitespace) and returns the
// canonical lowercase form, or an error if it does not parse as a BLAKE3
// hash of the expected length.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(strings.ToLower(s), constants.HashAlgoPrefix) {
		return "", fmt.Errorf("hash must start with %q", constants.HashAlgoPrefix)
	}
	digest := strings.ToLower(s[len(constants.HashAlgoPrefix):])
	if len(digest) != constants.HashHexLength || !hexPattern.MatchString(digest) {
		return "", fmt.Errorf("hash digest must be %d lowercase hex characters", constants.HashHexLength)
	}
	return constants.HashAlgoPrefix + digest, nil
}

// IsValid reports whether raw parses as a canonical hash.
func IsValid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}
