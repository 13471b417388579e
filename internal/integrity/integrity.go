// Package integrity verifies a downloaded tarball's checksum against the
// registry-declared value, adapted from a-h-depot's npm/sri package
// (trimmed to the classic hex sha1 "shasum" field npm's abbreviated
// metadata actually carries, rather than the full SRI algorithm set).
package integrity

import (
	"crypto/sha1"
	"encoding/hex"
	"hash"

	"github.com/jm-dev/jm/internal/jmerrors"
)

// Verifier hashes bytes written through it and checks the final digest
// against an expected hex-encoded sha1.
type Verifier struct {
	hasher hash.Hash
}

// New constructs a Verifier.
func New() *Verifier {
	return &Verifier{hasher: sha1.New()}
}

// Write feeds p into the running digest, satisfying io.Writer so a
// Verifier can be used as a tee alongside a file write.
func (v *Verifier) Write(p []byte) (int, error) {
	return v.hasher.Write(p)
}

// Check reports whether the accumulated digest matches expectedShasum
// (hex-encoded sha1, e.g. npm's dist.shasum).
func (v *Verifier) Check(expectedShasum string) error {
	got := hex.EncodeToString(v.hasher.Sum(nil))
	if expectedShasum == "" {
		return nil
	}
	if got != expectedShasum {
		return jmerrors.Newf("tarball checksum mismatch: expected %s, got %s", expectedShasum, got)
	}
	return nil
}
