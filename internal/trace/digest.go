package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainRun is the domain prefix for run digests. The version suffix
// enables future algorithm migration.
const DomainRun = "verdict/run/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RunDigest computes the content-addressed identity of a run: the hash
// of its canonical trace snapshot. Two runs of the same scenario with
// the same behavior share a digest, which is how the store's history can
// spot drift between recorded runs.
func RunDigest(s Snapshot) (string, error) {
	canonical, err := MarshalSnapshot(s)
	if err != nil {
		return "", fmt.Errorf("RunDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}

// MustRunDigest is like RunDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRunDigest(s Snapshot) string {
	d, err := RunDigest(s)
	if err != nil {
		panic(err)
	}
	return d
}
