// Package checksum computes the content digests used for change detection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded first 8 bytes of the SHA-256 digest of data.
// Equal digests are treated as identical content; the truncation keeps
// ledger rows compact at an accepted residual collision risk.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:8])
}
