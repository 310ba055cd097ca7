package registry

import (
	"crypto/sha256"

	"github.com/btcsuite/btcutil/base58"
)

// benchmarkID derives the stored identifier from the content hash and the
// creator, so two users can register the same environment without
// colliding while re-registration by the same user stays deterministic.
func benchmarkID(hash, creator string) string {
	sum := sha256.Sum256([]byte(hash + ":" + creator))
	return base58.Encode(sum[:])
}
