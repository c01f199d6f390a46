package vm

import (
	"encoding/hex"

	"github.com/zeebo/xxh3"
)

// digestHex renders a content hash the way Stats prints it: lowercase hex,
// no separator.
func digestHex(sum [16]byte) string {
	return hex.EncodeToString(sum[:])
}

// executableDigest hashes the full serialized form of an executable. It is
// an integrity aid surfaced through Stats, not a structural check Load
// enforces — a mismatch never aborts a load.
func executableDigest(code []byte) string {
	sum := xxh3.Hash128(code)
	b := sum.Bytes()
	return digestHex(b)
}
