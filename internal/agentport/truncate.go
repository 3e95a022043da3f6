package agentport

import (
	"crypto/sha256"
	"encoding/hex"
)

// truncateFrame bounds a frame for logging. When the frame is cut, the
// hash of the full payload is returned so repeated junk stays traceable.
func truncateFrame(in []byte, maxBytes int) ([]byte, bool, int, string) {
	if maxBytes <= 0 || len(in) <= maxBytes {
		return in, false, len(in), ""
	}
	sum := sha256.Sum256(in)
	return in[:maxBytes], true, len(in), hex.EncodeToString(sum[:])
}
