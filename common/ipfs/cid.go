package ipfs

import (
	"fmt"

	"github.com/ipfs/go-cid"
)

// CheckCid rejects empty or undecodable CID strings returned by a pinning service.
func CheckCid(cidStr string) error {
	if len(cidStr) == 0 {
		return fmt.Errorf("missing cid")
	}
	if _, err := cid.Decode(cidStr); err != nil {
		return fmt.Errorf("invalid cid %q: %w", cidStr, err)
	}
	return nil
}
