package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// reportKey computes a deterministic cache key using SHA256.
// Formula: SHA256(tenant_id|promotion_id|kind)
// Returns hex-encoded hash (64 characters).
func reportKey(tenantID, promotionID, kind string) string {
	data := fmt.Sprintf("%s|%s|%s", tenantID, promotionID, kind)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
