package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayload is the hex HMAC-SHA256 digest Korapay computes over the raw
// `data` segment of a webhook body.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifySignature(secret string, payload []byte, signature string) bool {
	if signature == "" {
		return false
	}
	return hmac.Equal([]byte(SignPayload(secret, payload)), []byte(signature))
}
