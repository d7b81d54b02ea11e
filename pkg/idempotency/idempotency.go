// Package idempotency extracts the replay key clients may attach to checkout
// requests. A repeated key returns the original checkout result instead of
// charging twice.
package idempotency

import (
	"net/http"
	"strings"
)

const Header = "Idempotency-Key"

func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}
