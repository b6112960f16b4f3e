package vapid

import (
	"encoding/base64"
	"strings"
)

// EncodeKey encodes bytes as unpadded base64url, the only alphabet the push
// protocol accepts on the wire.
func EncodeKey(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeKey decodes a base64-encoded key, tolerating both the url and
// standard alphabets as well as trailing padding. Browsers and key
// generators are inconsistent about which form they hand out.
func DecodeKey(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
