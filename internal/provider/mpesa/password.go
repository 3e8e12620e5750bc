package mpesa

import (
	"encoding/base64"
	"time"
)

// timestampLayout is the fixed-width numeric form the API expects,
// always in UTC.
const timestampLayout = "20060102150405"

// Password derives the Lipa Na M-Pesa password for one instant:
// base64(shortCode + passKey + timestamp). Deterministic, no side
// effects.
func Password(shortCode, passKey string, t time.Time) string {
	data := shortCode + passKey + t.UTC().Format(timestampLayout)
	return base64.StdEncoding.EncodeToString([]byte(data))
}

// Credentials captures a single UTC instant and returns both the wire
// timestamp and the password derived from it. The password embeds the
// timestamp as a signature input, so the two must come from the same
// instant; callers get them from one call and cannot mix instants.
func Credentials(shortCode, passKey string) (password, timestamp string) {
	now := time.Now().UTC()
	return Password(shortCode, passKey, now), now.Format(timestampLayout)
}
