package types

import (
	"time"

	"github.com/google/uuid"
)

// ScanID identifies one recorded engine scan. UUIDv7, so IDs sort by creation time.
type ScanID string

// NewScanID generates a UUIDv7 scan identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewScanID() ScanID {
	return ScanID(uuid.Must(uuid.NewV7()).String())
}

// ParseScanID validates and converts a string to ScanID.
func ParseScanID(s string) (ScanID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return ScanID(s), nil
}

// ScanIDTime extracts the timestamp embedded in a UUIDv7 ID.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func ScanIDTime(id ScanID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
