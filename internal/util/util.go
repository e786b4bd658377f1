package util

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

func NewNotificationID() string {
	// ULID is sortable (nice for DB indexes and dashboards)
	t := time.Now().UTC()
	return "ntf_" + ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

func NowUTC() time.Time {
	return time.Now().UTC()
}

// ISO8601 formats a time the way the record and wire events store it.
func ISO8601(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func NowISO8601() string {
	return ISO8601(time.Now())
}
