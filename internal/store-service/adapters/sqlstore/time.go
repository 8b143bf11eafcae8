package sqlstore

import (
	"fmt"
	"time"
)

// tsLayout is fixed width so that TEXT ordering equals chronological
// ordering and substr(created_at, 1, 10) is the UTC calendar day.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

// parseTime parses the timestamp strings stored by formatTime.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlstore: parse time %q: %w", s, err)
	}
	return t, nil
}
