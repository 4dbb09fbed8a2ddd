package viewer

import (
	"strings"
	"time"
)

const dateLayout = "Jan 2, 2006"

// timestampLayouts are tried in order by FormatDate. SQLite's CURRENT_TIMESTAMP
// produces the space-separated form.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatDate renders a backend timestamp as "Jan 2, 2006". It returns "" for an
// empty or unparseable timestamp.
func FormatDate(ts string) string {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return ""
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format(dateLayout)
		}
	}
	return ""
}

// FormatTime is FormatDate for an already parsed time. The zero time yields "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
