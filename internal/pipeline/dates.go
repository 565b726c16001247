package pipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/lab-report-tracker/internal/common"
)

// sampleDateLayouts is tried in order. Laboratories in the wild emit
// DD-MM-YYYY with either 12-hour or 24-hour clocks, with a trailing AM/PM
// sometimes attached to a 24-hour time, plus bare dates and ISO timestamps.
var sampleDateLayouts = []string{
	"02-01-2006 03:04 PM",
	"02/01/2006 03:04 PM",
	"02-01-2006 15:04 PM",
	"02/01/2006 15:04 PM",
	"02-01-2006 15:04",
	"02/01/2006 15:04",
	"02-01-2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseSampleDate converts an extracted sample-date string into a time.Time.
// An unparseable string is defective input, not a transient fault, so the
// error is non-retryable.
func ParseSampleDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range sampleDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, common.NonRetryable("DATE_UNPARSEABLE",
		"cannot parse sample date "+strconv.Quote(trimmed)+", expected a format like DD-MM-YYYY HH:MM AM/PM", nil)
}
