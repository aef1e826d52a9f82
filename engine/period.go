package engine

import (
	"fmt"
	"time"
)

// ============================================================================
// PERIOD HELPER — Covered time span for dashboard subtitles
// ============================================================================

// DerivePeriod builds a human-readable period string from a view's
// timestamp dimension, e.g. "Jan 2025 – Jun 2025".
func DerivePeriod(view RecordView) string {
	if view.Len() == 0 {
		return "No data"
	}

	var earliest, latest time.Time
	found := false
	for i := 0; i < view.Len(); i++ {
		t, ok := recordTime(view, i)
		if !ok {
			continue
		}
		if !found {
			earliest, latest = t, t
			found = true
			continue
		}
		if t.Before(earliest) {
			earliest = t
		}
		if t.After(latest) {
			latest = t
		}
	}

	if !found {
		return "All time"
	}

	const layout = "Jan 2006"
	if earliest.Format(layout) == latest.Format(layout) {
		return earliest.Format(layout)
	}
	return fmt.Sprintf("%s – %s", earliest.Format(layout), latest.Format(layout))
}
