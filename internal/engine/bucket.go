package engine

import (
	"fmt"
	"time"

	"github.com/railops/phaseline/internal/core/order"
	"github.com/railops/phaseline/internal/core/phase"
)

// BucketKey derives the deduplication key that groups items into one
// shared task. It is a pure function of the window's bucket
// granularity, the target date, and the item.
func BucketKey(def phase.Definition, target time.Time, item order.Item) string {
	switch def.Window.Bucket {
	case phase.BucketYear:
		if item.TimetableYear != "" {
			return item.TimetableYear
		}
		return fmt.Sprintf("%04d", target.Year())

	case phase.BucketWeek:
		return startOfISOWeek(target).Format("2006-01-02")

	case phase.BucketHour:
		return target.Format("2006-01-02T15:00")

	default: // day
		return target.Format("2006-01-02")
	}
}

// startOfISOWeek returns the Monday 00:00 of the week containing t, in
// t's location.
func startOfISOWeek(t time.Time) time.Time {
	// Remap Sunday=0..Saturday=6 to Monday=0..Sunday=6.
	d := (int(t.Weekday()) + 6) % 7
	year, month, day := t.AddDate(0, 0, -d).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
