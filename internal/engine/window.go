package engine

import (
	"time"

	"github.com/railops/phaseline/internal/core/phase"
)

// WithinWindow reports whether target falls inside the phase window as
// of now. Window bounds are converted to minutes and normalized, so a
// window authored with start > end still matches its intended range.
// Bounds are inclusive on both sides.
func WithinWindow(w phase.WindowConfig, target, now time.Time) bool {
	startMin, endMin := w.Minutes()
	diff := target.Sub(now).Minutes()
	return float64(startMin) <= diff && diff <= float64(endMin)
}
