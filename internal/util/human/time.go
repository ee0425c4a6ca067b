package human

import (
	"fmt"
	"math"
	"time"
)

// TimeFromBase renders t relative to base ("in 5 mins", "2 hrs ago"),
// falling back to a plain date once the distance stops reading well.
func TimeFromBase(base, t time.Time) string {
	diff := t.Sub(base)
	future := diff >= 0
	if !future {
		diff = -diff
	}

	if diff < time.Second {
		return "now"
	}

	var s string
	switch {
	case diff <= 90*time.Second:
		s = fmt.Sprintf("%v secs", math.Round(diff.Seconds()))
	case diff <= 90*time.Minute:
		s = fmt.Sprintf("%v mins", math.Round(diff.Minutes()))
	case diff <= 36*time.Hour:
		s = fmt.Sprintf("%v hrs", math.Round(diff.Hours()))
	case diff <= 14*24*time.Hour:
		s = fmt.Sprintf("%v days", math.Round(diff.Hours()/24))
	default:
		return t.Format(time.DateOnly)
	}
	if future {
		return "in " + s
	}
	return s + " ago"
}
