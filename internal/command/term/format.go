package term

import (
	"fmt"
	"time"
)

func DurationToStrSeconds(duration time.Duration) string {
	return fmt.Sprintf("%.3f", duration.Seconds())
}

func StrDurationSec(start, end time.Time) string {
	return DurationToStrSeconds(end.Sub(start))
}
