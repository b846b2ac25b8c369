// BYZRA ⸻ internal/util/timing.go
// elapsed time rendering

package util

import (
	"fmt"
	"time"
)

// "1h 2m 3s", "2m 3s" or "3s"
func FormatElapsed(d time.Duration) string {
	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
