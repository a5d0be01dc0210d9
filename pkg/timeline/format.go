package timeline

import (
	"fmt"
	"math"
)

// FormatClock renders seconds as M:SS.d. The tenths digit is truncated, not rounded.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	// the epsilon absorbs binary representation error such as 2.3*10 = 22.999...
	tenths := int64(math.Floor(seconds*10 + 1e-6))
	minutes := tenths / 600
	secs := (tenths % 600) / 10
	return fmt.Sprintf("%d:%02d.%d", minutes, secs, tenths%10)
}
