package report

import (
	"fmt"
	"math"
)

var sizeUnits = []string{"", "K", "M", "G", "T", "P", "E", "Z"}

// FormatSize renders a byte count in 1024 steps with one decimal and a "b"
// suffix, e.g. 1536 -> "1.5Kb".
func FormatSize(n float64) string {
	for _, unit := range sizeUnits {
		if math.Abs(n) < 1024.0 {
			return fmt.Sprintf("%3.1f%s%s", n, unit, "b")
		}
		n /= 1024.0
	}
	return fmt.Sprintf("%.1f%s%s", n, "Yi", "b")
}
