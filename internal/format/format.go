// Package format renders byte counts, rates and durations for logs and the
// command line.
package format

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// FileSize renders a byte count in binary units ("4.0 MiB").
func FileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// Speed renders a transfer rate ("1.5 MiB/s"). Non-positive rates render as
// a zero rate rather than garbage.
func Speed(bytesPerSecond float64) string {
	if bytesPerSecond <= 0 {
		return "0 B/s"
	}
	return humanize.IBytes(uint64(bytesPerSecond)) + "/s"
}

// Percent renders a clamped percentage with one decimal place.
func Percent(value float64) string {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	return fmt.Sprintf("%.1f%%", value)
}

// TimeRemaining renders an estimated duration. A nil estimate means the rate
// is unknown and renders as such.
func TimeRemaining(estimate *time.Duration) string {
	if estimate == nil {
		return "unknown"
	}
	d := *estimate
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}
