package utils

import (
	"fmt"
	"strconv"
	"time"
)

func FormatNumber(n int64) string {
	str := strconv.FormatInt(n, 10)
	if n < 0 {
		str = str[1:] // Remove minus sign for processing
	}

	var result []byte
	for i := len(str) - 1; i >= 0; i-- {
		if (len(str)-i-1)%3 == 0 && i != len(str)-1 {
			result = append([]byte{','}, result...)
		}
		result = append([]byte{str[i]}, result...)
	}

	if n < 0 {
		return "-" + string(result)
	}
	return string(result)
}

// FormatDuration renders a duration in the largest two units that matter,
// rounded up so a player never sees "0s" on an active timer.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "now"
	}
	d = d.Round(time.Second)

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	seconds := (d - minutes*time.Minute) / time.Second

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// FormatPercent renders a probability as a whole percentage.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.0f%%", p*100)
}
