package parkinglog

import (
	"fmt"
	"math"
)

// FormatParkingTime 把停车时长（小时）格式化为易读串："2d 3h"、"3h 15m"、"45m"、"< 1m"。
func FormatParkingTime(hours float64) string {
	if hours <= 0 {
		return ""
	}

	days := int(hours / 24)
	h := int(hours) - days*24
	m := int((hours - math.Floor(hours)) * 60)

	switch {
	case days > 0 && h > 0:
		return fmt.Sprintf("%dd %dh", days, h)
	case days > 0 && m > 0:
		return fmt.Sprintf("%dd %dm", days, m)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	case m > 0:
		return fmt.Sprintf("%dm", m)
	default:
		return "< 1m"
	}
}
