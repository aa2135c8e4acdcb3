package sim

import (
	"fmt"
	"strconv"
	"time"
)

// ParseInterval converts an interval spec like "1m", "4h", "1d" into a fixed
// step duration. Supported units: m (minutes), h (hours), d (days), w (weeks).
func ParseInterval(spec string) (time.Duration, error) {
	if len(spec) < 2 {
		return 0, fmt.Errorf("invalid interval %q", spec)
	}
	n, err := strconv.Atoi(spec[:len(spec)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid interval %q", spec)
	}
	var unit time.Duration
	switch spec[len(spec)-1] {
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid interval unit in %q", spec)
	}
	return time.Duration(n) * unit, nil
}
