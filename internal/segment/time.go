package segment

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Leaderboard time strings come in three literal shapes.
var (
	minSecPattern     = regexp.MustCompile(`^\d+:\d+$`)
	hourMinSecPattern = regexp.MustCompile(`^\d+:\d+:\d+$`)
	secondsPattern    = regexp.MustCompile(`^\d+s$`)
)

// ParseEffortTime converts a leaderboard time string (M:SS, H:MM:SS, or
// Ss) to total seconds. Any other shape is ErrUnrecognizedTimeFormat.
func ParseEffortTime(raw string) (int, error) {
	switch {
	case minSecPattern.MatchString(raw):
		parts := strings.SplitN(raw, ":", 2)
		return splitToSeconds(0, parts[0], parts[1])
	case hourMinSecPattern.MatchString(raw):
		parts := strings.SplitN(raw, ":", 3)
		hours, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, fmt.Errorf("parse hours %q: %w", raw, err)
		}
		return splitToSeconds(hours, parts[1], parts[2])
	case secondsPattern.MatchString(raw):
		seconds, err := strconv.Atoi(strings.TrimSuffix(raw, "s"))
		if err != nil {
			return 0, fmt.Errorf("parse seconds %q: %w", raw, err)
		}
		return seconds, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnrecognizedTimeFormat, raw)
	}
}

func splitToSeconds(hours int, minutePart, secondPart string) (int, error) {
	minutes, err := strconv.Atoi(minutePart)
	if err != nil {
		return 0, fmt.Errorf("parse minutes: %w", err)
	}
	seconds, err := strconv.Atoi(secondPart)
	if err != nil {
		return 0, fmt.Errorf("parse seconds: %w", err)
	}
	return hours*3600 + minutes*60 + seconds, nil
}

// Pace derives minutes-per-kilometre from an effort time string and a
// distance in metres, rounded to one decimal place. Records without a
// parseable time get NaN, which the ranked view sorts last.
func Pace(effortTime string, distanceM float64) (float64, error) {
	totalSeconds, err := ParseEffortTime(effortTime)
	if err != nil {
		return math.NaN(), err
	}
	if distanceM <= 0 {
		return math.NaN(), fmt.Errorf("non-positive distance %g", distanceM)
	}
	pace := (float64(totalSeconds) / 60.0) / (distanceM / 1000.0)
	return math.Round(pace*10) / 10, nil
}
