package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/OutletRadar/outlet-api/models"
)

// Status is the open/closed state of an outlet at a point in time.
type Status string

const (
	StatusOpen        Status = "Open Now"
	StatusClosedNow   Status = "Closed Now"
	StatusClosedToday Status = "Closed Today"
	StatusUnknown     Status = "Unknown"
)

const (
	unknownLabel     = "Unknown"
	hoursUnavailable = "Hours not available"
	closedTodayLabel = "Closed today"
)

// ExtractArea pulls a neighborhood label out of a free-text address: the
// second-to-last comma segment when there are at least two, the whole
// address when there is one. This is a grouping heuristic, not geocoding,
// and must tolerate any input.
func ExtractArea(address string) string {
	if strings.TrimSpace(address) == "" {
		return unknownLabel
	}

	parts := strings.Split(address, ",")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[len(parts)-2])
	}
	return strings.TrimSpace(parts[0])
}

func todayHoursEntry(hours []models.DayHours, now time.Time) (models.DayHours, bool) {
	day := now.Weekday().String()
	for _, h := range hours {
		if h.DayOfWeek == day {
			return h, true
		}
	}
	return models.DayHours{}, false
}

// DetermineStatus resolves an outlet's status for the given local time.
// Times are compared lexicographically on the zero-padded HH:MM:SS format,
// which is equivalent to numeric comparison. Overnight windows (closing
// before opening, e.g. 22:00-02:00) report Closed Now during the overnight
// stretch; a known limitation.
func DetermineStatus(hours []models.DayHours, now time.Time) Status {
	today, ok := todayHoursEntry(hours, now)
	if !ok {
		return StatusUnknown
	}
	if today.IsClosed {
		return StatusClosedToday
	}

	current := now.Format("15:04:05")
	if current >= today.OpeningTime && current <= today.ClosingTime {
		return StatusOpen
	}
	return StatusClosedNow
}

// FormatTime renders an HH:MM:SS or HH:MM 24-hour string for display in
// 12-hour form. Strings that are already short or unrecognizable pass
// through unchanged.
func FormatTime(timeString string) string {
	if timeString == "" {
		return ""
	}
	if !strings.Contains(timeString, ":") || len(timeString) <= 5 {
		return timeString
	}

	parts := strings.SplitN(timeString, ":", 3)
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return timeString
	}

	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}

	return fmt.Sprintf("%d:%s %s", hour12, parts[1], ampm)
}

// FormatDistance renders a distance in kilometers with the given precision.
func FormatDistance(distanceKm float64, decimals int) string {
	return fmt.Sprintf("%.*f km", decimals, distanceKm)
}

// TodayHours summarizes today's operating window for display.
func TodayHours(hours []models.DayHours, now time.Time) string {
	today, ok := todayHoursEntry(hours, now)
	if !ok {
		return hoursUnavailable
	}
	if today.IsClosed {
		return closedTodayLabel
	}
	return fmt.Sprintf("Today: %s - %s", FormatTime(today.OpeningTime), FormatTime(today.ClosingTime))
}
