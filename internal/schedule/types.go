package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/petcarelabs/petcare-core/internal/command"
)

// Schedule is a recurring time/day rule that auto-generates commands.
//
// TimeOfDay is "HH:MM" in the site's local time. Weekdays holds the
// firing days with Monday as 0 and Sunday as 6.
type Schedule struct {
	ID          string       `json:"id"`
	DeviceID    string       `json:"device_id"`
	Kind        command.Kind `json:"kind"`
	TimeOfDay   string       `json:"time_of_day"`
	Weekdays    []int        `json:"weekdays"`
	Amount      float64      `json:"amount"`
	Enabled     bool         `json:"enabled"`
	LastFiredAt *time.Time   `json:"last_fired_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewID returns a short unique schedule identifier.
func NewID() string {
	return "sch-" + uuid.NewString()[:8]
}

// Validate checks that the schedule is well formed.
func (s *Schedule) Validate() error {
	if s.DeviceID == "" {
		return fmt.Errorf("%w: device id is required", ErrInvalidSchedule)
	}
	// Only dispensing commands can be scheduled; setpoints are held
	// continuously by the device, not fired on a clock.
	if s.Kind != command.KindDispenseFood && s.Kind != command.KindDispenseWater {
		return fmt.Errorf("%w: kind %q is not schedulable", ErrInvalidSchedule, s.Kind)
	}
	if _, _, err := parseTimeOfDay(s.TimeOfDay); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if len(s.Weekdays) == 0 {
		return fmt.Errorf("%w: at least one weekday is required", ErrInvalidSchedule)
	}
	for _, d := range s.Weekdays {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: weekday %d out of range 0-6", ErrInvalidSchedule, d)
		}
	}
	if s.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidSchedule)
	}
	return nil
}

// MatchesAt reports whether the schedule should fire at the given local
// time: enabled, weekday in the firing set, and hour:minute equal to
// the time-of-day.
func (s *Schedule) MatchesAt(now time.Time) bool {
	if !s.Enabled {
		return false
	}

	hour, minute, err := parseTimeOfDay(s.TimeOfDay)
	if err != nil {
		return false
	}
	if now.Hour() != hour || now.Minute() != minute {
		return false
	}

	day := mondayIndexed(now.Weekday())
	for _, d := range s.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// mondayIndexed converts Go's Sunday-indexed weekday to the stored
// Monday-as-0 convention.
func mondayIndexed(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// parseTimeOfDay parses "HH:MM" into hour and minute.
func parseTimeOfDay(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("time of day %q is not HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// encodeWeekdays renders the weekday set as sorted CSV for storage.
func encodeWeekdays(days []int) string {
	sorted := make([]int, len(days))
	copy(sorted, days)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, d := range sorted {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// decodeWeekdays parses the stored CSV weekday set.
func decodeWeekdays(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("weekday %q is not an integer", p)
		}
		days = append(days, d)
	}
	return days, nil
}
