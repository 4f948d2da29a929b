// Package scheduler computes publish timestamps for batches of posts.
package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ehtisham-sadiq/social-content-api/internal/domain"
)

// Strategy tags accepted in scheduling requests.
const (
	StrategyEvenlySpaced = "evenly_spaced"
	StrategySpecificDays = "specific_days"
	StrategyOptimalTimes = "optimal_times"
)

// Defaults applied when a request omits optional configuration.
const (
	defaultWeeksAhead = 4
	defaultDaysAhead  = 14
)

var defaultTimeSlots = []TimeOfDay{{Hour: 9}}

// TimeOfDay is a wall-clock slot such as 09:00.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses an "HH:MM" slot string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, &domain.ValidationError{Msg: fmt.Sprintf("invalid time slot %q, expected HH:MM", s)}
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, &domain.ValidationError{Msg: fmt.Sprintf("invalid hour in time slot %q", s)}
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, &domain.ValidationError{Msg: fmt.Sprintf("invalid minute in time slot %q", s)}
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// On combines the slot with a calendar date in UTC.
func (t TimeOfDay) On(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, time.UTC)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

var weekdayNames = map[string]time.Weekday{
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
	"Sunday":    time.Sunday,
}

// ParseWeekday resolves a day name such as "Monday".
func ParseWeekday(name string) (time.Weekday, error) {
	day, ok := weekdayNames[name]
	if !ok {
		return 0, &domain.ValidationError{Msg: fmt.Sprintf("unknown weekday %q", name)}
	}
	return day, nil
}

// Strategy is a closed set of allocation policies. Each variant validates its
// own configuration exhaustively at construction, so an allocated strategy is
// always structurally sound.
type Strategy interface {
	// Validate checks the strategy configuration.
	Validate() error

	// allocate assigns timestamps to up to len(count) items relative to now.
	// It may return fewer timestamps than count when slots run out; this is a
	// documented partial result, never an error.
	allocate(now time.Time, count int) []time.Time
}

// EvenlySpaced distributes posts across a date range using configured
// time-of-day slots.
type EvenlySpaced struct {
	StartDate time.Time
	EndDate   time.Time
	TimeSlots []TimeOfDay
}

// Validate checks the date range and slot list.
func (s EvenlySpaced) Validate() error {
	if s.EndDate.Before(s.StartDate) {
		return &domain.ValidationError{Msg: "end_date is before start_date"}
	}
	if len(s.TimeSlots) == 0 {
		return &domain.ValidationError{Msg: "at least one time slot is required"}
	}
	return nil
}

// SpecificDays schedules posts on chosen weekdays over a lookahead window.
type SpecificDays struct {
	Weekdays   []time.Weekday
	TimeSlots  []TimeOfDay
	WeeksAhead int
}

// Validate checks the weekday set, slot list and lookahead window.
func (s SpecificDays) Validate() error {
	if len(s.Weekdays) == 0 {
		return &domain.ValidationError{Msg: "at least one weekday is required"}
	}
	if len(s.TimeSlots) == 0 {
		return &domain.ValidationError{Msg: "at least one time slot is required"}
	}
	if s.WeeksAhead < 1 {
		return &domain.ValidationError{Msg: "weeks_ahead must be at least 1"}
	}
	return nil
}

// OptimalTimes schedules posts at a fixed heuristic hour set over the next
// DaysAhead days.
type OptimalTimes struct {
	DaysAhead int
}

// Validate checks the lookahead window.
func (s OptimalTimes) Validate() error {
	if s.DaysAhead < 1 {
		return &domain.ValidationError{Msg: "days_ahead must be at least 1"}
	}
	return nil
}

// Config is the wire form of strategy configuration carried by a scheduling
// request. Only the fields relevant to the strategy tag are read.
type Config struct {
	StartDate  string   `json:"start_date,omitempty"`
	EndDate    string   `json:"end_date,omitempty"`
	TimeSlots  []string `json:"time_slots,omitempty"`
	Days       []string `json:"days,omitempty"`
	WeeksAhead int      `json:"weeks_ahead,omitempty"`
	DaysAhead  int      `json:"days_ahead,omitempty"`
}

// StrategyFromConfig builds and validates the typed strategy for a tag.
// Unknown tags and structurally invalid configuration return ValidationError.
func StrategyFromConfig(tag string, cfg Config) (Strategy, error) {
	switch tag {
	case StrategyEvenlySpaced:
		return evenlySpacedFromConfig(cfg)
	case StrategySpecificDays:
		return specificDaysFromConfig(cfg)
	case StrategyOptimalTimes:
		return optimalTimesFromConfig(cfg)
	default:
		return nil, &domain.ValidationError{Msg: fmt.Sprintf("unknown schedule strategy %q", tag)}
	}
}

func evenlySpacedFromConfig(cfg Config) (Strategy, error) {
	start, err := parseDate(cfg.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := parseDate(cfg.EndDate, "end_date")
	if err != nil {
		return nil, err
	}
	slots, err := parseTimeSlots(cfg.TimeSlots)
	if err != nil {
		return nil, err
	}
	s := EvenlySpaced{StartDate: start, EndDate: end, TimeSlots: slots}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func specificDaysFromConfig(cfg Config) (Strategy, error) {
	days := cfg.Days
	if len(days) == 0 {
		days = []string{"Monday"}
	}
	weekdays := make([]time.Weekday, 0, len(days))
	for _, name := range days {
		day, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		weekdays = append(weekdays, day)
	}

	slots, err := parseTimeSlots(cfg.TimeSlots)
	if err != nil {
		return nil, err
	}

	weeksAhead := cfg.WeeksAhead
	if weeksAhead == 0 {
		weeksAhead = defaultWeeksAhead
	}

	s := SpecificDays{Weekdays: weekdays, TimeSlots: slots, WeeksAhead: weeksAhead}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func optimalTimesFromConfig(cfg Config) (Strategy, error) {
	daysAhead := cfg.DaysAhead
	if daysAhead == 0 {
		daysAhead = defaultDaysAhead
	}
	s := OptimalTimes{DaysAhead: daysAhead}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseDate accepts a calendar date ("2024-01-01") or a full RFC 3339
// timestamp and normalizes it to UTC.
func parseDate(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &domain.ValidationError{Msg: field + " is required"}
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Msg: fmt.Sprintf("invalid %s %q", field, value)}
	}
	return t.UTC(), nil
}

func parseTimeSlots(raw []string) ([]TimeOfDay, error) {
	if len(raw) == 0 {
		return defaultTimeSlots, nil
	}
	slots := make([]TimeOfDay, 0, len(raw))
	for _, s := range raw {
		slot, err := ParseTimeOfDay(s)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// sortedSlots returns a chronologically ordered copy of the slot list.
func sortedSlots(slots []TimeOfDay) []TimeOfDay {
	out := make([]TimeOfDay, len(slots))
	copy(out, slots)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return out[i].Minute < out[j].Minute
	})
	return out
}
