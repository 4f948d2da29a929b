package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// Assignment pairs one post with its computed publish timestamp.
type Assignment struct {
	PostID        uuid.UUID `json:"post_id"`
	ScheduledTime time.Time `json:"scheduled_time"`
}

// Allocate computes publish timestamps for the batch under the given
// strategy. Input order is caller-significant and preserved in the result.
// The result may be shorter than the input when the strategy runs out of
// slots; unassigned trailing posts are simply absent, never an error.
func Allocate(now time.Time, postIDs []uuid.UUID, strategy Strategy) ([]Assignment, error) {
	if err := strategy.Validate(); err != nil {
		return nil, err
	}

	times := strategy.allocate(now.UTC(), len(postIDs))
	assignments := make([]Assignment, 0, len(times))
	for i, t := range times {
		assignments = append(assignments, Assignment{PostID: postIDs[i], ScheduledTime: t})
	}
	return assignments, nil
}

func (s EvenlySpaced) allocate(_ time.Time, count int) []time.Time {
	if count == 0 {
		return nil
	}

	days := daysBetween(s.StartDate, s.EndDate) + 1
	perDay := float64(count) / float64(days)

	times := make([]time.Time, 0, count)

	if perDay <= float64(len(s.TimeSlots)) {
		// Sparse batch: walk successive slots within a day, rolling to the
		// next day once the day's slots are used. Posts past the end date
		// stay unassigned.
		currentDate := s.StartDate
		slotIndex := 0
		for i := 0; i < count; i++ {
			if currentDate.After(s.EndDate) {
				break
			}
			times = append(times, s.TimeSlots[slotIndex].On(currentDate))
			slotIndex++
			if slotIndex >= len(s.TimeSlots) {
				slotIndex = 0
				currentDate = currentDate.AddDate(0, 0, 1)
			}
		}
		return times
	}

	// Dense batch: spread posts across the range using only the first slot.
	daysPerPost := float64(days) / float64(count)
	for i := 0; i < count; i++ {
		dayOffset := int(float64(i) * daysPerPost)
		date := s.StartDate.AddDate(0, 0, dayOffset)
		times = append(times, s.TimeSlots[0].On(date))
	}
	return times
}

func (s SpecificDays) allocate(now time.Time, count int) []time.Time {
	if count == 0 {
		return nil
	}

	wanted := make(map[time.Weekday]bool, len(s.Weekdays))
	for _, day := range s.Weekdays {
		wanted[day] = true
	}
	slots := sortedSlots(s.TimeSlots)

	const daysPerWeek = 7
	start := dateOf(now)
	end := start.AddDate(0, 0, daysPerWeek*s.WeeksAhead)

	// Candidates in chronological order; only future timestamps qualify.
	candidates := make([]time.Time, 0, count)
	for date := start; !date.After(end) && len(candidates) < count; date = date.AddDate(0, 0, 1) {
		if !wanted[date.Weekday()] {
			continue
		}
		for _, slot := range slots {
			if len(candidates) >= count {
				break
			}
			if t := slot.On(date); t.After(now) {
				candidates = append(candidates, t)
			}
		}
	}
	return candidates
}

// optimalHours is the fixed heuristic hour set for OptimalTimes.
var optimalHours = []int{9, 12, 17, 20}

func (s OptimalTimes) allocate(now time.Time, count int) []time.Time {
	if count == 0 {
		return nil
	}

	times := make([]time.Time, 0, count)
	date := dateOf(now)
	for day := 0; day < s.DaysAhead && len(times) < count; day++ {
		for _, hour := range optimalHours {
			if len(times) >= count {
				break
			}
			t := TimeOfDay{Hour: hour}.On(date)
			if t.After(now) {
				times = append(times, t)
			}
		}
		date = date.AddDate(0, 0, 1)
	}
	return times
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)).Hours() / 24)
}

// dateOf truncates a timestamp to its UTC calendar date.
func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
