// Package lifecycle holds the sprint state machine. Nothing here touches
// storage: callers load a sprint, ask for a decision, and persist the result.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/jinzhu/now"

	"sprint-tracker/internal/domain"
)

var transitions = map[domain.SprintStatus][]domain.SprintStatus{
	domain.SprintUpcoming:  {domain.SprintActive, domain.SprintCancelled},
	domain.SprintActive:    {domain.SprintCompleted, domain.SprintCancelled},
	domain.SprintCompleted: nil,
	domain.SprintCancelled: nil,
}

// Today returns the calendar day t falls on in loc.
func Today(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return domain.Date(now.With(t.In(loc)).BeginningOfDay())
}

func CanTransition(from, to domain.SprintStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition checks that sprint may move to the target status.
func Transition(s domain.Sprint, to domain.SprintStatus) error {
	if !CanTransition(s.Status, to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, s.Status, to)
	}
	return nil
}

// Validate rejects sprints whose stored dates cannot drive a decision.
func Validate(s domain.Sprint) error {
	if !s.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, s.Status)
	}
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return fmt.Errorf("%w: sprint dates are not set", domain.ErrInvalidInput)
	}
	if domain.Date(s.StartDate).After(domain.Date(s.EndDate)) {
		return fmt.Errorf("%w: start date %s is after end date %s", domain.ErrInvalidInput,
			s.StartDate.Format(time.DateOnly), s.EndDate.Format(time.DateOnly))
	}
	return nil
}

// Next returns the status the daily sweep moves s to, and whether it moves at
// all. A sprint advances at most one step per sweep.
func Next(s domain.Sprint, today time.Time) (domain.SprintStatus, bool, error) {
	if err := Validate(s); err != nil {
		return s.Status, false, err
	}
	today = domain.Date(today)

	switch s.Status {
	case domain.SprintUpcoming:
		if !domain.Date(s.StartDate).After(today) {
			return domain.SprintActive, true, nil
		}
	case domain.SprintActive:
		if domain.Date(s.EndDate).Before(today) {
			return domain.SprintCompleted, true, nil
		}
	}
	return s.Status, false, nil
}

// ReminderDue reports whether an "ending soon" notice should go out for s
// today. At most one notice per sprint per calendar day.
func ReminderDue(s domain.Sprint, today time.Time, lookAheadDays int) bool {
	if s.Status != domain.SprintActive {
		return false
	}
	today = domain.Date(today)
	if s.LastReminderDate != nil && domain.Date(*s.LastReminderDate).Equal(today) {
		return false
	}
	left := domain.DaysBetween(today, s.EndDate)
	return left >= 0 && left <= lookAheadDays
}

// DaysLeft is the number of calendar days until the sprint ends.
func DaysLeft(s domain.Sprint, today time.Time) int {
	return domain.DaysBetween(today, s.EndDate)
}
