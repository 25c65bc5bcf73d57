package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/lifecycle"
	"sprint-tracker/internal/notify"
	"sprint-tracker/internal/repository"
)

type SweepFailure struct {
	SprintID string `json:"sprint_id"`
	Reason   string `json:"reason"`
}

// SweepResult summarizes one pass over the sprints. Changed counts status
// transitions for the daily sweep and reminders sent for the reminder sweep.
type SweepResult struct {
	Processed int            `json:"processed"`
	Changed   int            `json:"changed"`
	Failures  []SweepFailure `json:"failures"`

	errs *multierror.Error
}

func (r *SweepResult) fail(sprintID string, err error) {
	r.Failures = append(r.Failures, SweepFailure{SprintID: sprintID, Reason: err.Error()})
	r.errs = multierror.Append(r.errs, domain.SprintErr("sweep", sprintID, err))
}

// Err returns every per-sprint failure combined, or nil if the pass was clean.
func (r *SweepResult) Err() error {
	return r.errs.ErrorOrNil()
}

// RunDailySweep advances every due sprint by one step: UPCOMING sprints whose
// start date has arrived become ACTIVE, ACTIVE sprints past their end date
// become COMPLETED. Sprints are processed one at a time, each in its own
// transaction, and one sprint's failure never stops the pass.
func (s *Service) RunDailySweep(ctx context.Context) SweepResult {
	var result SweepResult
	today := s.today()

	sprints, err := s.repo.ListSprintsByStatus(ctx, domain.SprintUpcoming, domain.SprintActive)
	if err != nil {
		err = translate(err)
		s.logFailure("RunDailySweep: failed to list sprints", err)
		result.fail("", err)
		return result
	}

	for _, sp := range sprints {
		if ctx.Err() != nil {
			result.fail(sp.ID, ctx.Err())
			break
		}
		result.Processed++

		moved, err := s.advance(ctx, sp.ID, today)
		if err != nil {
			s.logFailure("RunDailySweep: failed to advance sprint", err, zap.String("sprint_id", sp.ID))
			result.fail(sp.ID, err)
			continue
		}
		if moved == nil {
			continue
		}

		result.Changed++
		s.logger.Info("RunDailySweep: sprint advanced",
			zap.String("sprint_id", moved.ID),
			zap.String("status", string(moved.Status)),
		)
		switch moved.Status {
		case domain.SprintActive:
			s.send(ctx, moved.CreatedBy, notify.TypeSprintStarted, "Sprint %q has started", moved.Name)
		case domain.SprintCompleted:
			s.send(ctx, moved.CreatedBy, notify.TypeSprintCompleted, "Sprint %q has been completed", moved.Name)
		}
	}

	s.logger.Info("RunDailySweep: finished",
		zap.Int("processed", result.Processed),
		zap.Int("transitioned", result.Changed),
		zap.Int("failed", len(result.Failures)),
	)
	return result
}

// advance returns the updated sprint, or nil when the sprint was not due.
func (s *Service) advance(ctx context.Context, id string, today time.Time) (*domain.Sprint, error) {
	var moved *domain.Sprint

	err := s.repo.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		sprint, err := st.GetSprintForUpdate(ctx, id)
		if err != nil {
			return translate(err)
		}

		next, ok, err := lifecycle.Next(*sprint, today)
		if err != nil || !ok {
			return err
		}

		if next == domain.SprintCompleted {
			err = s.close(ctx, st, sprint, next, s.defaultPolicy)
			if err != nil {
				return err
			}
		} else {
			sprint.Status = next
			sprint.UpdatedAt = s.now()
			err = translate(st.UpdateSprint(ctx, sprint))
			if err != nil {
				return err
			}
		}

		moved = sprint
		return nil
	})
	return moved, err
}

// RunReminderSweep sends one "ending soon" notice per ACTIVE sprint per
// calendar day while the sprint's end date is within the look-ahead window.
// The reminder date is stored before the notice goes out.
func (s *Service) RunReminderSweep(ctx context.Context) SweepResult {
	var result SweepResult
	today := s.today()

	sprints, err := s.repo.ListSprintsByStatus(ctx, domain.SprintActive)
	if err != nil {
		err = translate(err)
		s.logFailure("RunReminderSweep: failed to list sprints", err)
		result.fail("", err)
		return result
	}

	for _, sp := range sprints {
		if ctx.Err() != nil {
			result.fail(sp.ID, ctx.Err())
			break
		}
		result.Processed++

		reminded, err := s.markReminded(ctx, sp.ID, today)
		if err != nil {
			s.logFailure("RunReminderSweep: failed to process sprint", err, zap.String("sprint_id", sp.ID))
			result.fail(sp.ID, err)
			continue
		}
		if reminded == nil {
			continue
		}

		result.Changed++
		s.send(ctx, reminded.CreatedBy, notify.TypeSprintEndingSoon, "Sprint %q ends %s",
			reminded.Name, endsIn(lifecycle.DaysLeft(*reminded, today)))
	}

	s.logger.Info("RunReminderSweep: finished",
		zap.Int("processed", result.Processed),
		zap.Int("reminded", result.Changed),
		zap.Int("failed", len(result.Failures)),
	)
	return result
}

func (s *Service) markReminded(ctx context.Context, id string, today time.Time) (*domain.Sprint, error) {
	var reminded *domain.Sprint

	err := s.repo.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		sprint, err := st.GetSprintForUpdate(ctx, id)
		if err != nil {
			return translate(err)
		}

		err = lifecycle.Validate(*sprint)
		if err != nil {
			return err
		}
		if !lifecycle.ReminderDue(*sprint, today, s.lookAhead) {
			return nil
		}

		sprint.LastReminderDate = &today
		sprint.UpdatedAt = s.now()
		err = translate(st.UpdateSprint(ctx, sprint))
		if err != nil {
			return err
		}

		reminded = sprint
		return nil
	})
	return reminded, err
}

func endsIn(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	}
	return fmt.Sprintf("in %d days", days)
}
