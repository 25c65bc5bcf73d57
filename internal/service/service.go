// Package service orchestrates the sprint lifecycle, the reconciler and the
// commit review pipeline on top of a repository.Repository.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/lifecycle"
	"sprint-tracker/internal/notify"
	"sprint-tracker/internal/repository"
)

//go:generate mockgen -destination=mock_notifier_test.go -package=service sprint-tracker/internal/notify Notifier

type Config struct {
	DefaultCompletionPolicy domain.DispositionPolicy `env:"DEFAULT_COMPLETION_POLICY" env-default:"MOVE_TO_BACKLOG"`
	ReminderLookAheadDays   int                      `env:"REMINDER_LOOKAHEAD_DAYS" env-default:"2"`
	Timezone                string                   `env:"TRACKER_TIMEZONE" env-default:"UTC"`
}

type Service struct {
	repo          repository.Repository
	notifier      notify.Notifier
	logger        *zap.Logger
	loc           *time.Location
	lookAhead     int
	defaultPolicy domain.DispositionPolicy
	now           func() time.Time
}

func New(config *Config, repo repository.Repository, notifier notify.Notifier, logger *zap.Logger) (*Service, error) {
	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", config.Timezone, err)
	}

	policy := config.DefaultCompletionPolicy
	if policy == "" {
		policy = domain.PolicyMoveToBacklog
	}
	if policy != domain.PolicyMoveToBacklog && policy != domain.PolicyUnassign {
		return nil, fmt.Errorf("default completion policy must be %s or %s, got %q",
			domain.PolicyMoveToBacklog, domain.PolicyUnassign, policy)
	}

	if config.ReminderLookAheadDays < 0 {
		return nil, fmt.Errorf("reminder look-ahead must not be negative, got %d", config.ReminderLookAheadDays)
	}

	return &Service{
		repo:          repo,
		notifier:      notifier,
		logger:        logger,
		loc:           loc,
		lookAhead:     config.ReminderLookAheadDays,
		defaultPolicy: policy,
		now:           time.Now,
	}, nil
}

func (s *Service) today() time.Time {
	return lifecycle.Today(s.now(), s.loc)
}

func (s *Service) send(ctx context.Context, userID string, typ notify.Type, format string, args ...any) {
	if userID == "" {
		return
	}
	s.notifier.Notify(ctx, notify.Notification{
		UserID:  userID,
		Message: fmt.Sprintf(format, args...),
		Type:    typ,
	})
}

// translate maps storage errors onto the domain error taxonomy. Errors that
// already carry a kind pass through unchanged.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case domain.Kind(err) != nil:
		return err
	case errors.Is(err, repository.ErrSprintNotFound),
		errors.Is(err, repository.ErrTaskNotFound),
		errors.Is(err, repository.ErrBacklogItemNotFound),
		errors.Is(err, repository.ErrCommitNotFound):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case errors.Is(err, repository.ErrCommitExists):
		return fmt.Errorf("%w: %w", domain.ErrDuplicateCommit, err)
	case errors.Is(err, repository.ErrStaleState):
		return fmt.Errorf("%w: %w", domain.ErrAlreadyReviewed, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}
}

// logFailure logs caller mistakes at Warn and everything else at Error.
func (s *Service) logFailure(msg string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	switch domain.Kind(err) {
	case domain.ErrPersistenceFailure, domain.ErrReconciliationFailure, nil:
		s.logger.Error(msg, fields...)
	default:
		s.logger.Warn(msg, fields...)
	}
}
