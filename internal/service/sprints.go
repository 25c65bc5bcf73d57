package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/lifecycle"
	"sprint-tracker/internal/notify"
	"sprint-tracker/internal/repository"
)

func (s *Service) CreateSprint(ctx context.Context, in domain.NewSprintInput) (*domain.Sprint, error) {
	sprint, err := domain.NewSprint(in, s.now())
	if err != nil {
		s.logFailure("CreateSprint: invalid sprint", err, zap.String("project_id", in.ProjectID))
		return nil, domain.SprintErr("create", "", err)
	}

	err = translate(s.repo.CreateSprint(ctx, &sprint))
	if err != nil {
		s.logFailure("CreateSprint: failed to store sprint", err, zap.String("sprint_id", sprint.ID))
		return nil, domain.SprintErr("create", sprint.ID, err)
	}

	s.logger.Info("CreateSprint: sprint created", zap.String("sprint_id", sprint.ID), zap.String("project_id", sprint.ProjectID))
	return &sprint, nil
}

func (s *Service) GetSprint(ctx context.Context, id string) (*domain.Sprint, error) {
	sprint, err := s.repo.GetSprint(ctx, id)
	if err != nil {
		err = translate(err)
		s.logFailure("GetSprint: failed to load sprint", err, zap.String("sprint_id", id))
		return nil, domain.SprintErr("get", id, err)
	}
	return sprint, nil
}

// StartSprint moves an UPCOMING sprint to ACTIVE regardless of its start date.
func (s *Service) StartSprint(ctx context.Context, id string) (*domain.Sprint, error) {
	var started *domain.Sprint

	err := s.repo.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		sprint, err := st.GetSprintForUpdate(ctx, id)
		if err != nil {
			return translate(err)
		}

		err = lifecycle.Transition(*sprint, domain.SprintActive)
		if err != nil {
			return err
		}

		sprint.Status = domain.SprintActive
		sprint.UpdatedAt = s.now()
		err = st.UpdateSprint(ctx, sprint)
		if err != nil {
			return translate(err)
		}

		started = sprint
		return nil
	})
	if err != nil {
		s.logFailure("StartSprint: failed to start sprint", err, zap.String("sprint_id", id))
		return nil, domain.SprintErr("start", id, err)
	}

	s.logger.Info("StartSprint: sprint started", zap.String("sprint_id", id))
	s.send(ctx, started.CreatedBy, notify.TypeSprintStarted, "Sprint %q has started", started.Name)
	return started, nil
}

// CompleteSprint moves an ACTIVE sprint to COMPLETED and disposes of its
// unfinished work with policy, or with the configured default when policy is
// empty. Completion and disposition commit together or not at all.
func (s *Service) CompleteSprint(ctx context.Context, id, notes string, policy domain.DispositionPolicy) (*domain.Sprint, error) {
	if policy == "" {
		policy = s.defaultPolicy
	}
	if policy != domain.PolicyMoveToBacklog && policy != domain.PolicyUnassign {
		err := fmt.Errorf("%w: policy %q cannot be used to complete a sprint", domain.ErrInvalidInput, policy)
		s.logFailure("CompleteSprint: invalid policy", err, zap.String("sprint_id", id))
		return nil, domain.SprintErr("complete", id, err)
	}

	var completed *domain.Sprint

	err := s.repo.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		sprint, err := st.GetSprintForUpdate(ctx, id)
		if err != nil {
			return translate(err)
		}

		err = lifecycle.Transition(*sprint, domain.SprintCompleted)
		if err != nil {
			return err
		}

		if notes != "" {
			sprint.RetrospectiveNotes = notes
		}
		err = s.close(ctx, st, sprint, domain.SprintCompleted, policy)
		if err != nil {
			return err
		}

		completed = sprint
		return nil
	})
	if err != nil {
		s.logFailure("CompleteSprint: failed to complete sprint", err, zap.String("sprint_id", id))
		return nil, domain.SprintErr("complete", id, err)
	}

	s.logger.Info("CompleteSprint: sprint completed", zap.String("sprint_id", id), zap.String("policy", string(policy)))
	s.send(ctx, completed.CreatedBy, notify.TypeSprintCompleted, "Sprint %q has been completed", completed.Name)
	return completed, nil
}

// CancelSprint moves an UPCOMING or ACTIVE sprint to CANCELLED and returns its
// unfinished work to the backlog.
func (s *Service) CancelSprint(ctx context.Context, id string) (*domain.Sprint, error) {
	var cancelled *domain.Sprint

	err := s.repo.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		sprint, err := st.GetSprintForUpdate(ctx, id)
		if err != nil {
			return translate(err)
		}

		err = lifecycle.Transition(*sprint, domain.SprintCancelled)
		if err != nil {
			return err
		}

		err = s.close(ctx, st, sprint, domain.SprintCancelled, domain.PolicyMoveToBacklog)
		if err != nil {
			return err
		}

		cancelled = sprint
		return nil
	})
	if err != nil {
		s.logFailure("CancelSprint: failed to cancel sprint", err, zap.String("sprint_id", id))
		return nil, domain.SprintErr("cancel", id, err)
	}

	s.logger.Info("CancelSprint: sprint cancelled", zap.String("sprint_id", id))
	s.send(ctx, cancelled.CreatedBy, notify.TypeSprintCancelled, "Sprint %q has been cancelled", cancelled.Name)
	return cancelled, nil
}

// DeleteSprint removes a sprint in any state after applying policy to every
// task and backlog item that still references it.
func (s *Service) DeleteSprint(ctx context.Context, id string, policy domain.DispositionPolicy) error {
	if !policy.Valid() {
		err := fmt.Errorf("%w: unknown disposition policy %q", domain.ErrInvalidInput, policy)
		s.logFailure("DeleteSprint: invalid policy", err, zap.String("sprint_id", id))
		return domain.SprintErr("delete", id, err)
	}

	err := s.repo.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		sprint, err := st.GetSprintForUpdate(ctx, id)
		if err != nil {
			return translate(err)
		}

		err = s.reconcile(ctx, st, sprint, policy, detachAll)
		if err != nil {
			return err
		}

		return translate(st.DeleteSprint(ctx, id))
	})
	if err != nil {
		s.logFailure("DeleteSprint: failed to delete sprint", err, zap.String("sprint_id", id))
		return domain.SprintErr("delete", id, err)
	}

	s.logger.Info("DeleteSprint: sprint deleted", zap.String("sprint_id", id), zap.String("policy", string(policy)))
	return nil
}

// close reconciles unfinished work and then writes the terminal status. It
// must run inside a transaction.
func (s *Service) close(ctx context.Context, st repository.Store, sprint *domain.Sprint, to domain.SprintStatus, policy domain.DispositionPolicy) error {
	err := s.reconcile(ctx, st, sprint, policy, detachUnfinished)
	if err != nil {
		return err
	}

	now := s.now()
	sprint.Status = to
	sprint.UpdatedAt = now
	if to == domain.SprintCompleted {
		sprint.CompletedAt = &now
	}
	return translate(st.UpdateSprint(ctx, sprint))
}
