package service

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/lifecycle"
	"sprint-tracker/internal/progress"
)

// GetSprintProgress recomputes a sprint's statistics from current task and
// commit state.
func (s *Service) GetSprintProgress(ctx context.Context, id string) (*progress.Snapshot, error) {
	sprint, err := s.repo.GetSprint(ctx, id)
	if err != nil {
		err = translate(err)
		s.logFailure("GetSprintProgress: failed to load sprint", err, zap.String("sprint_id", id))
		return nil, domain.SprintErr("progress", id, err)
	}

	tasks, err := s.repo.ListTasksBySprint(ctx, id)
	if err != nil {
		err = translate(err)
		s.logFailure("GetSprintProgress: failed to list tasks", err, zap.String("sprint_id", id))
		return nil, domain.SprintErr("progress", id, err)
	}

	counts, err := s.repo.CommitCountsBySprint(ctx, id)
	if err != nil {
		err = translate(err)
		s.logFailure("GetSprintProgress: failed to count commits", err, zap.String("sprint_id", id))
		return nil, domain.SprintErr("progress", id, err)
	}

	now := s.now()
	snap := progress.Compute(progress.Input{
		Sprint:  *sprint,
		Tasks:   tasks,
		Commits: counts,
		Now:     now,
		Today:   lifecycle.Today(now, s.loc),
	})
	return &snap, nil
}

// GetProjectVelocity lists completed story points per completed sprint.
func (s *Service) GetProjectVelocity(ctx context.Context, projectID string) ([]progress.VelocityPoint, error) {
	sprints, err := s.repo.ListSprintsByProject(ctx, projectID)
	if err != nil {
		err = translate(err)
		s.logFailure("GetProjectVelocity: failed to list sprints", err, zap.String("project_id", projectID))
		return nil, domain.SprintErr("velocity", "", err)
	}

	completed := lo.Filter(sprints, func(sp domain.Sprint, _ int) bool { return sp.Status == domain.SprintCompleted })
	tasksBySprint := make(map[string][]domain.Task, len(completed))
	for _, sp := range completed {
		tasks, err := s.repo.ListTasksBySprint(ctx, sp.ID)
		if err != nil {
			err = translate(err)
			s.logFailure("GetProjectVelocity: failed to list tasks", err, zap.String("sprint_id", sp.ID))
			return nil, domain.SprintErr("velocity", sp.ID, err)
		}
		tasksBySprint[sp.ID] = tasks
	}

	return progress.VelocityTrend(completed, tasksBySprint), nil
}
