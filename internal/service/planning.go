package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/repository"
)

func (s *Service) CreateTask(ctx context.Context, in domain.NewTaskInput) (*domain.Task, error) {
	task, err := domain.NewTask(in, s.now())
	if err != nil {
		s.logFailure("CreateTask: invalid task", err, zap.String("project_id", in.ProjectID))
		return nil, domain.TaskErr("create", "", err)
	}

	err = translate(s.repo.CreateTask(ctx, &task))
	if err != nil {
		s.logFailure("CreateTask: failed to store task", err, zap.String("task_id", task.ID))
		return nil, domain.TaskErr("create", task.ID, err)
	}

	s.logger.Info("CreateTask: task created", zap.String("task_id", task.ID))
	return &task, nil
}

func (s *Service) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		err = translate(err)
		s.logFailure("GetTask: failed to load task", err, zap.String("task_id", id))
		return nil, domain.TaskErr("get", id, err)
	}
	return task, nil
}

// AssignTaskToSprint attaches a task to an UPCOMING or ACTIVE sprint of the
// same project. A task still in BACKLOG becomes TODO.
func (s *Service) AssignTaskToSprint(ctx context.Context, taskID, sprintID string) (*domain.Task, error) {
	var assigned *domain.Task

	err := s.repo.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		sprint, err := openSprint(ctx, st, sprintID)
		if err != nil {
			return err
		}

		task, err := st.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return translate(err)
		}
		if task.ProjectID != sprint.ProjectID {
			return fmt.Errorf("%w: task belongs to project %s, sprint to %s", domain.ErrInvalidInput, task.ProjectID, sprint.ProjectID)
		}

		task.SprintID = &sprint.ID
		if task.Status == domain.TaskBacklog {
			task.Status = domain.TaskTodo
		}
		task.UpdatedAt = s.now()

		err = translate(st.UpdateTask(ctx, task))
		if err != nil {
			return err
		}

		assigned = task
		return nil
	})
	if err != nil {
		s.logFailure("AssignTaskToSprint: failed to assign task", err,
			zap.String("task_id", taskID),
			zap.String("sprint_id", sprintID),
		)
		return nil, domain.TaskErr("assign", taskID, err)
	}

	s.logger.Info("AssignTaskToSprint: task assigned", zap.String("task_id", taskID), zap.String("sprint_id", sprintID))
	return assigned, nil
}

// UpdateTaskStatus is the explicit path for moving a task between statuses.
func (s *Service) UpdateTaskStatus(ctx context.Context, taskID string, status domain.TaskStatus) (*domain.Task, error) {
	if !status.Valid() {
		err := fmt.Errorf("%w: unknown task status %q", domain.ErrInvalidInput, status)
		s.logFailure("UpdateTaskStatus: invalid status", err, zap.String("task_id", taskID))
		return nil, domain.TaskErr("update status", taskID, err)
	}

	var updated *domain.Task

	err := s.repo.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		task, err := st.GetTaskForUpdate(ctx, taskID)
		if err != nil {
			return translate(err)
		}

		now := s.now()
		if status == domain.TaskDone {
			completeTask(task, now)
		} else {
			task.Status = status
			task.CompletedAt = nil
			task.UpdatedAt = now
		}

		err = translate(st.UpdateTask(ctx, task))
		if err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		s.logFailure("UpdateTaskStatus: failed to update task", err, zap.String("task_id", taskID))
		return nil, domain.TaskErr("update status", taskID, err)
	}

	s.logger.Info("UpdateTaskStatus: task updated", zap.String("task_id", taskID), zap.String("status", string(status)))
	return updated, nil
}

func (s *Service) CreateBacklogItem(ctx context.Context, in domain.NewBacklogItemInput) (*domain.BacklogItem, error) {
	item, err := domain.NewBacklogItem(in, s.now())
	if err != nil {
		s.logFailure("CreateBacklogItem: invalid backlog item", err, zap.String("project_id", in.ProjectID))
		return nil, domain.BacklogErr("create", "", err)
	}

	err = translate(s.repo.CreateBacklogItem(ctx, &item))
	if err != nil {
		s.logFailure("CreateBacklogItem: failed to store backlog item", err, zap.String("backlog_item_id", item.ID))
		return nil, domain.BacklogErr("create", item.ID, err)
	}

	s.logger.Info("CreateBacklogItem: backlog item created", zap.String("backlog_item_id", item.ID))
	return &item, nil
}

// AssignBacklogItemToSprint pulls a product backlog item into a sprint.
func (s *Service) AssignBacklogItemToSprint(ctx context.Context, itemID, sprintID string) (*domain.BacklogItem, error) {
	var assigned *domain.BacklogItem

	err := s.repo.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		sprint, err := openSprint(ctx, st, sprintID)
		if err != nil {
			return err
		}

		item, err := st.GetBacklogItem(ctx, itemID)
		if err != nil {
			return translate(err)
		}
		if item.ProjectID != sprint.ProjectID {
			return fmt.Errorf("%w: backlog item belongs to project %s, sprint to %s", domain.ErrInvalidInput, item.ProjectID, sprint.ProjectID)
		}
		if item.Status != domain.BacklogProduct && item.Status != domain.BacklogSprint {
			return fmt.Errorf("%w: backlog item is %s", domain.ErrInvalidTransition, item.Status)
		}

		item.SprintID = &sprint.ID
		item.Status = domain.BacklogSprint
		item.UpdatedAt = s.now()

		err = translate(st.UpdateBacklogItem(ctx, item))
		if err != nil {
			return err
		}

		assigned = item
		return nil
	})
	if err != nil {
		s.logFailure("AssignBacklogItemToSprint: failed to assign backlog item", err,
			zap.String("backlog_item_id", itemID),
			zap.String("sprint_id", sprintID),
		)
		return nil, domain.BacklogErr("assign", itemID, err)
	}

	return assigned, nil
}

// ListProductBacklog returns a project's unscheduled items, highest priority first.
func (s *Service) ListProductBacklog(ctx context.Context, projectID string) ([]domain.BacklogItem, error) {
	items, err := s.repo.ListProductBacklog(ctx, projectID)
	if err != nil {
		err = translate(err)
		s.logFailure("ListProductBacklog: failed to list backlog", err, zap.String("project_id", projectID))
		return nil, domain.BacklogErr("list", "", err)
	}
	return items, nil
}

// openSprint locks a sprint that can still receive work.
func openSprint(ctx context.Context, st repository.Store, id string) (*domain.Sprint, error) {
	sprint, err := st.GetSprintForUpdate(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if sprint.Status != domain.SprintUpcoming && sprint.Status != domain.SprintActive {
		return nil, fmt.Errorf("%w: sprint %s is %s", domain.ErrInvalidTransition, id, sprint.Status)
	}
	return sprint, nil
}

func completeTask(task *domain.Task, now time.Time) {
	if task.Status != domain.TaskDone {
		task.CompletedAt = &now
	}
	task.Status = domain.TaskDone
	task.UpdatedAt = now
}
