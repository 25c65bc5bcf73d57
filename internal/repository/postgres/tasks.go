package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/repository"
)

func (s *store) CreateTask(ctx context.Context, task *domain.Task) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	declinedBy, reason, declinedAt := declineColumns(task.Decline)
	_, err := s.q.Exec(ctx, queryCreateTask,
		task.ID,
		task.Code,
		task.Title,
		task.Status,
		task.AssigneeID,
		task.SprintID,
		task.StoryPoints,
		task.ProjectID,
		declinedBy,
		reason,
		declinedAt,
		task.CompletedAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			s.logger.Warn(repository.ErrSprintNotFound.Error(), zap.String("task_id", task.ID))
			return fmt.Errorf("%w: referenced by task %s", repository.ErrSprintNotFound, task.ID)
		}

		s.logger.Error("failed to create task", zap.String("task_id", task.ID), zap.Error(err))
		return fmt.Errorf("failed to create task: %s: %w", task.ID, err)
	}

	return nil
}

func (s *store) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return s.getTask(ctx, queryGetTask, id)
}

func (s *store) GetTaskForUpdate(ctx context.Context, id string) (*domain.Task, error) {
	return s.getTask(ctx, queryGetTaskForUpdate, id)
}

func (s *store) getTask(ctx context.Context, query, id string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	task, err := scanTask(s.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn(repository.ErrTaskNotFound.Error(), zap.String("task_id", id))
			return nil, repository.ErrTaskNotFound
		}

		s.logger.Error("failed to get task", zap.String("task_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

func (s *store) ListTasksBySprint(ctx context.Context, sprintID string) ([]domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.q.Query(ctx, queryListTasksBySprint, sprintID)
	if err != nil {
		s.logger.Error("failed to list tasks", zap.String("sprint_id", sprintID), zap.Error(err))
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			s.logger.Error("failed to scan task", zap.String("sprint_id", sprintID), zap.Error(err))
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		tasks = append(tasks, *task)
	}
	err = rows.Err()
	if err != nil {
		s.logger.Error("rows error", zap.String("sprint_id", sprintID), zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tasks, nil
}

func (s *store) UpdateTask(ctx context.Context, task *domain.Task) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	declinedBy, reason, declinedAt := declineColumns(task.Decline)
	tag, err := s.q.Exec(ctx, queryUpdateTask,
		task.ID,
		task.Code,
		task.Title,
		task.Status,
		task.AssigneeID,
		task.SprintID,
		task.StoryPoints,
		declinedBy,
		reason,
		declinedAt,
		task.CompletedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			s.logger.Warn(repository.ErrSprintNotFound.Error(), zap.String("task_id", task.ID))
			return fmt.Errorf("%w: referenced by task %s", repository.ErrSprintNotFound, task.ID)
		}

		s.logger.Error("failed to update task", zap.String("task_id", task.ID), zap.Error(err))
		return fmt.Errorf("failed to update task: %s: %w", task.ID, err)
	}

	if tag.RowsAffected() == 0 {
		s.logger.Warn(repository.ErrTaskNotFound.Error(), zap.String("task_id", task.ID))
		return repository.ErrTaskNotFound
	}

	return nil
}

func (s *store) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.q.Exec(ctx, queryDeleteTask, id)
	if err != nil {
		s.logger.Error("failed to delete task", zap.String("task_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete task: %s: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		s.logger.Warn(repository.ErrTaskNotFound.Error(), zap.String("task_id", id))
		return repository.ErrTaskNotFound
	}

	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		task       domain.Task
		declinedBy *string
		reason     *string
		declinedAt *time.Time
	)

	err := row.Scan(
		&task.ID,
		&task.Code,
		&task.Title,
		&task.Status,
		&task.AssigneeID,
		&task.SprintID,
		&task.StoryPoints,
		&task.ProjectID,
		&declinedBy,
		&reason,
		&declinedAt,
		&task.CompletedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if declinedBy != nil {
		task.Decline = &domain.Decline{DeclinedBy: *declinedBy}
		if reason != nil {
			task.Decline.Reason = *reason
		}
		if declinedAt != nil {
			task.Decline.DeclinedAt = *declinedAt
		}
	}

	return &task, nil
}

func declineColumns(d *domain.Decline) (*string, *string, *time.Time) {
	if d == nil {
		return nil, nil, nil
	}
	return &d.DeclinedBy, &d.Reason, &d.DeclinedAt
}
