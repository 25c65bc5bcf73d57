package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/repository"
)

func (s *store) CreateSprint(ctx context.Context, sprint *domain.Sprint) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.q.Exec(ctx, queryCreateSprint,
		sprint.ID,
		sprint.Name,
		sprint.Goal,
		sprint.StartDate,
		sprint.EndDate,
		sprint.Status,
		sprint.ProjectID,
		sprint.CreatedBy,
		sprint.RetrospectiveNotes,
		sprint.LastReminderDate,
		sprint.CompletedAt,
		sprint.CreatedAt,
		sprint.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create sprint", zap.String("sprint_id", sprint.ID), zap.Error(err))
		return fmt.Errorf("failed to create sprint: %s: %w", sprint.ID, err)
	}

	s.logger.Debug("successfully created sprint", zap.String("sprint_id", sprint.ID))
	return nil
}

func (s *store) GetSprint(ctx context.Context, id string) (*domain.Sprint, error) {
	return s.getSprint(ctx, queryGetSprint, id)
}

func (s *store) GetSprintForUpdate(ctx context.Context, id string) (*domain.Sprint, error) {
	return s.getSprint(ctx, queryGetSprintForUpdate, id)
}

func (s *store) getSprint(ctx context.Context, query, id string) (*domain.Sprint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	sprint, err := scanSprint(s.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn(repository.ErrSprintNotFound.Error(), zap.String("sprint_id", id))
			return nil, repository.ErrSprintNotFound
		}

		s.logger.Error("failed to get sprint", zap.String("sprint_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get sprint: %w", err)
	}

	return sprint, nil
}

func (s *store) ListSprintsByStatus(ctx context.Context, statuses ...domain.SprintStatus) ([]domain.Sprint, error) {
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	return s.listSprints(ctx, queryListSprintsByStatus, names)
}

func (s *store) ListSprintsByProject(ctx context.Context, projectID string) ([]domain.Sprint, error) {
	return s.listSprints(ctx, queryListSprintsByProject, projectID)
}

func (s *store) listSprints(ctx context.Context, query string, arg any) ([]domain.Sprint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.q.Query(ctx, query, arg)
	if err != nil {
		s.logger.Error("failed to list sprints", zap.Error(err))
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	defer rows.Close()

	sprints := make([]domain.Sprint, 0)
	for rows.Next() {
		sprint, err := scanSprint(rows)
		if err != nil {
			s.logger.Error("failed to scan sprint", zap.Error(err))
			return nil, fmt.Errorf("failed to scan sprint: %w", err)
		}

		sprints = append(sprints, *sprint)
	}
	err = rows.Err()
	if err != nil {
		s.logger.Error("rows error", zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return sprints, nil
}

func (s *store) UpdateSprint(ctx context.Context, sprint *domain.Sprint) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.q.Exec(ctx, queryUpdateSprint,
		sprint.ID,
		sprint.Name,
		sprint.Goal,
		sprint.StartDate,
		sprint.EndDate,
		sprint.Status,
		sprint.RetrospectiveNotes,
		sprint.LastReminderDate,
		sprint.CompletedAt,
		sprint.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to update sprint", zap.String("sprint_id", sprint.ID), zap.Error(err))
		return fmt.Errorf("failed to update sprint: %s: %w", sprint.ID, err)
	}

	if tag.RowsAffected() == 0 {
		s.logger.Warn(repository.ErrSprintNotFound.Error(), zap.String("sprint_id", sprint.ID))
		return repository.ErrSprintNotFound
	}

	return nil
}

func (s *store) DeleteSprint(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.q.Exec(ctx, queryDeleteSprint, id)
	if err != nil {
		if isPgError(err, pgForeignKeyViolation) {
			s.logger.Error("sprint is still referenced", zap.String("sprint_id", id), zap.Error(err))
			return fmt.Errorf("sprint %s is still referenced: %w", id, err)
		}

		s.logger.Error("failed to delete sprint", zap.String("sprint_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete sprint: %s: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		s.logger.Warn(repository.ErrSprintNotFound.Error(), zap.String("sprint_id", id))
		return repository.ErrSprintNotFound
	}

	s.logger.Debug("successfully deleted sprint", zap.String("sprint_id", id))
	return nil
}

func scanSprint(row pgx.Row) (*domain.Sprint, error) {
	var sprint domain.Sprint

	err := row.Scan(
		&sprint.ID,
		&sprint.Name,
		&sprint.Goal,
		&sprint.StartDate,
		&sprint.EndDate,
		&sprint.Status,
		&sprint.ProjectID,
		&sprint.CreatedBy,
		&sprint.RetrospectiveNotes,
		&sprint.LastReminderDate,
		&sprint.CompletedAt,
		&sprint.CreatedAt,
		&sprint.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &sprint, nil
}
