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

func (s *store) CreateBacklogItem(ctx context.Context, item *domain.BacklogItem) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.q.Exec(ctx, queryCreateBacklogItem,
		item.ID,
		item.Title,
		item.Description,
		item.Priority,
		item.PriorityRank,
		item.StoryPoints,
		item.BusinessValue,
		item.EffortEstimate,
		item.Status,
		item.SprintID,
		item.ProjectID,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create backlog item", zap.String("backlog_item_id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to create backlog item: %s: %w", item.ID, err)
	}

	return nil
}

func (s *store) GetBacklogItem(ctx context.Context, id string) (*domain.BacklogItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	item, err := scanBacklogItem(s.q.QueryRow(ctx, queryGetBacklogItem, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn(repository.ErrBacklogItemNotFound.Error(), zap.String("backlog_item_id", id))
			return nil, repository.ErrBacklogItemNotFound
		}

		s.logger.Error("failed to get backlog item", zap.String("backlog_item_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get backlog item: %w", err)
	}

	return item, nil
}

func (s *store) ListBacklogItemsBySprint(ctx context.Context, sprintID string) ([]domain.BacklogItem, error) {
	return s.listBacklogItems(ctx, queryListBacklogItemsBySprint, sprintID)
}

func (s *store) ListProductBacklog(ctx context.Context, projectID string) ([]domain.BacklogItem, error) {
	return s.listBacklogItems(ctx, queryListProductBacklog, projectID)
}

func (s *store) listBacklogItems(ctx context.Context, query, arg string) ([]domain.BacklogItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.q.Query(ctx, query, arg)
	if err != nil {
		s.logger.Error("failed to list backlog items", zap.Error(err))
		return nil, fmt.Errorf("failed to list backlog items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.BacklogItem, 0)
	for rows.Next() {
		item, err := scanBacklogItem(rows)
		if err != nil {
			s.logger.Error("failed to scan backlog item", zap.Error(err))
			return nil, fmt.Errorf("failed to scan backlog item: %w", err)
		}

		items = append(items, *item)
	}
	err = rows.Err()
	if err != nil {
		s.logger.Error("rows error", zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func (s *store) UpdateBacklogItem(ctx context.Context, item *domain.BacklogItem) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.q.Exec(ctx, queryUpdateBacklogItem,
		item.ID,
		item.Title,
		item.Description,
		item.Priority,
		item.PriorityRank,
		item.StoryPoints,
		item.BusinessValue,
		item.EffortEstimate,
		item.Status,
		item.SprintID,
		item.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to update backlog item", zap.String("backlog_item_id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to update backlog item: %s: %w", item.ID, err)
	}

	if tag.RowsAffected() == 0 {
		s.logger.Warn(repository.ErrBacklogItemNotFound.Error(), zap.String("backlog_item_id", item.ID))
		return repository.ErrBacklogItemNotFound
	}

	return nil
}

func (s *store) DeleteBacklogItem(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.q.Exec(ctx, queryDeleteBacklogItem, id)
	if err != nil {
		s.logger.Error("failed to delete backlog item", zap.String("backlog_item_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete backlog item: %s: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		s.logger.Warn(repository.ErrBacklogItemNotFound.Error(), zap.String("backlog_item_id", id))
		return repository.ErrBacklogItemNotFound
	}

	return nil
}

func scanBacklogItem(row pgx.Row) (*domain.BacklogItem, error) {
	var item domain.BacklogItem

	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Priority,
		&item.PriorityRank,
		&item.StoryPoints,
		&item.BusinessValue,
		&item.EffortEstimate,
		&item.Status,
		&item.SprintID,
		&item.ProjectID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &item, nil
}
