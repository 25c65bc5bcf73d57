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

func (s *store) CreatePendingCommit(ctx context.Context, commit *domain.PendingCommit) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.q.Exec(ctx, queryCreatePendingCommit,
		commit.ID,
		commit.AuthorID,
		commit.Message,
		commit.Branch,
		commit.TaskID,
		commit.CommittedAt,
		commit.URL,
		commit.SHA,
		commit.ProjectID,
		commit.Status,
		commit.ReviewerID,
		commit.ReviewedAt,
		commit.RejectionReason,
		commit.MergedAt,
		commit.CreatedAt,
	)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			s.logger.Warn(repository.ErrCommitExists.Error(), zap.String("sha", commit.SHA))
			return fmt.Errorf("%w: %s", repository.ErrCommitExists, commit.SHA)
		}
		if isPgError(err, pgForeignKeyViolation) {
			s.logger.Warn(repository.ErrTaskNotFound.Error(), zap.String("sha", commit.SHA))
			return fmt.Errorf("%w: referenced by commit %s", repository.ErrTaskNotFound, commit.SHA)
		}

		s.logger.Error("failed to create pending commit", zap.String("sha", commit.SHA), zap.Error(err))
		return fmt.Errorf("failed to create pending commit: %s: %w", commit.SHA, err)
	}

	s.logger.Debug("successfully stored pending commit", zap.String("commit_id", commit.ID), zap.String("sha", commit.SHA))
	return nil
}

func (s *store) GetPendingCommit(ctx context.Context, id string) (*domain.PendingCommit, error) {
	return s.getPendingCommit(ctx, queryGetPendingCommit, id)
}

func (s *store) GetPendingCommitForUpdate(ctx context.Context, id string) (*domain.PendingCommit, error) {
	return s.getPendingCommit(ctx, queryGetPendingCommitForUpdate, id)
}

func (s *store) getPendingCommit(ctx context.Context, query, id string) (*domain.PendingCommit, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	commit, err := scanPendingCommit(s.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Warn(repository.ErrCommitNotFound.Error(), zap.String("commit_id", id))
			return nil, repository.ErrCommitNotFound
		}

		s.logger.Error("failed to get pending commit", zap.String("commit_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get pending commit: %w", err)
	}

	return commit, nil
}

func (s *store) CountPendingCommitsBySHA(ctx context.Context, sha string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var n int
	err := s.q.QueryRow(ctx, queryCountPendingCommitsBySHA, sha).Scan(&n)
	if err != nil {
		s.logger.Error("failed to count commits by sha", zap.String("sha", sha), zap.Error(err))
		return 0, fmt.Errorf("failed to count commits by sha: %w", err)
	}

	return n, nil
}

func (s *store) ListPendingCommits(ctx context.Context, projectID string, status domain.CommitStatus) ([]domain.PendingCommit, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.q.Query(ctx, queryListPendingCommits, projectID, status)
	if err != nil {
		s.logger.Error("failed to list pending commits", zap.String("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to list pending commits: %w", err)
	}
	defer rows.Close()

	commits := make([]domain.PendingCommit, 0)
	for rows.Next() {
		commit, err := scanPendingCommit(rows)
		if err != nil {
			s.logger.Error("failed to scan pending commit", zap.String("project_id", projectID), zap.Error(err))
			return nil, fmt.Errorf("failed to scan pending commit: %w", err)
		}

		commits = append(commits, *commit)
	}
	err = rows.Err()
	if err != nil {
		s.logger.Error("rows error", zap.String("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return commits, nil
}

func (s *store) TransitionCommit(ctx context.Context, commit *domain.PendingCommit, from domain.CommitStatus) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.q.Exec(ctx, queryTransitionCommit,
		commit.ID,
		commit.Status,
		commit.ReviewerID,
		commit.ReviewedAt,
		commit.RejectionReason,
		commit.MergedAt,
		from,
	)
	if err != nil {
		s.logger.Error("failed to transition commit", zap.String("commit_id", commit.ID), zap.Error(err))
		return fmt.Errorf("failed to transition commit: %s: %w", commit.ID, err)
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.q.QueryRow(ctx, queryPendingCommitExists, commit.ID).Scan(&exists)
	if err != nil {
		s.logger.Error("failed to check if commit exists", zap.String("commit_id", commit.ID), zap.Error(err))
		return fmt.Errorf("failed to check if commit exists: %w", err)
	}

	if !exists {
		s.logger.Warn(repository.ErrCommitNotFound.Error(), zap.String("commit_id", commit.ID))
		return repository.ErrCommitNotFound
	}

	s.logger.Warn(repository.ErrStaleState.Error(), zap.String("commit_id", commit.ID), zap.String("expected", string(from)))
	return repository.ErrStaleState
}

func (s *store) CreateApprovedCommit(ctx context.Context, commit *domain.ApprovedCommit) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.q.Exec(ctx, queryCreateApprovedCommit,
		commit.ID,
		commit.PendingCommitID,
		commit.AuthorID,
		commit.Message,
		commit.Branch,
		commit.TaskID,
		commit.CommittedAt,
		commit.URL,
		commit.SHA,
		commit.ProjectID,
		commit.ApprovedBy,
		commit.ApprovedAt,
	)
	if err != nil {
		s.logger.Error("failed to create approved commit", zap.String("commit_id", commit.PendingCommitID), zap.Error(err))
		return fmt.Errorf("failed to create approved commit: %s: %w", commit.PendingCommitID, err)
	}

	return nil
}

func (s *store) ListApprovedCommits(ctx context.Context, projectID string, limit int) ([]domain.ApprovedCommit, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	rows, err := s.q.Query(ctx, queryListApprovedCommits, projectID, limitArg)
	if err != nil {
		s.logger.Error("failed to list approved commits", zap.String("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to list approved commits: %w", err)
	}
	defer rows.Close()

	commits := make([]domain.ApprovedCommit, 0)
	for rows.Next() {
		var c domain.ApprovedCommit

		err = rows.Scan(
			&c.ID,
			&c.PendingCommitID,
			&c.AuthorID,
			&c.Message,
			&c.Branch,
			&c.TaskID,
			&c.CommittedAt,
			&c.URL,
			&c.SHA,
			&c.ProjectID,
			&c.ApprovedBy,
			&c.ApprovedAt,
		)
		if err != nil {
			s.logger.Error("failed to scan approved commit", zap.String("project_id", projectID), zap.Error(err))
			return nil, fmt.Errorf("failed to scan approved commit: %w", err)
		}

		commits = append(commits, c)
	}
	err = rows.Err()
	if err != nil {
		s.logger.Error("rows error", zap.String("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return commits, nil
}

func (s *store) CommitCountsBySprint(ctx context.Context, sprintID string) (domain.CommitCounts, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var counts domain.CommitCounts

	rows, err := s.q.Query(ctx, queryCommitCountsBySprint, sprintID)
	if err != nil {
		s.logger.Error("failed to count sprint commits", zap.String("sprint_id", sprintID), zap.Error(err))
		return counts, fmt.Errorf("failed to count sprint commits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status domain.CommitStatus
			n      int
		)

		err = rows.Scan(&status, &n)
		if err != nil {
			s.logger.Error("failed to scan commit count", zap.String("sprint_id", sprintID), zap.Error(err))
			return counts, fmt.Errorf("failed to scan commit count: %w", err)
		}

		switch status {
		case domain.CommitPendingReview:
			counts.Pending = n
		case domain.CommitApproved:
			counts.Approved = n
		case domain.CommitMerged:
			counts.Merged = n
		case domain.CommitRejected:
			counts.Rejected = n
		}
	}
	err = rows.Err()
	if err != nil {
		s.logger.Error("rows error", zap.String("sprint_id", sprintID), zap.Error(err))
		return counts, fmt.Errorf("rows error: %w", err)
	}

	return counts, nil
}

func scanPendingCommit(row pgx.Row) (*domain.PendingCommit, error) {
	var c domain.PendingCommit

	err := row.Scan(
		&c.ID,
		&c.AuthorID,
		&c.Message,
		&c.Branch,
		&c.TaskID,
		&c.CommittedAt,
		&c.URL,
		&c.SHA,
		&c.ProjectID,
		&c.Status,
		&c.ReviewerID,
		&c.ReviewedAt,
		&c.RejectionReason,
		&c.MergedAt,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &c, nil
}
