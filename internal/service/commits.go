package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/notify"
	"sprint-tracker/internal/repository"
)

// ReviewResult carries the reviewed commit and, on approval, its audit record.
type ReviewResult struct {
	Commit   *domain.PendingCommit
	Approved *domain.ApprovedCommit
}

// IngestCommit queues a commit for review. A SHA can be ingested only once.
func (s *Service) IngestCommit(ctx context.Context, meta domain.CommitMetadata) (*domain.PendingCommit, error) {
	commit, err := domain.NewPendingCommit(meta, s.now())
	if err != nil {
		s.logFailure("IngestCommit: invalid commit", err, zap.String("sha", meta.SHA))
		return nil, domain.CommitErr("ingest", "", err)
	}

	err = s.repo.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		n, err := st.CountPendingCommitsBySHA(ctx, commit.SHA)
		if err != nil {
			return translate(err)
		}
		if n > 0 {
			return fmt.Errorf("%w: sha %s", domain.ErrDuplicateCommit, commit.SHA)
		}

		if commit.TaskID != nil {
			_, err = st.GetTask(ctx, *commit.TaskID)
			if err != nil {
				return translate(err)
			}
		}

		return translate(st.CreatePendingCommit(ctx, &commit))
	})
	if err != nil {
		s.logFailure("IngestCommit: failed to ingest commit", err, zap.String("sha", commit.SHA))
		return nil, domain.CommitErr("ingest", commit.SHA, err)
	}

	s.logger.Info("IngestCommit: commit queued for review",
		zap.String("commit_id", commit.ID),
		zap.String("sha", commit.SHA),
	)
	return &commit, nil
}

func (s *Service) GetPendingCommit(ctx context.Context, id string) (*domain.PendingCommit, error) {
	commit, err := s.repo.GetPendingCommit(ctx, id)
	if err != nil {
		err = translate(err)
		s.logFailure("GetPendingCommit: failed to load commit", err, zap.String("commit_id", id))
		return nil, domain.CommitErr("get", id, err)
	}
	return commit, nil
}

// ReviewCommit records a reviewer's decision on a PENDING_REVIEW commit.
// Approval snapshots the commit and marks its task DONE; rejection sends the
// task back to TODO with the decline recorded. Of two concurrent decisions on
// the same commit exactly one succeeds; the other gets ErrAlreadyReviewed.
func (s *Service) ReviewCommit(ctx context.Context, id string, decision domain.ReviewDecision, reviewerID, reason string) (*ReviewResult, error) {
	reason = strings.TrimSpace(reason)

	var err error
	switch {
	case decision != domain.DecisionApprove && decision != domain.DecisionReject:
		err = fmt.Errorf("%w: unknown decision %q", domain.ErrInvalidInput, decision)
	case reviewerID == "":
		err = fmt.Errorf("%w: reviewer is required", domain.ErrInvalidInput)
	case decision == domain.DecisionReject && reason == "":
		err = domain.ErrMissingReason
	}
	if err != nil {
		s.logFailure("ReviewCommit: invalid review", err, zap.String("commit_id", id))
		return nil, domain.CommitErr("review", id, err)
	}

	var result ReviewResult

	err = s.repo.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		commit, err := st.GetPendingCommitForUpdate(ctx, id)
		if err != nil {
			return translate(err)
		}
		if commit.Status != domain.CommitPendingReview {
			return fmt.Errorf("%w: commit is %s", domain.ErrAlreadyReviewed, commit.Status)
		}

		now := s.now()
		commit.ReviewerID = &reviewerID
		commit.ReviewedAt = &now

		if decision == domain.DecisionApprove {
			commit.Status = domain.CommitApproved
		} else {
			commit.Status = domain.CommitRejected
			commit.RejectionReason = &reason
		}

		err = st.TransitionCommit(ctx, commit, domain.CommitPendingReview)
		if err != nil {
			return translate(err)
		}
		result.Commit = commit

		if decision == domain.DecisionApprove {
			snapshot := commit.Snapshot(reviewerID, now)
			err = st.CreateApprovedCommit(ctx, &snapshot)
			if err != nil {
				return translate(err)
			}
			result.Approved = &snapshot
		}

		if commit.TaskID == nil {
			return nil
		}

		task, err := st.GetTaskForUpdate(ctx, *commit.TaskID)
		if err != nil {
			return translate(err)
		}

		if decision == domain.DecisionApprove {
			completeTask(task, now)
		} else {
			task.Status = domain.TaskTodo
			task.CompletedAt = nil
			task.Decline = &domain.Decline{DeclinedBy: reviewerID, Reason: reason, DeclinedAt: now}
			task.UpdatedAt = now
		}
		return translate(st.UpdateTask(ctx, task))
	})
	if err != nil {
		s.logFailure("ReviewCommit: failed to review commit", err,
			zap.String("commit_id", id),
			zap.String("decision", string(decision)),
		)
		return nil, domain.CommitErr("review", id, err)
	}

	commit := result.Commit
	s.logger.Info("ReviewCommit: commit reviewed",
		zap.String("commit_id", id),
		zap.String("status", string(commit.Status)),
	)
	if commit.Status == domain.CommitApproved {
		s.send(ctx, commit.AuthorID, notify.TypeCommitApproved, "Your commit %s was approved", shortSHA(commit.SHA))
	} else {
		s.send(ctx, commit.AuthorID, notify.TypeCommitRejected, "Your commit %s was rejected: %s", shortSHA(commit.SHA), reason)
	}
	return &result, nil
}

// MarkMerged records that an APPROVED commit has been merged.
func (s *Service) MarkMerged(ctx context.Context, id string) (*domain.PendingCommit, error) {
	var merged *domain.PendingCommit

	err := s.repo.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		commit, err := st.GetPendingCommitForUpdate(ctx, id)
		if err != nil {
			return translate(err)
		}
		if commit.Status != domain.CommitApproved {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, commit.Status, domain.CommitMerged)
		}

		now := s.now()
		commit.Status = domain.CommitMerged
		commit.MergedAt = &now

		err = st.TransitionCommit(ctx, commit, domain.CommitApproved)
		if errors.Is(err, repository.ErrStaleState) {
			return fmt.Errorf("%w: commit is no longer %s", domain.ErrInvalidTransition, domain.CommitApproved)
		}
		if err != nil {
			return translate(err)
		}

		merged = commit
		return nil
	})
	if err != nil {
		s.logFailure("MarkMerged: failed to merge commit", err, zap.String("commit_id", id))
		return nil, domain.CommitErr("merge", id, err)
	}

	s.logger.Info("MarkMerged: commit merged", zap.String("commit_id", id))
	return merged, nil
}

// ListPendingCommits is the review queue of a project, oldest first.
func (s *Service) ListPendingCommits(ctx context.Context, projectID string) ([]domain.PendingCommit, error) {
	commits, err := s.repo.ListPendingCommits(ctx, projectID, domain.CommitPendingReview)
	if err != nil {
		err = translate(err)
		s.logFailure("ListPendingCommits: failed to list commits", err, zap.String("project_id", projectID))
		return nil, domain.CommitErr("list pending", "", err)
	}
	return commits, nil
}

// ListApprovedCommits returns a project's most recently approved work.
// A non-positive limit returns everything.
func (s *Service) ListApprovedCommits(ctx context.Context, projectID string, limit int) ([]domain.ApprovedCommit, error) {
	commits, err := s.repo.ListApprovedCommits(ctx, projectID, limit)
	if err != nil {
		err = translate(err)
		s.logFailure("ListApprovedCommits: failed to list commits", err, zap.String("project_id", projectID))
		return nil, domain.CommitErr("list approved", "", err)
	}
	return commits, nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
