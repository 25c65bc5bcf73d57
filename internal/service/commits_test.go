package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/notify"
)

func TestIngestCommitRejectsDuplicateSHA(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.ingest(t, "abc123", "")
	assert.Equal(t, domain.CommitPendingReview, first.Status)

	_, err := f.svc.IngestCommit(ctx, domain.CommitMetadata{AuthorID: "dev", SHA: "abc123", ProjectID: "proj"})
	assert.ErrorIs(t, err, domain.ErrDuplicateCommit)

	n, err := f.repo.CountPendingCommitsBySHA(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	queue, err := f.svc.ListPendingCommits(ctx, "proj")
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, first.ID, queue[0].ID)
}

func TestIngestCommitValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.IngestCommit(ctx, domain.CommitMetadata{AuthorID: "dev", ProjectID: "proj"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	missing := "no-such-task"
	_, err = f.svc.IngestCommit(ctx, domain.CommitMetadata{AuthorID: "dev", SHA: "f00", ProjectID: "proj", TaskID: &missing})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApproveCommitCompletesTask(t *testing.T) {
	f := newFixture(t)
	sent := f.recordNotifications()
	ctx := context.Background()
	s := f.sprint(t, domain.SprintActive, -3, 7)
	task := f.task(t, s.ID, domain.TaskInProgress)
	commit := f.ingest(t, "0123456789abcdef", task.ID)

	result, err := f.svc.ReviewCommit(ctx, commit.ID, domain.DecisionApprove, "lead", "")
	require.NoError(t, err)
	assert.Equal(t, domain.CommitApproved, result.Commit.Status)
	require.NotNil(t, result.Commit.ReviewerID)
	assert.Equal(t, "lead", *result.Commit.ReviewerID)

	require.NotNil(t, result.Approved)
	assert.Equal(t, commit.ID, result.Approved.PendingCommitID)
	assert.Equal(t, "lead", result.Approved.ApprovedBy)
	assert.Equal(t, now, result.Approved.ApprovedAt)

	got := f.getTask(t, task.ID)
	assert.Equal(t, domain.TaskDone, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, now, *got.CompletedAt)

	approved, err := f.svc.ListApprovedCommits(ctx, "proj", 10)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "0123456789abcdef", approved[0].SHA)

	snap, err := f.svc.GetSprintProgress(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Commits.Approved)
	assert.Equal(t, 100.0, snap.CompletionPercentage)

	require.Len(t, *sent, 1)
	assert.Equal(t, notify.Notification{UserID: "dev", Type: notify.TypeCommitApproved, Message: "Your commit 0123456 was approved"}, (*sent)[0])
}

func TestRejectCommitDeclinesTask(t *testing.T) {
	f := newFixture(t)
	sent := f.recordNotifications()
	ctx := context.Background()
	task := f.task(t, "", domain.TaskInProgress)
	commit := f.ingest(t, "abc123", task.ID)

	result, err := f.svc.ReviewCommit(ctx, commit.ID, domain.DecisionReject, "lead", "  missing tests ")
	require.NoError(t, err)
	assert.Nil(t, result.Approved)
	assert.Equal(t, domain.CommitRejected, result.Commit.Status)
	require.NotNil(t, result.Commit.RejectionReason)
	assert.Equal(t, "missing tests", *result.Commit.RejectionReason)

	got := f.getTask(t, task.ID)
	assert.Equal(t, domain.TaskTodo, got.Status)
	require.NotNil(t, got.Decline)
	assert.Equal(t, domain.Decline{DeclinedBy: "lead", Reason: "missing tests", DeclinedAt: now}, *got.Decline)

	stored, err := f.svc.GetPendingCommit(ctx, commit.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommitRejected, stored.Status)

	approved, err := f.svc.ListApprovedCommits(ctx, "proj", 0)
	require.NoError(t, err)
	assert.Empty(t, approved)

	require.Len(t, *sent, 1)
	assert.Equal(t, notify.TypeCommitRejected, (*sent)[0].Type)
	assert.Equal(t, "dev", (*sent)[0].UserID)
}

func TestRejectCommitRequiresReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	commit := f.ingest(t, "abc123", "")

	_, err := f.svc.ReviewCommit(ctx, commit.ID, domain.DecisionReject, "lead", " ")
	assert.ErrorIs(t, err, domain.ErrMissingReason)

	stored, err := f.svc.GetPendingCommit(ctx, commit.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommitPendingReview, stored.Status)
}

func TestReviewCommitValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	commit := f.ingest(t, "abc123", "")

	_, err := f.svc.ReviewCommit(ctx, commit.ID, "MAYBE", "lead", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.ReviewCommit(ctx, commit.ID, domain.DecisionApprove, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.ReviewCommit(ctx, "missing", domain.DecisionApprove, "lead", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviewCommitTwiceFails(t *testing.T) {
	f := newFixture(t)
	f.allowNotifications()
	ctx := context.Background()
	commit := f.ingest(t, "abc123", "")

	_, err := f.svc.ReviewCommit(ctx, commit.ID, domain.DecisionReject, "lead", "wrong branch")
	require.NoError(t, err)

	_, err = f.svc.ReviewCommit(ctx, commit.ID, domain.DecisionApprove, "lead", "")
	assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)
}

func TestConcurrentReviewsExactlyOneWins(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		f.allowNotifications()
		ctx := context.Background()
		task := f.task(t, "", domain.TaskInProgress)
		commit := f.ingest(t, "abc123", task.ID)

		var (
			wg    sync.WaitGroup
			start = make(chan struct{})
			errs  = make([]error, 2)
		)
		decisions := []struct {
			decision domain.ReviewDecision
			reason   string
		}{
			{domain.DecisionApprove, ""},
			{domain.DecisionReject, "reason"},
		}
		for j, d := range decisions {
			j, d := j, d
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, errs[j] = f.svc.ReviewCommit(ctx, commit.ID, d.decision, "lead", d.reason)
			}()
		}
		close(start)
		wg.Wait()

		var succeeded, rejected int
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case assert.ErrorIs(t, err, domain.ErrAlreadyReviewed):
				rejected++
			}
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, rejected)

		stored, err := f.svc.GetPendingCommit(ctx, commit.ID)
		require.NoError(t, err)
		got := f.getTask(t, task.ID)
		if stored.Status == domain.CommitApproved {
			assert.Equal(t, domain.TaskDone, got.Status)
		} else {
			assert.Equal(t, domain.CommitRejected, stored.Status)
			assert.Equal(t, domain.TaskTodo, got.Status)
		}
	}
}

func TestMarkMerged(t *testing.T) {
	f := newFixture(t)
	f.allowNotifications()
	ctx := context.Background()
	commit := f.ingest(t, "abc123", "")

	_, err := f.svc.MarkMerged(ctx, commit.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.ReviewCommit(ctx, commit.ID, domain.DecisionApprove, "lead", "")
	require.NoError(t, err)

	merged, err := f.svc.MarkMerged(ctx, commit.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CommitMerged, merged.Status)
	require.NotNil(t, merged.MergedAt)
	assert.Equal(t, now, *merged.MergedAt)

	_, err = f.svc.MarkMerged(ctx, commit.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.ReviewCommit(ctx, commit.ID, domain.DecisionReject, "lead", "late")
	assert.ErrorIs(t, err, domain.ErrAlreadyReviewed)

	_, err = f.svc.MarkMerged(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMarkMergedRejectsRejectedCommit(t *testing.T) {
	f := newFixture(t)
	f.allowNotifications()
	ctx := context.Background()
	commit := f.ingest(t, "abc123", "")

	_, err := f.svc.ReviewCommit(ctx, commit.ID, domain.DecisionReject, "lead", "nope")
	require.NoError(t, err)

	_, err = f.svc.MarkMerged(ctx, commit.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestShortSHA(t *testing.T) {
	assert.Equal(t, "abc", shortSHA("abc"))
	assert.Equal(t, "0123456", shortSHA("0123456789"))
}
