package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/notify"
	"sprint-tracker/internal/repository"
	"sprint-tracker/internal/repository/memory"
)

var (
	now   = time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)
	today = domain.Date(now)
)

type fixture struct {
	svc      *Service
	repo     *memory.Repository
	notifier *MockNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := memory.New(zap.NewNop())
	f := &fixture{repo: repo}
	f.svc, f.notifier = newService(t, repo)
	return f
}

func newService(t *testing.T, repo repository.Repository) (*Service, *MockNotifier) {
	t.Helper()

	notifier := NewMockNotifier(gomock.NewController(t))
	svc, err := New(&Config{ReminderLookAheadDays: 2, Timezone: "UTC"}, repo, notifier, zap.NewNop())
	require.NoError(t, err)
	svc.now = func() time.Time { return now }
	return svc, notifier
}

func (f *fixture) allowNotifications() {
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).AnyTimes()
}

// recordNotifications captures every notification sent from here on.
func (f *fixture) recordNotifications() *[]notify.Notification {
	var sent []notify.Notification
	f.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, n notify.Notification) { sent = append(sent, n) }).
		AnyTimes()
	return &sent
}

// sprint stores a sprint spanning [today+startOffset, today+endOffset].
func (f *fixture) sprint(t *testing.T, status domain.SprintStatus, startOffset, endOffset int) domain.Sprint {
	t.Helper()

	s := domain.Sprint{
		ID:        uuid.NewString(),
		Name:      "Sprint " + string(status),
		StartDate: today.AddDate(0, 0, startOffset),
		EndDate:   today.AddDate(0, 0, endOffset),
		Status:    status,
		ProjectID: "proj",
		CreatedBy: "owner",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.repo.CreateSprint(context.Background(), &s))
	return s
}

func (f *fixture) task(t *testing.T, sprintID string, status domain.TaskStatus) domain.Task {
	t.Helper()

	points := 3
	task, err := domain.NewTask(domain.NewTaskInput{Title: "task", ProjectID: "proj", StoryPoints: &points}, now)
	require.NoError(t, err)
	task.Status = status
	if sprintID != "" {
		task.SprintID = &sprintID
	}
	if status == domain.TaskDone {
		task.CompletedAt = &now
	}
	require.NoError(t, f.repo.CreateTask(context.Background(), &task))
	return task
}

func (f *fixture) backlogItem(t *testing.T, sprintID string, status domain.BacklogStatus) domain.BacklogItem {
	t.Helper()

	item, err := domain.NewBacklogItem(domain.NewBacklogItemInput{Title: "item", ProjectID: "proj", Priority: domain.PriorityHigh}, now)
	require.NoError(t, err)
	item.Status = status
	if sprintID != "" {
		item.SprintID = &sprintID
	}
	require.NoError(t, f.repo.CreateBacklogItem(context.Background(), &item))
	return item
}

func (f *fixture) getTask(t *testing.T, id string) *domain.Task {
	t.Helper()

	task, err := f.repo.GetTask(context.Background(), id)
	require.NoError(t, err)
	return task
}

func (f *fixture) getSprint(t *testing.T, id string) *domain.Sprint {
	t.Helper()

	s, err := f.repo.GetSprint(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (f *fixture) ingest(t *testing.T, sha string, taskID string) *domain.PendingCommit {
	t.Helper()

	meta := domain.CommitMetadata{AuthorID: "dev", Message: "fix", Branch: "main", SHA: sha, ProjectID: "proj"}
	if taskID != "" {
		meta.TaskID = &taskID
	}
	commit, err := f.svc.IngestCommit(context.Background(), meta)
	require.NoError(t, err)
	return commit
}

// failingRepo hands out stores whose UpdateTask fails once okUpdates calls
// have succeeded within a transaction.
type failingRepo struct {
	*memory.Repository
	okUpdates int
}

func (r *failingRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	return r.Repository.WithinTx(ctx, func(ctx context.Context, st repository.Store) error {
		return fn(ctx, &failingStore{Store: st, left: r.okUpdates})
	})
}

type failingStore struct {
	repository.Store
	left int
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) UpdateTask(ctx context.Context, task *domain.Task) error {
	if s.left == 0 {
		return errDiskFull
	}
	s.left--
	return s.Store.UpdateTask(ctx, task)
}
