// Package memory is an in-process repository. It backs the service in local
// development (STORAGE_DRIVER=memory) and in tests.
package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/repository"
)

// Repository serializes all access with a single mutex. A transaction holds the
// mutex for its whole duration and works on a clone, so a failed transaction
// leaves no trace.
type Repository struct {
	mu     sync.Mutex
	st     *state
	logger *zap.Logger
}

var _ repository.Repository = (*Repository)(nil)

func New(logger *zap.Logger) *Repository {
	return &Repository{st: newState(), logger: logger}
}

func (r *Repository) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := r.st.clone()
	if err := fn(ctx, tx); err != nil {
		r.logger.Debug("memory transaction rolled back", zap.Error(err))
		return err
	}
	r.st = tx
	return nil
}

func (r *Repository) Close() {}

func (r *Repository) CreateSprint(ctx context.Context, sprint *domain.Sprint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.CreateSprint(ctx, sprint)
}

func (r *Repository) GetSprint(ctx context.Context, id string) (*domain.Sprint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.GetSprint(ctx, id)
}

func (r *Repository) GetSprintForUpdate(ctx context.Context, id string) (*domain.Sprint, error) {
	return r.GetSprint(ctx, id)
}

func (r *Repository) ListSprintsByStatus(ctx context.Context, statuses ...domain.SprintStatus) ([]domain.Sprint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.ListSprintsByStatus(ctx, statuses...)
}

func (r *Repository) ListSprintsByProject(ctx context.Context, projectID string) ([]domain.Sprint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.ListSprintsByProject(ctx, projectID)
}

func (r *Repository) UpdateSprint(ctx context.Context, sprint *domain.Sprint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.UpdateSprint(ctx, sprint)
}

func (r *Repository) DeleteSprint(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.DeleteSprint(ctx, id)
}

func (r *Repository) CreateTask(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.CreateTask(ctx, task)
}

func (r *Repository) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.GetTask(ctx, id)
}

func (r *Repository) GetTaskForUpdate(ctx context.Context, id string) (*domain.Task, error) {
	return r.GetTask(ctx, id)
}

func (r *Repository) ListTasksBySprint(ctx context.Context, sprintID string) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.ListTasksBySprint(ctx, sprintID)
}

func (r *Repository) UpdateTask(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.UpdateTask(ctx, task)
}

func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.DeleteTask(ctx, id)
}

func (r *Repository) CreateBacklogItem(ctx context.Context, item *domain.BacklogItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.CreateBacklogItem(ctx, item)
}

func (r *Repository) GetBacklogItem(ctx context.Context, id string) (*domain.BacklogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.GetBacklogItem(ctx, id)
}

func (r *Repository) ListBacklogItemsBySprint(ctx context.Context, sprintID string) ([]domain.BacklogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.ListBacklogItemsBySprint(ctx, sprintID)
}

func (r *Repository) ListProductBacklog(ctx context.Context, projectID string) ([]domain.BacklogItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.ListProductBacklog(ctx, projectID)
}

func (r *Repository) UpdateBacklogItem(ctx context.Context, item *domain.BacklogItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.UpdateBacklogItem(ctx, item)
}

func (r *Repository) DeleteBacklogItem(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.DeleteBacklogItem(ctx, id)
}

func (r *Repository) CreatePendingCommit(ctx context.Context, commit *domain.PendingCommit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.CreatePendingCommit(ctx, commit)
}

func (r *Repository) GetPendingCommit(ctx context.Context, id string) (*domain.PendingCommit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.GetPendingCommit(ctx, id)
}

func (r *Repository) GetPendingCommitForUpdate(ctx context.Context, id string) (*domain.PendingCommit, error) {
	return r.GetPendingCommit(ctx, id)
}

func (r *Repository) CountPendingCommitsBySHA(ctx context.Context, sha string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.CountPendingCommitsBySHA(ctx, sha)
}

func (r *Repository) ListPendingCommits(ctx context.Context, projectID string, status domain.CommitStatus) ([]domain.PendingCommit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.ListPendingCommits(ctx, projectID, status)
}

func (r *Repository) TransitionCommit(ctx context.Context, commit *domain.PendingCommit, from domain.CommitStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.TransitionCommit(ctx, commit, from)
}

func (r *Repository) CreateApprovedCommit(ctx context.Context, commit *domain.ApprovedCommit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.CreateApprovedCommit(ctx, commit)
}

func (r *Repository) ListApprovedCommits(ctx context.Context, projectID string, limit int) ([]domain.ApprovedCommit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.ListApprovedCommits(ctx, projectID, limit)
}

func (r *Repository) CommitCountsBySprint(ctx context.Context, sprintID string) (domain.CommitCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.st.CommitCountsBySprint(ctx, sprintID)
}
