package repository

import (
	"context"
	"errors"

	"sprint-tracker/internal/domain"
)

var (
	ErrSprintNotFound      = errors.New("sprint not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrBacklogItemNotFound = errors.New("backlog item not found")
	ErrCommitNotFound      = errors.New("commit not found")
	ErrCommitExists        = errors.New("commit with this sha already exists")
	// ErrStaleState means a conditional update found the row in a different
	// state than the caller expected.
	ErrStaleState = errors.New("row state changed")
)

type SprintStore interface {
	CreateSprint(ctx context.Context, sprint *domain.Sprint) error
	GetSprint(ctx context.Context, id string) (*domain.Sprint, error)
	// GetSprintForUpdate loads the sprint and holds it until the surrounding
	// transaction ends.
	GetSprintForUpdate(ctx context.Context, id string) (*domain.Sprint, error)
	ListSprintsByStatus(ctx context.Context, statuses ...domain.SprintStatus) ([]domain.Sprint, error)
	ListSprintsByProject(ctx context.Context, projectID string) ([]domain.Sprint, error)
	UpdateSprint(ctx context.Context, sprint *domain.Sprint) error
	DeleteSprint(ctx context.Context, id string) error
}

type TaskStore interface {
	CreateTask(ctx context.Context, task *domain.Task) error
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	// GetTaskForUpdate serializes writers on the task's status.
	GetTaskForUpdate(ctx context.Context, id string) (*domain.Task, error)
	ListTasksBySprint(ctx context.Context, sprintID string) ([]domain.Task, error)
	UpdateTask(ctx context.Context, task *domain.Task) error
	DeleteTask(ctx context.Context, id string) error
}

type BacklogStore interface {
	CreateBacklogItem(ctx context.Context, item *domain.BacklogItem) error
	GetBacklogItem(ctx context.Context, id string) (*domain.BacklogItem, error)
	ListBacklogItemsBySprint(ctx context.Context, sprintID string) ([]domain.BacklogItem, error)
	// ListProductBacklog returns unscheduled items, highest priority score first.
	ListProductBacklog(ctx context.Context, projectID string) ([]domain.BacklogItem, error)
	UpdateBacklogItem(ctx context.Context, item *domain.BacklogItem) error
	DeleteBacklogItem(ctx context.Context, id string) error
}

type CommitStore interface {
	CreatePendingCommit(ctx context.Context, commit *domain.PendingCommit) error
	GetPendingCommit(ctx context.Context, id string) (*domain.PendingCommit, error)
	// GetPendingCommitForUpdate locks the commit row for the rest of the transaction.
	GetPendingCommitForUpdate(ctx context.Context, id string) (*domain.PendingCommit, error)
	CountPendingCommitsBySHA(ctx context.Context, sha string) (int, error)
	ListPendingCommits(ctx context.Context, projectID string, status domain.CommitStatus) ([]domain.PendingCommit, error)
	// TransitionCommit writes commit only if its stored status still equals from;
	// otherwise it returns ErrStaleState.
	TransitionCommit(ctx context.Context, commit *domain.PendingCommit, from domain.CommitStatus) error
	CreateApprovedCommit(ctx context.Context, commit *domain.ApprovedCommit) error
	ListApprovedCommits(ctx context.Context, projectID string, limit int) ([]domain.ApprovedCommit, error)
	CommitCountsBySprint(ctx context.Context, sprintID string) (domain.CommitCounts, error)
}

// Store is the set of operations available both outside and inside a transaction.
type Store interface {
	SprintStore
	TaskStore
	BacklogStore
	CommitStore
}

type Repository interface {
	Store
	// WithinTx runs fn against a transactional Store. Any error from fn rolls
	// back every write fn made.
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
	Close()
}
