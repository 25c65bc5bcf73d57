package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Date truncates t to its calendar day, expressed as midnight UTC. All sprint
// date comparisons happen on values produced by Date.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from a to b; negative if b is before a.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

type NewSprintInput struct {
	Name      string
	Goal      string
	StartDate time.Time
	EndDate   time.Time
	ProjectID string
	CreatedBy string
}

func NewSprint(in NewSprintInput, now time.Time) (Sprint, error) {
	if strings.TrimSpace(in.Name) == "" {
		return Sprint{}, fmt.Errorf("%w: sprint name is required", ErrInvalidInput)
	}
	if in.ProjectID == "" {
		return Sprint{}, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	start, end := Date(in.StartDate), Date(in.EndDate)
	if start.After(end) {
		return Sprint{}, fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidInput, start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	return Sprint{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Goal:      in.Goal,
		StartDate: start,
		EndDate:   end,
		Status:    SprintUpcoming,
		ProjectID: in.ProjectID,
		CreatedBy: in.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

type NewTaskInput struct {
	Code        string
	Title       string
	AssigneeID  string
	StoryPoints *int
	ProjectID   string
}

// NewTask creates an unscheduled task. Sprint assignment is a separate step
// because it has to check the target sprint's status.
func NewTask(in NewTaskInput, now time.Time) (Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Task{}, fmt.Errorf("%w: task title is required", ErrInvalidInput)
	}
	if in.ProjectID == "" {
		return Task{}, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if in.StoryPoints != nil && *in.StoryPoints < 0 {
		return Task{}, fmt.Errorf("%w: story points must not be negative", ErrInvalidInput)
	}

	return Task{
		ID:          uuid.NewString(),
		Code:        in.Code,
		Title:       in.Title,
		Status:      TaskBacklog,
		AssigneeID:  in.AssigneeID,
		StoryPoints: in.StoryPoints,
		ProjectID:   in.ProjectID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type NewBacklogItemInput struct {
	Title          string
	Description    string
	Priority       PriorityLevel
	PriorityRank   int
	StoryPoints    int
	BusinessValue  int
	EffortEstimate int
	ProjectID      string
}

func NewBacklogItem(in NewBacklogItemInput, now time.Time) (BacklogItem, error) {
	if strings.TrimSpace(in.Title) == "" {
		return BacklogItem{}, fmt.Errorf("%w: backlog item title is required", ErrInvalidInput)
	}
	if in.ProjectID == "" {
		return BacklogItem{}, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if in.Priority < PriorityLow || in.Priority > PriorityCritical {
		return BacklogItem{}, fmt.Errorf("%w: unknown priority level %d", ErrInvalidInput, in.Priority)
	}
	if in.PriorityRank < 0 || in.PriorityRank >= 1000 {
		return BacklogItem{}, fmt.Errorf("%w: priority rank must be in [0, 1000)", ErrInvalidInput)
	}

	return BacklogItem{
		ID:             uuid.NewString(),
		Title:          in.Title,
		Description:    in.Description,
		Priority:       in.Priority,
		PriorityRank:   in.PriorityRank,
		StoryPoints:    in.StoryPoints,
		BusinessValue:  in.BusinessValue,
		EffortEstimate: in.EffortEstimate,
		Status:         BacklogProduct,
		ProjectID:      in.ProjectID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NewPendingCommit builds the review-queue record for an ingested commit.
func NewPendingCommit(meta CommitMetadata, now time.Time) (PendingCommit, error) {
	if strings.TrimSpace(meta.SHA) == "" {
		return PendingCommit{}, fmt.Errorf("%w: commit sha is required", ErrInvalidInput)
	}
	if meta.AuthorID == "" {
		return PendingCommit{}, fmt.Errorf("%w: commit author is required", ErrInvalidInput)
	}
	if meta.ProjectID == "" {
		return PendingCommit{}, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}

	committedAt := meta.CommittedAt
	if committedAt.IsZero() {
		committedAt = now
	}

	return PendingCommit{
		ID:          uuid.NewString(),
		AuthorID:    meta.AuthorID,
		Message:     meta.Message,
		Branch:      meta.Branch,
		TaskID:      meta.TaskID,
		CommittedAt: committedAt,
		URL:         meta.URL,
		SHA:         strings.TrimSpace(meta.SHA),
		ProjectID:   meta.ProjectID,
		Status:      CommitPendingReview,
		CreatedAt:   now,
	}, nil
}

// Snapshot copies an approved commit into its audit record.
func (c PendingCommit) Snapshot(approver string, at time.Time) ApprovedCommit {
	return ApprovedCommit{
		ID:              uuid.NewString(),
		PendingCommitID: c.ID,
		AuthorID:        c.AuthorID,
		Message:         c.Message,
		Branch:          c.Branch,
		TaskID:          c.TaskID,
		CommittedAt:     c.CommittedAt,
		URL:             c.URL,
		SHA:             c.SHA,
		ProjectID:       c.ProjectID,
		ApprovedBy:      approver,
		ApprovedAt:      at,
	}
}
