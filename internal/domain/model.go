package domain

import (
	"fmt"
	"strings"
	"time"
)

type SprintStatus string

const (
	SprintUpcoming  SprintStatus = "UPCOMING"
	SprintActive    SprintStatus = "ACTIVE"
	SprintCompleted SprintStatus = "COMPLETED"
	SprintCancelled SprintStatus = "CANCELLED"
)

func (s SprintStatus) Valid() bool {
	switch s {
	case SprintUpcoming, SprintActive, SprintCompleted, SprintCancelled:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskBacklog    TaskStatus = "BACKLOG"
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskBacklog, TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

type BacklogStatus string

const (
	BacklogProduct    BacklogStatus = "PRODUCT_BACKLOG"
	BacklogSprint     BacklogStatus = "SPRINT_BACKLOG"
	BacklogInProgress BacklogStatus = "IN_PROGRESS"
	BacklogCompleted  BacklogStatus = "COMPLETED"
	BacklogArchived   BacklogStatus = "ARCHIVED"
)

// PriorityLevel is ordered: a higher value is more urgent.
type PriorityLevel int

const (
	PriorityLow PriorityLevel = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

var priorityNames = [...]string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}

func (p PriorityLevel) String() string {
	if p < PriorityLow || p > PriorityCritical {
		return fmt.Sprintf("PriorityLevel(%d)", int(p))
	}
	return priorityNames[p]
}

func ParsePriorityLevel(s string) (PriorityLevel, error) {
	for i, name := range priorityNames {
		if strings.EqualFold(s, name) {
			return PriorityLevel(i), nil
		}
	}
	return PriorityLow, fmt.Errorf("%w: unknown priority level %q", ErrInvalidInput, s)
}

type CommitStatus string

const (
	CommitPendingReview CommitStatus = "PENDING_REVIEW"
	CommitApproved      CommitStatus = "APPROVED"
	CommitRejected      CommitStatus = "REJECTED"
	CommitMerged        CommitStatus = "MERGED"
)

type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "APPROVE"
	DecisionReject  ReviewDecision = "REJECT"
)

// DispositionPolicy says what happens to a sprint's unfinished work when the
// sprint is completed or removed.
type DispositionPolicy string

const (
	PolicyMoveToBacklog DispositionPolicy = "MOVE_TO_BACKLOG"
	PolicyUnassign      DispositionPolicy = "UNASSIGN"
	PolicyCascadeDelete DispositionPolicy = "CASCADE_DELETE_TASKS"
)

func (p DispositionPolicy) Valid() bool {
	switch p {
	case PolicyMoveToBacklog, PolicyUnassign, PolicyCascadeDelete:
		return true
	}
	return false
}

type Sprint struct {
	ID                 string
	Name               string
	Goal               string
	StartDate          time.Time
	EndDate            time.Time
	Status             SprintStatus
	ProjectID          string
	CreatedBy          string
	RetrospectiveNotes string
	// LastReminderDate is the calendar day the "ending soon" notice was last sent.
	LastReminderDate *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Decline struct {
	DeclinedBy string
	Reason     string
	DeclinedAt time.Time
}

type Task struct {
	ID          string
	Code        string
	Title       string
	Status      TaskStatus
	AssigneeID  string
	SprintID    *string
	StoryPoints *int
	ProjectID   string
	Decline     *Decline
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Task) Points() int {
	if t.StoryPoints == nil {
		return 0
	}
	return *t.StoryPoints
}

type BacklogItem struct {
	ID             string
	Title          string
	Description    string
	Priority       PriorityLevel
	PriorityRank   int
	StoryPoints    int
	BusinessValue  int
	EffortEstimate int
	Status         BacklogStatus
	SprintID       *string
	ProjectID      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PriorityScore orders backlog items: level first, rank breaks ties within a level.
func (b BacklogItem) PriorityScore() int {
	return int(b.Priority)*1000 + b.PriorityRank
}

type CommitMetadata struct {
	AuthorID    string
	Message     string
	Branch      string
	TaskID      *string
	CommittedAt time.Time
	URL         string
	SHA         string
	ProjectID   string
}

type PendingCommit struct {
	ID              string
	AuthorID        string
	Message         string
	Branch          string
	TaskID          *string
	CommittedAt     time.Time
	URL             string
	SHA             string
	ProjectID       string
	Status          CommitStatus
	ReviewerID      *string
	ReviewedAt      *time.Time
	RejectionReason *string
	MergedAt        *time.Time
	CreatedAt       time.Time
}

// ApprovedCommit is the immutable audit record written once on approval.
type ApprovedCommit struct {
	ID              string
	PendingCommitID string
	AuthorID        string
	Message         string
	Branch          string
	TaskID          *string
	CommittedAt     time.Time
	URL             string
	SHA             string
	ProjectID       string
	ApprovedBy      string
	ApprovedAt      time.Time
}

// CommitCounts is the commit side of a sprint's progress.
type CommitCounts struct {
	Pending  int
	Approved int
	Merged   int
	Rejected int
}
