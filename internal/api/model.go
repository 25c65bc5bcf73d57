package api

import (
	"time"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/progress"
	"sprint-tracker/internal/service"
)

type Sprint struct {
	ID                 string     `json:"sprint_id"`
	Name               string     `json:"name"`
	Goal               string     `json:"goal,omitempty"`
	StartDate          string     `json:"start_date"`
	EndDate            string     `json:"end_date"`
	Status             string     `json:"status"`
	ProjectID          string     `json:"project_id"`
	CreatedBy          string     `json:"created_by,omitempty"`
	RetrospectiveNotes string     `json:"retrospective_notes,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

func FromSprint(s domain.Sprint) Sprint {
	return Sprint{
		ID:                 s.ID,
		Name:               s.Name,
		Goal:               s.Goal,
		StartDate:          s.StartDate.Format(time.DateOnly),
		EndDate:            s.EndDate.Format(time.DateOnly),
		Status:             string(s.Status),
		ProjectID:          s.ProjectID,
		CreatedBy:          s.CreatedBy,
		RetrospectiveNotes: s.RetrospectiveNotes,
		CompletedAt:        s.CompletedAt,
	}
}

type Decline struct {
	DeclinedBy string    `json:"declined_by"`
	Reason     string    `json:"reason"`
	DeclinedAt time.Time `json:"declined_at"`
}

type Task struct {
	ID          string     `json:"task_id"`
	Code        string     `json:"code,omitempty"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	SprintID    *string    `json:"sprint_id"`
	StoryPoints *int       `json:"story_points,omitempty"`
	ProjectID   string     `json:"project_id"`
	Decline     *Decline   `json:"decline,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func FromTask(t domain.Task) Task {
	task := Task{
		ID:          t.ID,
		Code:        t.Code,
		Title:       t.Title,
		Status:      string(t.Status),
		AssigneeID:  t.AssigneeID,
		SprintID:    t.SprintID,
		StoryPoints: t.StoryPoints,
		ProjectID:   t.ProjectID,
		CompletedAt: t.CompletedAt,
	}
	if t.Decline != nil {
		task.Decline = &Decline{DeclinedBy: t.Decline.DeclinedBy, Reason: t.Decline.Reason, DeclinedAt: t.Decline.DeclinedAt}
	}
	return task
}

type BacklogItem struct {
	ID             string  `json:"backlog_item_id"`
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	Priority       string  `json:"priority"`
	PriorityRank   int     `json:"priority_rank"`
	PriorityScore  int     `json:"priority_score"`
	StoryPoints    int     `json:"story_points"`
	BusinessValue  int     `json:"business_value"`
	EffortEstimate int     `json:"effort_estimate"`
	Status         string  `json:"status"`
	SprintID       *string `json:"sprint_id"`
	ProjectID      string  `json:"project_id"`
}

func FromBacklogItem(b domain.BacklogItem) BacklogItem {
	return BacklogItem{
		ID:             b.ID,
		Title:          b.Title,
		Description:    b.Description,
		Priority:       b.Priority.String(),
		PriorityRank:   b.PriorityRank,
		PriorityScore:  b.PriorityScore(),
		StoryPoints:    b.StoryPoints,
		BusinessValue:  b.BusinessValue,
		EffortEstimate: b.EffortEstimate,
		Status:         string(b.Status),
		SprintID:       b.SprintID,
		ProjectID:      b.ProjectID,
	}
}

type PendingCommit struct {
	ID              string     `json:"commit_id"`
	AuthorID        string     `json:"author_id"`
	Message         string     `json:"message"`
	Branch          string     `json:"branch"`
	TaskID          *string    `json:"task_id"`
	CommittedAt     time.Time  `json:"committed_at"`
	URL             string     `json:"url,omitempty"`
	SHA             string     `json:"sha"`
	ProjectID       string     `json:"project_id"`
	Status          string     `json:"status"`
	ReviewerID      *string    `json:"reviewer_id,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	MergedAt        *time.Time `json:"merged_at,omitempty"`
}

func FromPendingCommit(c domain.PendingCommit) PendingCommit {
	return PendingCommit{
		ID:              c.ID,
		AuthorID:        c.AuthorID,
		Message:         c.Message,
		Branch:          c.Branch,
		TaskID:          c.TaskID,
		CommittedAt:     c.CommittedAt,
		URL:             c.URL,
		SHA:             c.SHA,
		ProjectID:       c.ProjectID,
		Status:          string(c.Status),
		ReviewerID:      c.ReviewerID,
		ReviewedAt:      c.ReviewedAt,
		RejectionReason: c.RejectionReason,
		MergedAt:        c.MergedAt,
	}
}

type ApprovedCommit struct {
	ID              string    `json:"approved_commit_id"`
	PendingCommitID string    `json:"commit_id"`
	AuthorID        string    `json:"author_id"`
	Message         string    `json:"message"`
	Branch          string    `json:"branch"`
	TaskID          *string   `json:"task_id"`
	CommittedAt     time.Time `json:"committed_at"`
	URL             string    `json:"url,omitempty"`
	SHA             string    `json:"sha"`
	ProjectID       string    `json:"project_id"`
	ApprovedBy      string    `json:"approved_by"`
	ApprovedAt      time.Time `json:"approved_at"`
}

func FromApprovedCommit(c domain.ApprovedCommit) ApprovedCommit {
	return ApprovedCommit{
		ID:              c.ID,
		PendingCommitID: c.PendingCommitID,
		AuthorID:        c.AuthorID,
		Message:         c.Message,
		Branch:          c.Branch,
		TaskID:          c.TaskID,
		CommittedAt:     c.CommittedAt,
		URL:             c.URL,
		SHA:             c.SHA,
		ProjectID:       c.ProjectID,
		ApprovedBy:      c.ApprovedBy,
		ApprovedAt:      c.ApprovedAt,
	}
}

type CommitCounts struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Merged   int `json:"merged"`
	Rejected int `json:"rejected"`
}

type BurndownPoint struct {
	Date   string  `json:"date"`
	Ideal  float64 `json:"ideal"`
	Actual *int    `json:"actual"`
}

type Progress struct {
	SprintID                string          `json:"sprint_id"`
	Name                    string          `json:"name"`
	Status                  string          `json:"status"`
	StartDate               string          `json:"start_date"`
	EndDate                 string          `json:"end_date"`
	TotalTasks              int             `json:"total_tasks"`
	DoneTasks               int             `json:"done_tasks"`
	RemainingTasks          int             `json:"remaining_tasks"`
	TasksByStatus           map[string]int  `json:"tasks_by_status"`
	PlannedPoints           int             `json:"planned_points"`
	CompletedPoints         int             `json:"completed_points"`
	CompletionPercentage    float64         `json:"completion_percentage"`
	ElapsedDays             int             `json:"elapsed_days"`
	TotalDays               int             `json:"total_days"`
	RemainingDays           int             `json:"remaining_days"`
	Velocity                float64         `json:"velocity"`
	EstimatedCompletionDate *string         `json:"estimated_completion_date"`
	IsAtRisk                bool            `json:"is_at_risk"`
	IsOverdue               bool            `json:"is_overdue"`
	Health                  string          `json:"sprint_health"`
	Commits                 CommitCounts    `json:"commits"`
	Burndown                []BurndownPoint `json:"burndown"`
	GeneratedAt             time.Time       `json:"generated_at"`
}

func FromSnapshot(s progress.Snapshot) Progress {
	p := Progress{
		SprintID:             s.SprintID,
		Name:                 s.Name,
		Status:               string(s.Status),
		StartDate:            s.StartDate.Format(time.DateOnly),
		EndDate:              s.EndDate.Format(time.DateOnly),
		TotalTasks:           s.TotalTasks,
		DoneTasks:            s.DoneTasks,
		RemainingTasks:       s.RemainingTasks,
		TasksByStatus:        make(map[string]int, len(s.TasksByStatus)),
		PlannedPoints:        s.PlannedPoints,
		CompletedPoints:      s.CompletedPoints,
		CompletionPercentage: s.CompletionPercentage,
		ElapsedDays:          s.ElapsedDays,
		TotalDays:            s.TotalDays,
		RemainingDays:        s.RemainingDays,
		Velocity:             s.Velocity,
		IsAtRisk:             s.IsAtRisk,
		IsOverdue:            s.IsOverdue,
		Health:               string(s.Health),
		Commits: CommitCounts{
			Pending:  s.Commits.Pending,
			Approved: s.Commits.Approved,
			Merged:   s.Commits.Merged,
			Rejected: s.Commits.Rejected,
		},
		Burndown:    make([]BurndownPoint, 0, len(s.Burndown)),
		GeneratedAt: s.GeneratedAt,
	}

	for status, n := range s.TasksByStatus {
		p.TasksByStatus[string(status)] = n
	}
	if s.EstimatedCompletionDate != nil {
		eta := s.EstimatedCompletionDate.Format(time.DateOnly)
		p.EstimatedCompletionDate = &eta
	}
	for _, b := range s.Burndown {
		p.Burndown = append(p.Burndown, BurndownPoint{Date: b.Date.Format(time.DateOnly), Ideal: b.Ideal, Actual: b.Actual})
	}
	return p
}

type VelocityPoint struct {
	SprintID        string `json:"sprint_id"`
	Name            string `json:"name"`
	EndDate         string `json:"end_date"`
	CompletedTasks  int    `json:"completed_tasks"`
	CompletedPoints int    `json:"completed_points"`
}

func FromVelocityPoint(v progress.VelocityPoint) VelocityPoint {
	return VelocityPoint{
		SprintID:        v.SprintID,
		Name:            v.Name,
		EndDate:         v.EndDate.Format(time.DateOnly),
		CompletedTasks:  v.CompletedTasks,
		CompletedPoints: v.CompletedPoints,
	}
}

type SweepResult struct {
	Processed int                    `json:"processed"`
	Changed   int                    `json:"changed"`
	Failures  []service.SweepFailure `json:"failures"`
}

func FromSweepResult(r service.SweepResult) SweepResult {
	failures := r.Failures
	if failures == nil {
		failures = []service.SweepFailure{}
	}
	return SweepResult{Processed: r.Processed, Changed: r.Changed, Failures: failures}
}
