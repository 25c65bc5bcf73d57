package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/repository"
)

// state is the unlocked data set. Repository guards it with a mutex and hands
// transactions a private clone that replaces the original on commit.
type state struct {
	sprints  map[string]domain.Sprint
	tasks    map[string]domain.Task
	backlog  map[string]domain.BacklogItem
	pending  map[string]domain.PendingCommit
	approved map[string]domain.ApprovedCommit
	shas     map[string]string
}

func newState() *state {
	return &state{
		sprints:  make(map[string]domain.Sprint),
		tasks:    make(map[string]domain.Task),
		backlog:  make(map[string]domain.BacklogItem),
		pending:  make(map[string]domain.PendingCommit),
		approved: make(map[string]domain.ApprovedCommit),
		shas:     make(map[string]string),
	}
}

func (s *state) clone() *state {
	return &state{
		sprints:  maps.Clone(s.sprints),
		tasks:    maps.Clone(s.tasks),
		backlog:  maps.Clone(s.backlog),
		pending:  maps.Clone(s.pending),
		approved: maps.Clone(s.approved),
		shas:     maps.Clone(s.shas),
	}
}

var _ repository.Store = (*state)(nil)

func (s *state) CreateSprint(_ context.Context, sprint *domain.Sprint) error {
	if _, ok := s.sprints[sprint.ID]; ok {
		return fmt.Errorf("sprint %s already exists", sprint.ID)
	}
	s.sprints[sprint.ID] = cloneSprint(*sprint)
	return nil
}

func (s *state) GetSprint(_ context.Context, id string) (*domain.Sprint, error) {
	sprint, ok := s.sprints[id]
	if !ok {
		return nil, repository.ErrSprintNotFound
	}
	out := cloneSprint(sprint)
	return &out, nil
}

func (s *state) GetSprintForUpdate(ctx context.Context, id string) (*domain.Sprint, error) {
	return s.GetSprint(ctx, id)
}

func (s *state) ListSprintsByStatus(_ context.Context, statuses ...domain.SprintStatus) ([]domain.Sprint, error) {
	want := make(map[domain.SprintStatus]bool, len(statuses))
	for _, st := range statuses {
		want[st] = true
	}

	out := make([]domain.Sprint, 0)
	for _, sprint := range s.sprints {
		if want[sprint.Status] {
			out = append(out, cloneSprint(sprint))
		}
	}
	sortSprints(out)
	return out, nil
}

func (s *state) ListSprintsByProject(_ context.Context, projectID string) ([]domain.Sprint, error) {
	out := make([]domain.Sprint, 0)
	for _, sprint := range s.sprints {
		if sprint.ProjectID == projectID {
			out = append(out, cloneSprint(sprint))
		}
	}
	sortSprints(out)
	return out, nil
}

func (s *state) UpdateSprint(_ context.Context, sprint *domain.Sprint) error {
	if _, ok := s.sprints[sprint.ID]; !ok {
		return repository.ErrSprintNotFound
	}
	s.sprints[sprint.ID] = cloneSprint(*sprint)
	return nil
}

func (s *state) DeleteSprint(_ context.Context, id string) error {
	if _, ok := s.sprints[id]; !ok {
		return repository.ErrSprintNotFound
	}
	for _, t := range s.tasks {
		if t.SprintID != nil && *t.SprintID == id {
			return fmt.Errorf("sprint %s is still referenced by task %s", id, t.ID)
		}
	}
	for _, b := range s.backlog {
		if b.SprintID != nil && *b.SprintID == id {
			return fmt.Errorf("sprint %s is still referenced by backlog item %s", id, b.ID)
		}
	}
	delete(s.sprints, id)
	return nil
}

func (s *state) CreateTask(_ context.Context, task *domain.Task) error {
	if _, ok := s.tasks[task.ID]; ok {
		return fmt.Errorf("task %s already exists", task.ID)
	}
	if err := s.checkSprintRef(task.SprintID); err != nil {
		return err
	}
	s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (s *state) GetTask(_ context.Context, id string) (*domain.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	out := cloneTask(task)
	return &out, nil
}

func (s *state) GetTaskForUpdate(ctx context.Context, id string) (*domain.Task, error) {
	return s.GetTask(ctx, id)
}

func (s *state) ListTasksBySprint(_ context.Context, sprintID string) ([]domain.Task, error) {
	out := make([]domain.Task, 0)
	for _, t := range s.tasks {
		if t.SprintID != nil && *t.SprintID == sprintID {
			out = append(out, cloneTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *state) UpdateTask(_ context.Context, task *domain.Task) error {
	if _, ok := s.tasks[task.ID]; !ok {
		return repository.ErrTaskNotFound
	}
	if err := s.checkSprintRef(task.SprintID); err != nil {
		return err
	}
	s.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (s *state) DeleteTask(_ context.Context, id string) error {
	if _, ok := s.tasks[id]; !ok {
		return repository.ErrTaskNotFound
	}
	for cid, c := range s.pending {
		if c.TaskID != nil && *c.TaskID == id {
			c.TaskID = nil
			s.pending[cid] = c
		}
	}
	delete(s.tasks, id)
	return nil
}

func (s *state) CreateBacklogItem(_ context.Context, item *domain.BacklogItem) error {
	if _, ok := s.backlog[item.ID]; ok {
		return fmt.Errorf("backlog item %s already exists", item.ID)
	}
	if err := s.checkSprintRef(item.SprintID); err != nil {
		return err
	}
	s.backlog[item.ID] = cloneBacklogItem(*item)
	return nil
}

func (s *state) GetBacklogItem(_ context.Context, id string) (*domain.BacklogItem, error) {
	item, ok := s.backlog[id]
	if !ok {
		return nil, repository.ErrBacklogItemNotFound
	}
	out := cloneBacklogItem(item)
	return &out, nil
}

func (s *state) ListBacklogItemsBySprint(_ context.Context, sprintID string) ([]domain.BacklogItem, error) {
	out := make([]domain.BacklogItem, 0)
	for _, b := range s.backlog {
		if b.SprintID != nil && *b.SprintID == sprintID {
			out = append(out, cloneBacklogItem(b))
		}
	}
	sortBacklog(out)
	return out, nil
}

func (s *state) ListProductBacklog(_ context.Context, projectID string) ([]domain.BacklogItem, error) {
	out := make([]domain.BacklogItem, 0)
	for _, b := range s.backlog {
		if b.ProjectID == projectID && b.SprintID == nil && b.Status == domain.BacklogProduct {
			out = append(out, cloneBacklogItem(b))
		}
	}
	sortBacklog(out)
	return out, nil
}

func (s *state) UpdateBacklogItem(_ context.Context, item *domain.BacklogItem) error {
	if _, ok := s.backlog[item.ID]; !ok {
		return repository.ErrBacklogItemNotFound
	}
	if err := s.checkSprintRef(item.SprintID); err != nil {
		return err
	}
	s.backlog[item.ID] = cloneBacklogItem(*item)
	return nil
}

func (s *state) DeleteBacklogItem(_ context.Context, id string) error {
	if _, ok := s.backlog[id]; !ok {
		return repository.ErrBacklogItemNotFound
	}
	delete(s.backlog, id)
	return nil
}

func (s *state) CreatePendingCommit(_ context.Context, commit *domain.PendingCommit) error {
	if _, ok := s.shas[commit.SHA]; ok {
		return repository.ErrCommitExists
	}
	s.pending[commit.ID] = clonePending(*commit)
	s.shas[commit.SHA] = commit.ID
	return nil
}

func (s *state) GetPendingCommit(_ context.Context, id string) (*domain.PendingCommit, error) {
	c, ok := s.pending[id]
	if !ok {
		return nil, repository.ErrCommitNotFound
	}
	out := clonePending(c)
	return &out, nil
}

func (s *state) GetPendingCommitForUpdate(ctx context.Context, id string) (*domain.PendingCommit, error) {
	return s.GetPendingCommit(ctx, id)
}

func (s *state) CountPendingCommitsBySHA(_ context.Context, sha string) (int, error) {
	n := 0
	for _, c := range s.pending {
		if c.SHA == sha {
			n++
		}
	}
	return n, nil
}

func (s *state) ListPendingCommits(_ context.Context, projectID string, status domain.CommitStatus) ([]domain.PendingCommit, error) {
	out := make([]domain.PendingCommit, 0)
	for _, c := range s.pending {
		if c.ProjectID == projectID && c.Status == status {
			out = append(out, clonePending(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommittedAt.Before(out[j].CommittedAt) })
	return out, nil
}

func (s *state) TransitionCommit(_ context.Context, commit *domain.PendingCommit, from domain.CommitStatus) error {
	stored, ok := s.pending[commit.ID]
	if !ok {
		return repository.ErrCommitNotFound
	}
	if stored.Status != from {
		return repository.ErrStaleState
	}
	s.pending[commit.ID] = clonePending(*commit)
	return nil
}

func (s *state) CreateApprovedCommit(_ context.Context, commit *domain.ApprovedCommit) error {
	for _, a := range s.approved {
		if a.PendingCommitID == commit.PendingCommitID {
			return fmt.Errorf("commit %s already has an approval record", commit.PendingCommitID)
		}
	}
	c := *commit
	c.TaskID = clonePtr(c.TaskID)
	s.approved[c.ID] = c
	return nil
}

func (s *state) ListApprovedCommits(_ context.Context, projectID string, limit int) ([]domain.ApprovedCommit, error) {
	out := make([]domain.ApprovedCommit, 0)
	for _, a := range s.approved {
		if a.ProjectID == projectID {
			a.TaskID = clonePtr(a.TaskID)
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ApprovedAt.After(out[j].ApprovedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *state) CommitCountsBySprint(_ context.Context, sprintID string) (domain.CommitCounts, error) {
	var counts domain.CommitCounts
	for _, c := range s.pending {
		if c.TaskID == nil {
			continue
		}
		t, ok := s.tasks[*c.TaskID]
		if !ok || t.SprintID == nil || *t.SprintID != sprintID {
			continue
		}
		switch c.Status {
		case domain.CommitPendingReview:
			counts.Pending++
		case domain.CommitApproved:
			counts.Approved++
		case domain.CommitMerged:
			counts.Merged++
		case domain.CommitRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

func (s *state) checkSprintRef(sprintID *string) error {
	if sprintID == nil {
		return nil
	}
	if _, ok := s.sprints[*sprintID]; !ok {
		return fmt.Errorf("%w: %s", repository.ErrSprintNotFound, *sprintID)
	}
	return nil
}

func sortSprints(sprints []domain.Sprint) {
	sort.Slice(sprints, func(i, j int) bool {
		if sprints[i].StartDate.Equal(sprints[j].StartDate) {
			return sprints[i].ID < sprints[j].ID
		}
		return sprints[i].StartDate.Before(sprints[j].StartDate)
	})
}

func sortBacklog(items []domain.BacklogItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].PriorityScore() == items[j].PriorityScore() {
			return items[i].ID < items[j].ID
		}
		return items[i].PriorityScore() > items[j].PriorityScore()
	})
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSprint(s domain.Sprint) domain.Sprint {
	s.LastReminderDate = clonePtr(s.LastReminderDate)
	s.CompletedAt = clonePtr(s.CompletedAt)
	return s
}

func cloneTask(t domain.Task) domain.Task {
	t.SprintID = clonePtr(t.SprintID)
	t.StoryPoints = clonePtr(t.StoryPoints)
	t.CompletedAt = clonePtr(t.CompletedAt)
	if t.Decline != nil {
		d := *t.Decline
		t.Decline = &d
	}
	return t
}

func cloneBacklogItem(b domain.BacklogItem) domain.BacklogItem {
	b.SprintID = clonePtr(b.SprintID)
	return b
}

func clonePending(c domain.PendingCommit) domain.PendingCommit {
	c.TaskID = clonePtr(c.TaskID)
	c.ReviewerID = clonePtr(c.ReviewerID)
	c.ReviewedAt = clonePtr(c.ReviewedAt)
	c.RejectionReason = clonePtr(c.RejectionReason)
	c.MergedAt = clonePtr(c.MergedAt)
	return c
}
