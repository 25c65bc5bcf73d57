package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/progress"
)

func TestAssignTaskToSprint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	active := f.sprint(t, domain.SprintActive, -2, 12)
	task := f.task(t, "", domain.TaskBacklog)

	got, err := f.svc.AssignTaskToSprint(ctx, task.ID, active.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SprintID)
	assert.Equal(t, active.ID, *got.SprintID)
	assert.Equal(t, domain.TaskTodo, got.Status)

	for _, status := range []domain.SprintStatus{domain.SprintCancelled, domain.SprintCompleted} {
		closed := f.sprint(t, status, -20, -6)
		_, err = f.svc.AssignTaskToSprint(ctx, task.ID, closed.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, status)
	}
	assert.Equal(t, active.ID, *f.getTask(t, task.ID).SprintID)

	_, err = f.svc.AssignTaskToSprint(ctx, "missing", active.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssignTaskToSprintOfOtherProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.sprint(t, domain.SprintUpcoming, 1, 14)

	task, err := f.svc.CreateTask(ctx, domain.NewTaskInput{Title: "elsewhere", ProjectID: "other"})
	require.NoError(t, err)

	_, err = f.svc.AssignTaskToSprint(ctx, task.ID, s.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateTaskStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.task(t, "", domain.TaskTodo)

	got, err := f.svc.UpdateTaskStatus(ctx, task.ID, domain.TaskDone)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskDone, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, now, *got.CompletedAt)

	got, err = f.svc.UpdateTaskStatus(ctx, task.ID, domain.TaskInProgress)
	require.NoError(t, err)
	assert.Nil(t, got.CompletedAt)

	_, err = f.svc.UpdateTaskStatus(ctx, task.ID, "SHIPPED")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBacklogPlanning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	create := func(title string, level domain.PriorityLevel, rank int) *domain.BacklogItem {
		item, err := f.svc.CreateBacklogItem(ctx, domain.NewBacklogItemInput{
			Title:        title,
			ProjectID:    "proj",
			Priority:     level,
			PriorityRank: rank,
		})
		require.NoError(t, err)
		return item
	}
	low := create("low", domain.PriorityLow, 999)
	critical := create("critical", domain.PriorityCritical, 0)
	high := create("high", domain.PriorityHigh, 5)

	_, err := f.svc.CreateBacklogItem(ctx, domain.NewBacklogItemInput{Title: "bad", ProjectID: "proj", PriorityRank: 1000})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	items, err := f.svc.ListProductBacklog(ctx, "proj")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{critical.ID, high.ID, low.ID}, []string{items[0].ID, items[1].ID, items[2].ID})

	s := f.sprint(t, domain.SprintUpcoming, 1, 14)
	assigned, err := f.svc.AssignBacklogItemToSprint(ctx, high.ID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BacklogSprint, assigned.Status)

	items, err = f.svc.ListProductBacklog(ctx, "proj")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestGetSprintProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.sprint(t, domain.SprintActive, -5, 5)
	for i := 0; i < 10; i++ {
		status := domain.TaskTodo
		if i < 4 {
			status = domain.TaskDone
		}
		f.task(t, s.ID, status)
	}

	snap, err := f.svc.GetSprintProgress(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, snap.CompletionPercentage)
	assert.Equal(t, 5, snap.ElapsedDays)
	assert.Equal(t, 10, snap.TotalDays)
	assert.True(t, snap.IsAtRisk)
	assert.Equal(t, progress.HealthAtRisk, snap.Health)
	assert.Equal(t, 30, snap.PlannedPoints)
	assert.Equal(t, 12, snap.CompletedPoints)

	_, err = f.svc.GetSprintProgress(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetProjectVelocity(t *testing.T) {
	f := newFixture(t)
	f.allowNotifications()
	ctx := context.Background()

	first := f.sprint(t, domain.SprintActive, -30, -17)
	f.task(t, first.ID, domain.TaskDone)
	f.task(t, first.ID, domain.TaskTodo)
	second := f.sprint(t, domain.SprintActive, -16, -3)
	f.task(t, second.ID, domain.TaskDone)
	f.task(t, second.ID, domain.TaskDone)
	f.sprint(t, domain.SprintActive, -2, 11)

	result := f.svc.RunDailySweep(ctx)
	require.NoError(t, result.Err())

	trend, err := f.svc.GetProjectVelocity(ctx, "proj")
	require.NoError(t, err)
	require.Len(t, trend, 2)
	assert.Equal(t, first.ID, trend[0].SprintID)
	assert.Equal(t, 3, trend[0].CompletedPoints)
	assert.Equal(t, second.ID, trend[1].SprintID)
	assert.Equal(t, 6, trend[1].CompletedPoints)
}
