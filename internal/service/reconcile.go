package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/repository"
)

type detachMode int

const (
	// detachUnfinished leaves finished work attached to the sprint so its
	// velocity history survives completion or cancellation.
	detachUnfinished detachMode = iota
	// detachAll clears every reference; the sprint is about to be removed.
	detachAll
)

// reconcile applies policy to the tasks and backlog items that reference
// sprint. It runs inside the caller's transaction, so a failure here also
// discards the sprint's own status change. DONE tasks are never moved back.
func (s *Service) reconcile(ctx context.Context, st repository.Store, sprint *domain.Sprint, policy domain.DispositionPolicy, mode detachMode) error {
	tasks, err := st.ListTasksBySprint(ctx, sprint.ID)
	if err != nil {
		return reconcileErr("list tasks", err)
	}

	for _, t := range tasks {
		err = s.reconcileTask(ctx, st, t.ID, policy, mode)
		if err != nil {
			return reconcileErr("task "+t.ID, err)
		}
	}

	items, err := st.ListBacklogItemsBySprint(ctx, sprint.ID)
	if err != nil {
		return reconcileErr("list backlog items", err)
	}

	for i := range items {
		item := &items[i]
		if !detachBacklogItem(item, policy, mode) {
			continue
		}
		item.UpdatedAt = s.now()

		err = st.UpdateBacklogItem(ctx, item)
		if err != nil {
			return reconcileErr("backlog item "+item.ID, err)
		}
	}

	s.logger.Debug("reconciled sprint",
		zap.String("sprint_id", sprint.ID),
		zap.String("policy", string(policy)),
		zap.Int("tasks", len(tasks)),
		zap.Int("backlog_items", len(items)),
	)
	return nil
}

func (s *Service) reconcileTask(ctx context.Context, st repository.Store, id string, policy domain.DispositionPolicy, mode detachMode) error {
	// Re-read under lock: a commit approval may have finished the task since
	// the sprint's task list was loaded.
	task, err := st.GetTaskForUpdate(ctx, id)
	if err != nil {
		return err
	}

	done := task.Status == domain.TaskDone
	if mode == detachUnfinished && done {
		return nil
	}

	if policy == domain.PolicyCascadeDelete {
		return st.DeleteTask(ctx, id)
	}

	task.SprintID = nil
	if policy == domain.PolicyMoveToBacklog && !done {
		task.Status = domain.TaskBacklog
	}
	task.UpdatedAt = s.now()

	return st.UpdateTask(ctx, task)
}

// detachBacklogItem mutates item per policy and reports whether it changed.
// Backlog items are archived rather than deleted, even under cascade.
func detachBacklogItem(item *domain.BacklogItem, policy domain.DispositionPolicy, mode detachMode) bool {
	finished := item.Status == domain.BacklogCompleted || item.Status == domain.BacklogArchived
	if mode == detachUnfinished && finished {
		return false
	}

	item.SprintID = nil
	switch {
	case policy == domain.PolicyCascadeDelete && !finished:
		item.Status = domain.BacklogArchived
	case policy == domain.PolicyMoveToBacklog && !finished:
		item.Status = domain.BacklogProduct
	}
	return true
}

func reconcileErr(step string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrReconciliationFailure, step, translate(err))
}
