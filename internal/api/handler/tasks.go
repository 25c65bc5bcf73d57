package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sprint-tracker/internal/api"
	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/service"
)

type createTaskRequest struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	AssigneeID  string `json:"assignee_id"`
	StoryPoints *int   `json:"story_points"`
	ProjectID   string `json:"project_id"`
}

func CreateTask(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		var req createTaskRequest
		err := decodeBody(w, r, &req)
		if err != nil {
			writeBadBody(w, logger, "CreateTask", err)
			return
		}

		task, err := svc.CreateTask(ctx, domain.NewTaskInput{
			Code:        req.Code,
			Title:       req.Title,
			AssigneeID:  req.AssigneeID,
			StoryPoints: req.StoryPoints,
			ProjectID:   req.ProjectID,
		})
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "CreateTask", http.StatusCreated, map[string]api.Task{"task": api.FromTask(*task)})
	}
}

func GetTask(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		task, err := svc.GetTask(ctx, chi.URLParam(r, "taskID"))
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "GetTask", http.StatusOK, map[string]api.Task{"task": api.FromTask(*task)})
	}
}

type assignRequest struct {
	SprintID string `json:"sprint_id"`
}

func AssignTask(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		var req assignRequest
		err := decodeBody(w, r, &req)
		if err != nil {
			writeBadBody(w, logger, "AssignTask", err)
			return
		}

		task, err := svc.AssignTaskToSprint(ctx, chi.URLParam(r, "taskID"), req.SprintID)
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "AssignTask", http.StatusOK, map[string]api.Task{"task": api.FromTask(*task)})
	}
}

type updateTaskStatusRequest struct {
	Status string `json:"status"`
}

func UpdateTaskStatus(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		var req updateTaskStatusRequest
		err := decodeBody(w, r, &req)
		if err != nil {
			writeBadBody(w, logger, "UpdateTaskStatus", err)
			return
		}

		task, err := svc.UpdateTaskStatus(ctx, chi.URLParam(r, "taskID"), domain.TaskStatus(req.Status))
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "UpdateTaskStatus", http.StatusOK, map[string]api.Task{"task": api.FromTask(*task)})
	}
}
