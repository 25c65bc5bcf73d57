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

type createBacklogItemRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Priority       string `json:"priority"`
	PriorityRank   int    `json:"priority_rank"`
	StoryPoints    int    `json:"story_points"`
	BusinessValue  int    `json:"business_value"`
	EffortEstimate int    `json:"effort_estimate"`
	ProjectID      string `json:"project_id"`
}

func CreateBacklogItem(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		var req createBacklogItemRequest
		err := decodeBody(w, r, &req)
		if err != nil {
			writeBadBody(w, logger, "CreateBacklogItem", err)
			return
		}

		priority := domain.PriorityMedium
		if req.Priority != "" {
			priority, err = domain.ParsePriorityLevel(req.Priority)
			if err != nil {
				writeInvalid(w, logger, "CreateBacklogItem", err)
				return
			}
		}

		item, err := svc.CreateBacklogItem(ctx, domain.NewBacklogItemInput{
			Title:          req.Title,
			Description:    req.Description,
			Priority:       priority,
			PriorityRank:   req.PriorityRank,
			StoryPoints:    req.StoryPoints,
			BusinessValue:  req.BusinessValue,
			EffortEstimate: req.EffortEstimate,
			ProjectID:      req.ProjectID,
		})
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "CreateBacklogItem", http.StatusCreated, map[string]api.BacklogItem{"backlog_item": api.FromBacklogItem(*item)})
	}
}

func AssignBacklogItem(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		var req assignRequest
		err := decodeBody(w, r, &req)
		if err != nil {
			writeBadBody(w, logger, "AssignBacklogItem", err)
			return
		}

		item, err := svc.AssignBacklogItemToSprint(ctx, chi.URLParam(r, "itemID"), req.SprintID)
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "AssignBacklogItem", http.StatusOK, map[string]api.BacklogItem{"backlog_item": api.FromBacklogItem(*item)})
	}
}

func ListProductBacklog(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		items, err := svc.ListProductBacklog(ctx, chi.URLParam(r, "projectID"))
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		resp := make([]api.BacklogItem, 0, len(items))
		for _, item := range items {
			resp = append(resp, api.FromBacklogItem(item))
		}

		writeJSON(w, logger, "ListProductBacklog", http.StatusOK, map[string][]api.BacklogItem{"backlog": resp})
	}
}
