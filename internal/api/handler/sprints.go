package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sprint-tracker/internal/api"
	"sprint-tracker/internal/domain"
	"sprint-tracker/internal/service"
)

type createSprintRequest struct {
	Name      string `json:"name"`
	Goal      string `json:"goal"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	ProjectID string `json:"project_id"`
	CreatedBy string `json:"created_by"`
}

func CreateSprint(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		var req createSprintRequest
		err := decodeBody(w, r, &req)
		if err != nil {
			writeBadBody(w, logger, "CreateSprint", err)
			return
		}

		start, err := parseDate("start_date", req.StartDate)
		if err != nil {
			writeInvalid(w, logger, "CreateSprint", err)
			return
		}
		end, err := parseDate("end_date", req.EndDate)
		if err != nil {
			writeInvalid(w, logger, "CreateSprint", err)
			return
		}

		sprint, err := svc.CreateSprint(ctx, domain.NewSprintInput{
			Name:      req.Name,
			Goal:      req.Goal,
			StartDate: start,
			EndDate:   end,
			ProjectID: req.ProjectID,
			CreatedBy: req.CreatedBy,
		})
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "CreateSprint", http.StatusCreated, map[string]api.Sprint{"sprint": api.FromSprint(*sprint)})
		logger.Info("CreateSprint: successfully created sprint", zap.String("sprint_id", sprint.ID))
	}
}

func GetSprint(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		sprint, err := svc.GetSprint(ctx, chi.URLParam(r, "sprintID"))
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "GetSprint", http.StatusOK, map[string]api.Sprint{"sprint": api.FromSprint(*sprint)})
	}
}

func StartSprint(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		sprint, err := svc.StartSprint(ctx, chi.URLParam(r, "sprintID"))
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "StartSprint", http.StatusOK, map[string]api.Sprint{"sprint": api.FromSprint(*sprint)})
	}
}

type completeSprintRequest struct {
	RetrospectiveNotes string `json:"retrospective_notes"`
	Policy             string `json:"policy"`
}

func CompleteSprint(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		// The body is optional: an empty one completes with the default policy.
		var req completeSprintRequest
		err := decodeBody(w, r, &req)
		if err != nil && !errors.Is(err, errEmptyBody) {
			writeBadBody(w, logger, "CompleteSprint", err)
			return
		}

		sprint, err := svc.CompleteSprint(ctx, chi.URLParam(r, "sprintID"), req.RetrospectiveNotes, domain.DispositionPolicy(req.Policy))
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "CompleteSprint", http.StatusOK, map[string]api.Sprint{"sprint": api.FromSprint(*sprint)})
	}
}

func CancelSprint(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		sprint, err := svc.CancelSprint(ctx, chi.URLParam(r, "sprintID"))
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "CancelSprint", http.StatusOK, map[string]api.Sprint{"sprint": api.FromSprint(*sprint)})
	}
}

// DeleteSprint takes the disposition policy from the query string and falls
// back to MOVE_TO_BACKLOG.
func DeleteSprint(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		policy, err := parsePolicy(r)
		if err != nil {
			writeInvalid(w, logger, "DeleteSprint", err)
			return
		}
		if policy == "" {
			policy = domain.PolicyMoveToBacklog
		}

		err = svc.DeleteSprint(ctx, chi.URLParam(r, "sprintID"), policy)
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetSprintProgress(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		snapshot, err := svc.GetSprintProgress(ctx, chi.URLParam(r, "sprintID"))
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "GetSprintProgress", http.StatusOK, map[string]api.Progress{"progress": api.FromSnapshot(*snapshot)})
	}
}

func GetProjectVelocity(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		points, err := svc.GetProjectVelocity(ctx, chi.URLParam(r, "projectID"))
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		resp := make([]api.VelocityPoint, 0, len(points))
		for _, p := range points {
			resp = append(resp, api.FromVelocityPoint(p))
		}

		writeJSON(w, logger, "GetProjectVelocity", http.StatusOK, map[string][]api.VelocityPoint{"velocity": resp})
	}
}
