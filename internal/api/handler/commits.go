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

type ingestCommitRequest struct {
	AuthorID    string    `json:"author_id"`
	Message     string    `json:"message"`
	Branch      string    `json:"branch"`
	TaskID      *string   `json:"task_id"`
	CommittedAt time.Time `json:"committed_at"`
	URL         string    `json:"url"`
	SHA         string    `json:"sha"`
	ProjectID   string    `json:"project_id"`
}

func IngestCommit(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		var req ingestCommitRequest
		err := decodeBody(w, r, &req)
		if err != nil {
			writeBadBody(w, logger, "IngestCommit", err)
			return
		}

		commit, err := svc.IngestCommit(ctx, domain.CommitMetadata{
			AuthorID:    req.AuthorID,
			Message:     req.Message,
			Branch:      req.Branch,
			TaskID:      req.TaskID,
			CommittedAt: req.CommittedAt,
			URL:         req.URL,
			SHA:         req.SHA,
			ProjectID:   req.ProjectID,
		})
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "IngestCommit", http.StatusCreated, map[string]api.PendingCommit{"commit": api.FromPendingCommit(*commit)})
		logger.Info("IngestCommit: successfully queued commit", zap.String("commit_id", commit.ID), zap.String("sha", commit.SHA))
	}
}

func GetCommit(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		commit, err := svc.GetPendingCommit(ctx, chi.URLParam(r, "commitID"))
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "GetCommit", http.StatusOK, map[string]api.PendingCommit{"commit": api.FromPendingCommit(*commit)})
	}
}

type reviewCommitRequest struct {
	Decision   string `json:"decision"`
	ReviewerID string `json:"reviewer_id"`
	Reason     string `json:"reason"`
}

type reviewCommitResponse struct {
	Commit   api.PendingCommit   `json:"commit"`
	Approved *api.ApprovedCommit `json:"approved_commit,omitempty"`
}

func ReviewCommit(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		var req reviewCommitRequest
		err := decodeBody(w, r, &req)
		if err != nil {
			writeBadBody(w, logger, "ReviewCommit", err)
			return
		}

		result, err := svc.ReviewCommit(ctx, chi.URLParam(r, "commitID"), domain.ReviewDecision(req.Decision), req.ReviewerID, req.Reason)
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		resp := reviewCommitResponse{Commit: api.FromPendingCommit(*result.Commit)}
		if result.Approved != nil {
			approved := api.FromApprovedCommit(*result.Approved)
			resp.Approved = &approved
		}

		writeJSON(w, logger, "ReviewCommit", http.StatusOK, resp)
	}
}

func MergeCommit(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		commit, err := svc.MarkMerged(ctx, chi.URLParam(r, "commitID"))
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		writeJSON(w, logger, "MergeCommit", http.StatusOK, map[string]api.PendingCommit{"commit": api.FromPendingCommit(*commit)})
	}
}

func ListPendingCommits(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		commits, err := svc.ListPendingCommits(ctx, chi.URLParam(r, "projectID"))
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		resp := make([]api.PendingCommit, 0, len(commits))
		for _, c := range commits {
			resp = append(resp, api.FromPendingCommit(c))
		}

		writeJSON(w, logger, "ListPendingCommits", http.StatusOK, map[string][]api.PendingCommit{"commits": resp})
	}
}

func ListApprovedCommits(svc *service.Service, requestTimeout time.Duration, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		limit, err := parseLimit(r)
		if err != nil {
			writeInvalid(w, logger, "ListApprovedCommits", err)
			return
		}

		commits, err := svc.ListApprovedCommits(ctx, chi.URLParam(r, "projectID"), limit)
		if err != nil {
			api.WriteDomainError(w, logger, err)
			return
		}

		resp := make([]api.ApprovedCommit, 0, len(commits))
		for _, c := range commits {
			resp = append(resp, api.FromApprovedCommit(c))
		}

		writeJSON(w, logger, "ListApprovedCommits", http.StatusOK, map[string][]api.ApprovedCommit{"commits": resp})
	}
}
