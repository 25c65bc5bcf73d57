package server

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"sprint-tracker/internal/api/handler"
	"sprint-tracker/internal/logger"
	"sprint-tracker/internal/service"
)

type Config struct {
	Host            string        `env:"HTTP_HOST" env-required:"true"`
	Port            int           `env:"HTTP_PORT" env-required:"true"`
	Timeout         time.Duration `env:"HTTP_TIMEOUT" env-required:"true"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func NewRouter(svc *service.Service, log *zap.Logger, cfgLogger *logger.Config, srvTimeout time.Duration) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.MiddlewareLogger(log, cfgLogger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Route("/sprints", func(r chi.Router) {
		r.Post("/", handler.CreateSprint(svc, srvTimeout, log))
		r.Get("/{sprintID}", handler.GetSprint(svc, srvTimeout, log))
		r.Delete("/{sprintID}", handler.DeleteSprint(svc, srvTimeout, log))
		r.Post("/{sprintID}/start", handler.StartSprint(svc, srvTimeout, log))
		r.Post("/{sprintID}/complete", handler.CompleteSprint(svc, srvTimeout, log))
		r.Post("/{sprintID}/cancel", handler.CancelSprint(svc, srvTimeout, log))
		r.Get("/{sprintID}/progress", handler.GetSprintProgress(svc, srvTimeout, log))
	})

	router.Route("/tasks", func(r chi.Router) {
		r.Post("/", handler.CreateTask(svc, srvTimeout, log))
		r.Get("/{taskID}", handler.GetTask(svc, srvTimeout, log))
		r.Put("/{taskID}/sprint", handler.AssignTask(svc, srvTimeout, log))
		r.Put("/{taskID}/status", handler.UpdateTaskStatus(svc, srvTimeout, log))
	})

	router.Route("/backlog", func(r chi.Router) {
		r.Post("/", handler.CreateBacklogItem(svc, srvTimeout, log))
		r.Put("/{itemID}/sprint", handler.AssignBacklogItem(svc, srvTimeout, log))
	})

	router.Route("/commits", func(r chi.Router) {
		r.Post("/", handler.IngestCommit(svc, srvTimeout, log))
		r.Get("/{commitID}", handler.GetCommit(svc, srvTimeout, log))
		r.Post("/{commitID}/review", handler.ReviewCommit(svc, srvTimeout, log))
		r.Post("/{commitID}/merge", handler.MergeCommit(svc, srvTimeout, log))
	})

	router.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/backlog", handler.ListProductBacklog(svc, srvTimeout, log))
		r.Get("/velocity", handler.GetProjectVelocity(svc, srvTimeout, log))
		r.Get("/commits/pending", handler.ListPendingCommits(svc, srvTimeout, log))
		r.Get("/commits/approved", handler.ListApprovedCommits(svc, srvTimeout, log))
	})

	router.Post("/sweeps/daily", handler.RunDailySweep(svc, log))
	router.Post("/sweeps/reminders", handler.RunReminderSweep(svc, log))

	return router
}
