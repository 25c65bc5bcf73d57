package handler

import (
	"net/http"

	"go.uber.org/zap"

	"sprint-tracker/internal/api"
	"sprint-tracker/internal/service"
)

// RunDailySweep runs the lifecycle sweep on demand. The sweep outlives the
// request timeout because it walks every open sprint.
func RunDailySweep(svc *service.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := svc.RunDailySweep(r.Context())
		if err := result.Err(); err != nil {
			logger.Warn("RunDailySweep: sweep finished with failures", zap.Error(err))
		}

		writeJSON(w, logger, "RunDailySweep", http.StatusOK, map[string]api.SweepResult{"result": api.FromSweepResult(result)})
	}
}

func RunReminderSweep(svc *service.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := svc.RunReminderSweep(r.Context())
		if err := result.Err(); err != nil {
			logger.Warn("RunReminderSweep: sweep finished with failures", zap.Error(err))
		}

		writeJSON(w, logger, "RunReminderSweep", http.StatusOK, map[string]api.SweepResult{"result": api.FromSweepResult(result)})
	}
}
