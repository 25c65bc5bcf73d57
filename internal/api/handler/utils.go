package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"sprint-tracker/internal/api"
	"sprint-tracker/internal/domain"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}

	return nil
}

// writeBadBody answers a request whose body could not be decoded.
func writeBadBody(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	logger.Warn(op+": failed to decode body", zap.Error(err))
	api.WriteApiError(w, logger, "failed to decode body", api.CodeInvalidInput, http.StatusBadRequest)
}

func writeInvalid(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	logger.Warn(op+": invalid request", zap.Error(err))
	api.WriteApiError(w, logger, err.Error(), api.CodeInvalidInput, http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, op string, statusCode int, resp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	err := json.NewEncoder(w).Encode(resp)
	if err != nil {
		logger.Error(op+": failed to encode response", zap.Error(err))
	}
}

func parseDate(field, value string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", domain.ErrInvalidInput, field)
	}
	return d, nil
}

// parsePolicy reads the optional policy query parameter. An empty value means
// the service default.
func parsePolicy(r *http.Request) (domain.DispositionPolicy, error) {
	policy := domain.DispositionPolicy(r.URL.Query().Get("policy"))
	if policy != "" && !policy.Valid() {
		return "", fmt.Errorf("%w: unknown policy %q", domain.ErrInvalidInput, policy)
	}
	return policy, nil
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidInput)
	}
	return limit, nil
}
