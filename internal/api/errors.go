package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"sprint-tracker/internal/domain"
)

const (
	CodeNotFound              = "NOT_FOUND"
	CodeInvalidTransition     = "INVALID_TRANSITION"
	CodeMissingReason         = "MISSING_REASON"
	CodeDuplicateCommit       = "DUPLICATE_COMMIT"
	CodeAlreadyReviewed       = "ALREADY_REVIEWED"
	CodeInvalidInput          = "INVALID_INPUT"
	CodeReconciliationFailure = "RECONCILIATION_FAILURE"
	CodeInternal              = "INTERNAL"
)

const ErrInternal = "internal error"

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func WriteApiError(w http.ResponseWriter, logger *zap.Logger, message string, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	e := apiError{}
	e.Error.Code = code
	e.Error.Message = message

	err := json.NewEncoder(w).Encode(e)
	if err != nil {
		logger.Error("WriteError: failed to encoding response", zap.Error(err))
	}
}

// WriteDomainError answers with the status and code of err's kind. Storage
// details stay out of the response body.
func WriteDomainError(w http.ResponseWriter, logger *zap.Logger, err error) {
	code, status := StatusOf(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = ErrInternal
	}

	WriteApiError(w, logger, message, code, status)
}

func StatusOf(err error) (string, int) {
	switch domain.Kind(err) {
	case domain.ErrNotFound:
		return CodeNotFound, http.StatusNotFound
	case domain.ErrInvalidTransition:
		return CodeInvalidTransition, http.StatusConflict
	case domain.ErrAlreadyReviewed:
		return CodeAlreadyReviewed, http.StatusConflict
	case domain.ErrDuplicateCommit:
		return CodeDuplicateCommit, http.StatusConflict
	case domain.ErrMissingReason:
		return CodeMissingReason, http.StatusBadRequest
	case domain.ErrInvalidInput:
		return CodeInvalidInput, http.StatusBadRequest
	case domain.ErrReconciliationFailure:
		return CodeReconciliationFailure, http.StatusInternalServerError
	default:
		return CodeInternal, http.StatusInternalServerError
	}
}
