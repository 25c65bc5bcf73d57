package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrNotFound              = errors.New("not found")
	ErrMissingReason         = errors.New("rejection reason is required")
	ErrDuplicateCommit       = errors.New("duplicate commit")
	ErrAlreadyReviewed       = errors.New("commit already reviewed")
	ErrReconciliationFailure = errors.New("reconciliation failure")
	ErrPersistenceFailure    = errors.New("persistence failure")
	ErrInvalidInput          = errors.New("invalid input")
)

// OpError attaches the operation and the entity it failed on to an error kind.
type OpError struct {
	Op       string
	Resource string
	ID       string
	Err      error
}

func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func SprintErr(op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Resource: "sprint", ID: id, Err: err}
}

func TaskErr(op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Resource: "task", ID: id, Err: err}
}

func BacklogErr(op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Resource: "backlog item", ID: id, Err: err}
}

func CommitErr(op, id string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Resource: "commit", ID: id, Err: err}
}

// Kind returns the taxonomy sentinel err belongs to, or nil if it carries none.
func Kind(err error) error {
	for _, kind := range []error{
		ErrReconciliationFailure,
		ErrAlreadyReviewed,
		ErrDuplicateCommit,
		ErrNotFound,
		ErrInvalidTransition,
		ErrMissingReason,
		ErrInvalidInput,
		ErrPersistenceFailure,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
