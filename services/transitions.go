package services

import (
	"fmt"

	"solarops-backend/apperrors"
	"solarops-backend/models"
)

// allowedTransitions is the job state machine:
// Created -> Assigned -> In Progress <-> On Hold -> Completed | Cancelled.
// A job on hold can be closed as completed when the remaining work was done
// during the hold.
var allowedTransitions = map[string][]string{
	models.JobStatusCreated:    {models.JobStatusAssigned, models.JobStatusInProgress, models.JobStatusOnHold, models.JobStatusCancelled},
	models.JobStatusAssigned:   {models.JobStatusInProgress, models.JobStatusOnHold, models.JobStatusCancelled},
	models.JobStatusInProgress: {models.JobStatusOnHold, models.JobStatusCompleted, models.JobStatusCancelled},
	models.JobStatusOnHold:     {models.JobStatusInProgress, models.JobStatusAssigned, models.JobStatusCompleted, models.JobStatusCancelled},
	models.JobStatusCompleted:  {},
	models.JobStatusCancelled:  {},
}

// IsKnownStatus reports whether status is a job status.
func IsKnownStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return ok
}

// IsTerminalStatus reports whether no transition leaves status.
func IsTerminalStatus(status string) bool {
	next, ok := allowedTransitions[status]
	return ok && len(next) == 0
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to string) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a classified error for an illegal move.
func ValidateTransition(from, to string) error {
	if !IsKnownStatus(to) {
		return apperrors.Validation(fmt.Sprintf("unknown status %q", to),
			apperrors.FieldError{Field: "status", Message: "is not a job status"})
	}
	if !CanTransition(from, to) {
		return apperrors.Validation(fmt.Sprintf("cannot move job from %q to %q", from, to),
			apperrors.FieldError{Field: "status", Message: fmt.Sprintf("not allowed from %s", from)}).
			WithContext("current_status", from)
	}
	return nil
}
