package services

import (
	"github.com/google/uuid"

	"solarops-backend/apperrors"
)

// Actor is the authenticated employee performing a mutating call.
type Actor struct {
	ID    uuid.UUID `json:"id"`
	Roles []string  `json:"roles"`
}

func requireActor(a *Actor) error {
	if a == nil || a.ID == uuid.Nil {
		return apperrors.Unauthenticated("an authenticated actor is required")
	}
	return nil
}
