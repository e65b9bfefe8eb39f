package service

import (
	"github.com/google/uuid"

	"accountapp/internal/core/domain"
)

// Authorize allows admins to act on any account and everyone else only on
// their own.
func Authorize(actor domain.Account, targetID uuid.UUID) error {
	if actor.IsAdmin || actor.ID == targetID {
		return nil
	}

	return domain.ErrForbidden
}
