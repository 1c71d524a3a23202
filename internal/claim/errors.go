package claim

import (
	"errors"

	"miny/internal/slot"
)

var (
	ErrInvalidName    = errors.New("claimant name must be 1 to 100 printable characters")
	ErrAlreadyClaimed = errors.New("slot already claimed")
	ErrGroupFull      = errors.New("group is full")
	ErrInfrastructure = errors.New("storage unavailable")
	ErrHostNotFound   = errors.New("host not found")

	// Shared with the slot package so host handlers map them the same way.
	ErrSlotNotFound        = slot.ErrSlotNotFound
	ErrParticipantNotFound = slot.ErrParticipantNotFound
	ErrForbidden           = slot.ErrForbidden
)
