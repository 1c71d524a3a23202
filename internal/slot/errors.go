package slot

import (
	"errors"
	"strings"

	"miny/internal/api"
)

var (
	ErrSlotNotFound        = errors.New("slot not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrForbidden           = errors.New("slot belongs to another host")
	ErrVersionConflict     = errors.New("slot was modified concurrently")
	ErrInvalidInput        = errors.New("invalid slot input")
	ErrInvalidTime         = errors.New("invalid time range")

	// ErrConflict is returned by a conditional claim that matched no open individual slot.
	ErrConflict = errors.New("slot already claimed")
	// ErrCapacityExceeded is returned when a group slot has no free place left.
	ErrCapacityExceeded = errors.New("group is full")
	ErrNotGroupSlot     = errors.New("slot is not a group slot")
)

// InputError carries the per-field problems found while building an Input.
type InputError struct {
	Fields []api.FieldError
}

func (e *InputError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(fields ...api.FieldError) error {
	return &InputError{Fields: fields}
}

func fieldError(field, tag, msg string) api.FieldError {
	return api.FieldError{Field: field, Tag: tag, Message: msg}
}
