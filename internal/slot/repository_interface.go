package slot

import (
	"context"
	"time"
)

type Repository interface {
	GetSlotByID(ctx context.Context, id int) (*Slot, error)
	ListOpenSlots(ctx context.Context, ownerID int, filter ListFilter) ([]Slot, error)
	ListByOwner(ctx context.Context, ownerID int) ([]Slot, error)
	GetParticipants(ctx context.Context, slotID int) ([]Participant, error)
	GetParticipantByID(ctx context.Context, id int) (*Participant, error)

	ConditionalClaim(ctx context.Context, id int, name string) (*Slot, error)
	InsertParticipant(ctx context.Context, slotID int, name string) (*Participant, error)
	DeleteParticipant(ctx context.Context, id int) error
	ClearClaimant(ctx context.Context, slotID int) error

	CreateSlots(ctx context.Context, ownerID int, days []time.Time, in Input) ([]Slot, error)
	UpdateSlot(ctx context.Context, id, version int, day time.Time, in Input) (*Slot, error)
	DeleteSlot(ctx context.Context, id int) error
}
