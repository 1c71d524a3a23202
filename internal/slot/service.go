package slot

import (
	"context"
	"errors"
	"fmt"

	"miny/internal/auth"
	"miny/internal/logger"
	"miny/internal/metrics"
)

// Service manages a host's own slots. Claims and releases live in the claim package.
type Service interface {
	Create(ctx context.Context, caller auth.Caller, req CreateSlotsRequest) ([]Slot, error)
	ListMine(ctx context.Context, caller auth.Caller) ([]Slot, error)
	Get(ctx context.Context, caller auth.Caller, id int) (*Slot, error)
	Update(ctx context.Context, caller auth.Caller, id int, req UpdateSlotRequest) (*Slot, error)
	Delete(ctx context.Context, caller auth.Caller, id int) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, caller auth.Caller, req CreateSlotsRequest) ([]Slot, error) {
	days, in, err := req.ToInput()
	if err != nil {
		return nil, err
	}

	slots, err := s.repo.CreateSlots(ctx, caller.UserID, days, in)
	if err != nil {
		return nil, fmt.Errorf("create slots: %w", err)
	}

	metrics.RecordSlotsCreated(len(slots))
	logger.Info("slots created", "owner_id", caller.UserID, "count", len(slots), "kind", in.Kind)

	return slots, nil
}

func (s *service) ListMine(ctx context.Context, caller auth.Caller) ([]Slot, error) {
	slots, err := s.repo.ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

func (s *service) Get(ctx context.Context, caller auth.Caller, id int) (*Slot, error) {
	slot, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if slot.Kind == KindGroup {
		participants, err := s.repo.GetParticipants(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get participants: %w", err)
		}
		slot.Participants = participants
	}

	return slot, nil
}

func (s *service) Update(ctx context.Context, caller auth.Caller, id int, req UpdateSlotRequest) (*Slot, error) {
	day, in, err := req.ToInput()
	if err != nil {
		return nil, err
	}

	current, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if current.Version != req.Version {
		return nil, ErrVersionConflict
	}

	// Claims are released only through remove-partner. A claim after this read bumps the version.
	if current.Kind == KindIndividual && current.PartnerName != nil && in.Kind == KindGroup {
		return nil, invalid(fieldError("is_group", "claimed", "remove the partner before turning a claimed slot into a group slot"))
	}

	if current.Kind == KindGroup && current.ParticipantCount > 0 {
		switch {
		case in.Kind != KindGroup:
			return nil, invalid(fieldError("is_group", "participants", "a group slot with participants cannot become an individual slot"))
		case in.MaxParticipants < current.ParticipantCount:
			return nil, invalid(fieldError("max_participants", "participants",
				fmt.Sprintf("max_participants must be at least the %d current participants", current.ParticipantCount)))
		}
	}

	updated, err := s.repo.UpdateSlot(ctx, id, req.Version, day, in)
	if err != nil {
		if errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("update slot: %w", err)
	}

	logger.Info("slot updated", "slot_id", id, "owner_id", caller.UserID, "version", updated.Version)

	return updated, nil
}

func (s *service) Delete(ctx context.Context, caller auth.Caller, id int) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}

	if err := s.repo.DeleteSlot(ctx, id); err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return err
		}
		return fmt.Errorf("delete slot: %w", err)
	}

	logger.Info("slot deleted", "slot_id", id, "owner_id", caller.UserID)

	return nil
}

func (s *service) owned(ctx context.Context, caller auth.Caller, id int) (*Slot, error) {
	slot, err := s.repo.GetSlotByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if !caller.Owns(slot.OwnerID) {
		return nil, ErrForbidden
	}
	return slot, nil
}
