package claim

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"miny/internal/api"
	"miny/internal/auth"
	"miny/internal/events"
	"miny/internal/logger"
	"miny/internal/metrics"
	"miny/internal/slot"
	"miny/internal/user"
)

// Notifier tells a host about a new claim.
type Notifier interface {
	SendAssignmentNotice(ctx context.Context, hostEmail, hostName, claimantName string, s *slot.Slot) error
}

// HostDirectory resolves hosts for notifications and public pages.
type HostDirectory interface {
	FindByID(ctx context.Context, id int) (*user.User, error)
	FindBySlug(ctx context.Context, slug string) (*user.User, error)
}

// ConfirmedSlot is the result of a successful claim. Participant is set for group slots only.
type ConfirmedSlot struct {
	Slot         *slot.Slot
	Participant  *slot.Participant
	ClaimantName string
}

type PageQuery struct {
	OnlyRemote bool
	AssignedID int
}

// HostPage is everything a visitor needs to pick a slot of one host.
type HostPage struct {
	Host             user.PublicProfile `json:"host"`
	Slots            []slot.PublicSlot  `json:"slots"`
	OnlyRemote       bool               `json:"only_remote"`
	ShowRemoteFilter bool               `json:"show_remote_filter"`
	AssignedSlot     *slot.PublicSlot   `json:"assigned_slot,omitempty"`
}

type Service interface {
	Claim(ctx context.Context, slotID int, claimantName string) (*ConfirmedSlot, error)
	ClaimOnPage(ctx context.Context, hostSlug string, slotID int, claimantName string) (*ConfirmedSlot, error)
	RemovePartner(ctx context.Context, caller auth.Caller, slotID int) error
	RemoveParticipant(ctx context.Context, caller auth.Caller, slotID, participantID int) error
	Page(ctx context.Context, hostSlug string, q PageQuery) (*HostPage, error)
}

type service struct {
	slots     slot.Repository
	hosts     HostDirectory
	notifier  Notifier
	publisher events.Publisher
	now       func() time.Time
}

func NewService(slots slot.Repository, hosts HostDirectory, notifier Notifier, publisher events.Publisher) Service {
	return &service{
		slots:     slots,
		hosts:     hosts,
		notifier:  notifier,
		publisher: publisher,
		now:       time.Now,
	}
}

// Claim takes one unit of capacity of the slot for claimantName. No retries happen here:
// a lost race surfaces as ErrAlreadyClaimed or ErrGroupFull.
func (s *service) Claim(ctx context.Context, slotID int, claimantName string) (*ConfirmedSlot, error) {
	return s.claim(ctx, slotID, claimantName, 0)
}

// ClaimOnPage claims a slot through a host's public page. Slots of other hosts and
// slots before today are not found, matching what the page lists.
func (s *service) ClaimOnPage(ctx context.Context, hostSlug string, slotID int, claimantName string) (*ConfirmedSlot, error) {
	if _, err := normalizeName(claimantName); err != nil {
		return nil, err
	}

	host, err := s.findHost(ctx, hostSlug)
	if err != nil {
		return nil, err
	}
	return s.claim(ctx, slotID, claimantName, host.ID)
}

func (s *service) claim(ctx context.Context, slotID int, claimantName string, hostID int) (*ConfirmedSlot, error) {
	name, err := normalizeName(claimantName)
	if err != nil {
		metrics.RecordClaim("unknown", "invalid")
		return nil, err
	}

	current, err := s.getSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if hostID != 0 && (current.OwnerID != hostID || current.Day.Before(s.today())) {
		return nil, ErrSlotNotFound
	}

	var confirmed *ConfirmedSlot
	switch current.Kind {
	case slot.KindGroup:
		confirmed, err = s.joinGroup(ctx, current, name)
	default:
		confirmed, err = s.takeIndividual(ctx, current, name)
	}
	if err != nil {
		metrics.RecordClaim(string(current.Kind), claimResult(err))
		return nil, err
	}

	metrics.RecordClaim(string(current.Kind), "success")
	logger.Info("slot claimed", "slot_id", slotID, "kind", current.Kind, "owner_id", current.OwnerID)

	after := context.WithoutCancel(ctx)
	s.notify(after, confirmed)
	s.publish(after, events.TypeSlotClaimed, confirmed.Slot, name)

	return confirmed, nil
}

func (s *service) takeIndividual(ctx context.Context, current *slot.Slot, name string) (*ConfirmedSlot, error) {
	updated, err := s.slots.ConditionalClaim(ctx, current.ID, name)
	switch {
	case err == nil:
		return &ConfirmedSlot{Slot: updated, ClaimantName: name}, nil
	case errors.Is(err, slot.ErrConflict):
		// The conditional update also misses a slot deleted after the read.
		if _, getErr := s.getSlot(ctx, current.ID); errors.Is(getErr, ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, ErrAlreadyClaimed
	default:
		return nil, fmt.Errorf("%w: claim slot: %w", ErrInfrastructure, err)
	}
}

func (s *service) joinGroup(ctx context.Context, current *slot.Slot, name string) (*ConfirmedSlot, error) {
	p, err := s.slots.InsertParticipant(ctx, current.ID, name)
	switch {
	case err == nil:
		joined := *current
		joined.ParticipantCount++
		return &ConfirmedSlot{Slot: &joined, Participant: p, ClaimantName: name}, nil
	case errors.Is(err, slot.ErrCapacityExceeded):
		return nil, ErrGroupFull
	case errors.Is(err, slot.ErrSlotNotFound):
		return nil, ErrSlotNotFound
	case errors.Is(err, slot.ErrNotGroupSlot):
		return nil, ErrAlreadyClaimed
	default:
		return nil, fmt.Errorf("%w: join group: %w", ErrInfrastructure, err)
	}
}

// RemovePartner reopens an individual slot of the caller.
func (s *service) RemovePartner(ctx context.Context, caller auth.Caller, slotID int) error {
	current, err := s.getSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if !caller.Owns(current.OwnerID) {
		return ErrForbidden
	}
	if current.Kind != slot.KindIndividual {
		return &slot.InputError{Fields: []api.FieldError{{
			Field: "action", Tag: "kind", Message: "remove-partner only applies to individual slots",
		}}}
	}
	if current.PartnerName == nil {
		return nil
	}

	if err := s.slots.ClearClaimant(ctx, slotID); err != nil {
		if errors.Is(err, slot.ErrSlotNotFound) {
			return ErrSlotNotFound
		}
		return fmt.Errorf("%w: clear claimant: %w", ErrInfrastructure, err)
	}

	metrics.RecordCapacityReleased(string(slot.KindIndividual))
	logger.Info("partner removed", "slot_id", slotID, "owner_id", caller.UserID)
	s.publish(context.WithoutCancel(ctx), events.TypeSlotReleased, current, *current.PartnerName)

	return nil
}

// RemoveParticipant frees one place of a group slot of the caller. A participant of
// another slot is reported as not found.
func (s *service) RemoveParticipant(ctx context.Context, caller auth.Caller, slotID, participantID int) error {
	p, err := s.slots.GetParticipantByID(ctx, participantID)
	if err != nil {
		if errors.Is(err, slot.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("%w: get participant: %w", ErrInfrastructure, err)
	}
	if p.SlotID != slotID {
		return ErrParticipantNotFound
	}

	current, err := s.getSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if !caller.Owns(current.OwnerID) {
		return ErrForbidden
	}

	if err := s.slots.DeleteParticipant(ctx, participantID); err != nil {
		if errors.Is(err, slot.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return fmt.Errorf("%w: delete participant: %w", ErrInfrastructure, err)
	}

	metrics.RecordCapacityReleased(string(slot.KindGroup))
	logger.Info("participant removed", "slot_id", p.SlotID, "participant_id", participantID)
	s.publish(context.WithoutCancel(ctx), events.TypeSlotReleased, current, p.Name)

	return nil
}

func (s *service) Page(ctx context.Context, hostSlug string, q PageQuery) (*HostPage, error) {
	host, err := s.findHost(ctx, hostSlug)
	if err != nil {
		return nil, err
	}

	open, err := s.slots.ListOpenSlots(ctx, host.ID, slot.ListFilter{OnlyRemote: q.OnlyRemote, From: s.today()})
	if err != nil {
		return nil, fmt.Errorf("%w: list open slots: %w", ErrInfrastructure, err)
	}

	page := &HostPage{
		Host:       host.PublicProfile(),
		Slots:      make([]slot.PublicSlot, 0, len(open)),
		OnlyRemote: q.OnlyRemote,
	}
	for i := range open {
		page.Slots = append(page.Slots, open[i].Public())
		if open[i].IsRemote {
			page.ShowRemoteFilter = true
		}
	}

	if q.AssignedID > 0 {
		assigned, err := s.slots.GetSlotByID(ctx, q.AssignedID)
		switch {
		case err == nil && assigned.OwnerID == host.ID:
			view := assigned.Public()
			page.AssignedSlot = &view
		case err != nil && !errors.Is(err, slot.ErrSlotNotFound):
			logger.WithError(err).Warn("assigned slot lookup failed", "slot_id", q.AssignedID)
		}
	}

	return page, nil
}

func (s *service) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *service) findHost(ctx context.Context, hostSlug string) (*user.User, error) {
	host, err := s.hosts.FindBySlug(ctx, hostSlug)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrHostNotFound
		}
		return nil, fmt.Errorf("%w: find host: %w", ErrInfrastructure, err)
	}
	return host, nil
}

func (s *service) getSlot(ctx context.Context, id int) (*slot.Slot, error) {
	current, err := s.slots.GetSlotByID(ctx, id)
	if err != nil {
		if errors.Is(err, slot.ErrSlotNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("%w: get slot: %w", ErrInfrastructure, err)
	}
	return current, nil
}

func (s *service) notify(ctx context.Context, confirmed *ConfirmedSlot) {
	if s.notifier == nil {
		return
	}

	host, err := s.hosts.FindByID(ctx, confirmed.Slot.OwnerID)
	if err != nil {
		metrics.RecordEmail("assignment", "skipped")
		logger.WithError(err).Warn("assignment notice skipped, host lookup failed", "slot_id", confirmed.Slot.ID)
		return
	}

	if err := s.notifier.SendAssignmentNotice(ctx, host.Email, host.Name, confirmed.ClaimantName, confirmed.Slot); err != nil {
		logger.WithError(err).Warn("assignment notice failed", "slot_id", confirmed.Slot.ID)
	}
}

func (s *service) publish(ctx context.Context, eventType string, sl *slot.Slot, claimant string) {
	if s.publisher == nil {
		return
	}

	event := events.NewSlotEvent(eventType, sl.ID, sl.OwnerID, claimant)
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.WithError(err).Warn("slot event not published", "slot_id", sl.ID, "type", eventType)
	}
}

// normalizeName trims the name and rejects control characters; it ends up in mail headers.
func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || utf8.RuneCountInString(name) > slot.MaxNameLength {
		return "", ErrInvalidName
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return "", ErrInvalidName
	}
	return name, nil
}

func claimResult(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyClaimed):
		return "already_claimed"
	case errors.Is(err, ErrGroupFull):
		return "group_full"
	case errors.Is(err, ErrSlotNotFound):
		return "not_found"
	default:
		return "error"
	}
}
