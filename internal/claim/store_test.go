package claim

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"miny/internal/slot"
)

// memStore is a slot.Repository whose claim primitives are atomic under one mutex,
// the same guarantee the postgres repository gets from conditional updates.
type memStore struct {
	mu           sync.Mutex
	slots        map[int]*slot.Slot
	participants map[int]*slot.Participant
	nextID       int
	writes       int
}

func newMemStore(slots ...slot.Slot) *memStore {
	s := &memStore{
		slots:        make(map[int]*slot.Slot),
		participants: make(map[int]*slot.Participant),
		nextID:       1,
	}
	for i := range slots {
		sl := slots[i]
		s.slots[sl.ID] = &sl
	}
	return s
}

func (s *memStore) countParticipants(slotID int) int {
	n := 0
	for _, p := range s.participants {
		if p.SlotID == slotID {
			n++
		}
	}
	return n
}

func (s *memStore) snapshot(sl *slot.Slot) *slot.Slot {
	cp := *sl
	cp.ParticipantCount = s.countParticipants(sl.ID)
	return &cp
}

func (s *memStore) GetSlotByID(ctx context.Context, id int) (*slot.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[id]
	if !ok {
		return nil, slot.ErrSlotNotFound
	}
	return s.snapshot(sl), nil
}

func (s *memStore) ListOpenSlots(ctx context.Context, ownerID int, filter slot.ListFilter) ([]slot.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []slot.Slot
	for _, sl := range s.slots {
		snap := s.snapshot(sl)
		if snap.OwnerID != ownerID || !snap.IsOpen() || snap.Day.Before(filter.From) {
			continue
		}
		if filter.OnlyRemote && !snap.IsRemote {
			continue
		}
		out = append(out, *snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ListByOwner(ctx context.Context, ownerID int) ([]slot.Slot, error) {
	return s.ListOpenSlots(ctx, ownerID, slot.ListFilter{})
}

func (s *memStore) GetParticipants(ctx context.Context, slotID int) ([]slot.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []slot.Participant
	for _, p := range s.participants {
		if p.SlotID == slotID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) GetParticipantByID(ctx context.Context, id int) (*slot.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[id]
	if !ok {
		return nil, slot.ErrParticipantNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) ConditionalClaim(ctx context.Context, id int, name string) (*slot.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[id]
	if !ok || sl.Kind != slot.KindIndividual || sl.PartnerName != nil {
		return nil, slot.ErrConflict
	}
	sl.PartnerName = &name
	sl.Version++
	s.writes++
	return s.snapshot(sl), nil
}

func (s *memStore) InsertParticipant(ctx context.Context, slotID int, name string) (*slot.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[slotID]
	switch {
	case !ok:
		return nil, slot.ErrSlotNotFound
	case sl.Kind != slot.KindGroup:
		return nil, slot.ErrNotGroupSlot
	case s.countParticipants(slotID) >= *sl.MaxParticipants:
		return nil, slot.ErrCapacityExceeded
	}

	p := &slot.Participant{ID: s.nextID, SlotID: slotID, Name: name, CreatedAt: time.Now()}
	s.nextID++
	s.participants[p.ID] = p
	s.writes++
	cp := *p
	return &cp, nil
}

func (s *memStore) DeleteParticipant(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[id]; !ok {
		return slot.ErrParticipantNotFound
	}
	delete(s.participants, id)
	s.writes++
	return nil
}

func (s *memStore) ClearClaimant(ctx context.Context, slotID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.slots[slotID]
	if !ok || sl.Kind != slot.KindIndividual {
		return slot.ErrSlotNotFound
	}
	sl.PartnerName = nil
	sl.Version++
	s.writes++
	return nil
}

func (s *memStore) CreateSlots(ctx context.Context, ownerID int, days []time.Time, in slot.Input) ([]slot.Slot, error) {
	return nil, errors.New("memStore: CreateSlots not supported")
}

func (s *memStore) UpdateSlot(ctx context.Context, id, version int, day time.Time, in slot.Input) (*slot.Slot, error) {
	return nil, errors.New("memStore: UpdateSlot not supported")
}

func (s *memStore) DeleteSlot(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[id]; !ok {
		return slot.ErrSlotNotFound
	}
	delete(s.slots, id)
	s.writes++
	return nil
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
