package claim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"miny/internal/auth"
	"miny/internal/events"
	"miny/internal/logger"
	"miny/internal/slot"
	"miny/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

type MockHosts struct{ mock.Mock }

func (m *MockHosts) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockHosts) FindBySlug(ctx context.Context, slug string) (*user.User, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) SendAssignmentNotice(ctx context.Context, hostEmail, hostName, claimantName string, s *slot.Slot) error {
	return m.Called(ctx, hostEmail, hostName, claimantName, s).Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, event events.SlotEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

// brokenStore fails every read like an unreachable database.
type brokenStore struct{ *memStore }

func (brokenStore) GetSlotByID(ctx context.Context, id int) (*slot.Slot, error) {
	return nil, errors.New("connection refused")
}

var (
	anna   = &user.User{ID: 1, Name: "Anna", Email: "anna@example.com", Slug: "anna"}
	owner  = auth.Caller{UserID: 1, Email: "anna@example.com", Role: auth.RoleHost}
	day    = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	nine   = "09:00"
	eleven = "11:00"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func individualSlot(id int) slot.Slot {
	return slot.Slot{ID: id, OwnerID: 1, Day: day, StartTime: &nine, EndTime: &eleven, Kind: slot.KindIndividual, Version: 1}
}

func groupSlot(id, max int) slot.Slot {
	return slot.Slot{ID: id, OwnerID: 1, Day: day, StartTime: &nine, Kind: slot.KindGroup, MaxParticipants: intPtr(max), Version: 1}
}

func newQuietService(store slot.Repository) *service {
	return NewService(store, nil, nil, nil).(*service)
}

func TestClaim_IndividualNotifiesAndPublishes(t *testing.T) {
	store := newMemStore(individualSlot(7))
	hosts := new(MockHosts)
	notifier := new(MockNotifier)
	publisher := new(MockPublisher)

	hosts.On("FindByID", mock.Anything, 1).Return(anna, nil)
	notifier.On("SendAssignmentNotice", mock.Anything, "anna@example.com", "Anna", "Ben",
		mock.MatchedBy(func(s *slot.Slot) bool { return s.ID == 7 })).Return(nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.SlotEvent) bool {
		return e.Type == events.TypeSlotClaimed && e.SlotID == 7 && e.OwnerID == 1 && e.Claimant == "Ben"
	})).Return(nil)

	svc := NewService(store, hosts, notifier, publisher)

	confirmed, err := svc.Claim(context.Background(), 7, "  Ben  ")
	require.NoError(t, err)
	assert.Equal(t, "Ben", confirmed.ClaimantName)
	require.NotNil(t, confirmed.Slot.PartnerName)
	assert.Equal(t, "Ben", *confirmed.Slot.PartnerName)
	assert.Nil(t, confirmed.Participant)

	hosts.AssertExpectations(t)
	notifier.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestClaim_NotificationFailureKeepsClaim(t *testing.T) {
	store := newMemStore(individualSlot(7))
	hosts := new(MockHosts)
	notifier := new(MockNotifier)

	hosts.On("FindByID", mock.Anything, 1).Return(anna, nil)
	notifier.On("SendAssignmentNotice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("redis down"))

	svc := NewService(store, hosts, notifier, events.NopPublisher{})

	_, err := svc.Claim(context.Background(), 7, "Ben")
	require.NoError(t, err)

	stored, _ := store.GetSlotByID(context.Background(), 7)
	assert.Equal(t, "Ben", *stored.PartnerName)
}

func TestClaim_HostLookupFailureSkipsNotice(t *testing.T) {
	store := newMemStore(individualSlot(7))
	hosts := new(MockHosts)
	notifier := new(MockNotifier)

	hosts.On("FindByID", mock.Anything, 1).Return(nil, errors.New("timeout"))

	svc := NewService(store, hosts, notifier, nil)

	_, err := svc.Claim(context.Background(), 7, "Ben")
	require.NoError(t, err)
	notifier.AssertNotCalled(t, "SendAssignmentNotice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestClaim_InvalidNameTouchesNothing(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   \t "},
		{"too long", strings.Repeat("ä", slot.MaxNameLength+1)},
		{"header injection", "Ben\r\nBcc: spam@example.com\r\nContent-Type: text/html"},
		{"inner tab", "Ben\tBauer"},
		{"nul byte", "Ben\x00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore(individualSlot(7))
			svc := newQuietService(store)

			_, err := svc.Claim(context.Background(), 7, tt.input)
			assert.ErrorIs(t, err, ErrInvalidName)
			assert.Zero(t, store.writeCount())
		})
	}
}

func TestClaim_NameOfMaxLength(t *testing.T) {
	store := newMemStore(individualSlot(7))
	name := strings.Repeat("ä", slot.MaxNameLength)

	confirmed, err := newQuietService(store).Claim(context.Background(), 7, name)
	require.NoError(t, err)
	assert.Equal(t, name, confirmed.ClaimantName)
}

func TestClaim_NotFoundTouchesNothing(t *testing.T) {
	store := newMemStore(individualSlot(7))

	_, err := newQuietService(store).Claim(context.Background(), 99, "Ben")
	assert.ErrorIs(t, err, ErrSlotNotFound)
	assert.Zero(t, store.writeCount())
}

func TestClaim_StorageFailure(t *testing.T) {
	svc := newQuietService(brokenStore{newMemStore()})

	_, err := svc.Claim(context.Background(), 7, "Ben")
	assert.ErrorIs(t, err, ErrInfrastructure)
	assert.NotErrorIs(t, err, ErrSlotNotFound)
}

func TestClaim_AlreadyClaimedDoesNotNotify(t *testing.T) {
	claimed := individualSlot(7)
	claimed.PartnerName = strPtr("Alice")
	store := newMemStore(claimed)
	notifier := new(MockNotifier)

	svc := NewService(store, new(MockHosts), notifier, nil)

	_, err := svc.Claim(context.Background(), 7, "Bob")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	stored, _ := store.GetSlotByID(context.Background(), 7)
	assert.Equal(t, "Alice", *stored.PartnerName)
	notifier.AssertNotCalled(t, "SendAssignmentNotice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// vanishingStore loses the slot between the read and the conditional update.
type vanishingStore struct {
	*memStore
	reads int
}

func (v *vanishingStore) GetSlotByID(ctx context.Context, id int) (*slot.Slot, error) {
	v.reads++
	if v.reads > 1 {
		return nil, slot.ErrSlotNotFound
	}
	return v.memStore.GetSlotByID(ctx, id)
}

func (v *vanishingStore) ConditionalClaim(ctx context.Context, id int, name string) (*slot.Slot, error) {
	return nil, slot.ErrConflict
}

func TestClaim_SlotDeletedDuringClaim(t *testing.T) {
	store := &vanishingStore{memStore: newMemStore(individualSlot(7))}

	_, err := newQuietService(store).Claim(context.Background(), 7, "Ben")
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestClaim_GroupScenario(t *testing.T) {
	store := newMemStore(groupSlot(2, 2))
	svc := newQuietService(store)
	ctx := context.Background()

	first, err := svc.Claim(ctx, 2, "A")
	require.NoError(t, err)
	require.NotNil(t, first.Participant)
	assert.Equal(t, "A", first.Participant.Name)
	assert.Equal(t, 1, first.Slot.ParticipantCount)

	second, err := svc.Claim(ctx, 2, "B")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Slot.ParticipantCount)

	_, err = svc.Claim(ctx, 2, "C")
	assert.ErrorIs(t, err, ErrGroupFull)

	participants, _ := store.GetParticipants(ctx, 2)
	assert.Len(t, participants, 2)
}

func TestClaim_IndividualScenario(t *testing.T) {
	store := newMemStore(individualSlot(1))
	svc := newQuietService(store)
	ctx := context.Background()

	confirmed, err := svc.Claim(ctx, 1, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", *confirmed.Slot.PartnerName)

	_, err = svc.Claim(ctx, 1, "Bob")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	require.NoError(t, svc.RemovePartner(ctx, owner, 1))
	reopened, _ := store.GetSlotByID(ctx, 1)
	assert.True(t, reopened.IsOpen())

	confirmed, err = svc.Claim(ctx, 1, "Bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", *confirmed.Slot.PartnerName)
}

func TestClaim_ConcurrentIndividual(t *testing.T) {
	const attempts = 25

	store := newMemStore(individualSlot(1))
	svc := newQuietService(store)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []string
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := svc.Claim(context.Background(), 1, name)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, name)
			case errors.Is(err, ErrAlreadyClaimed):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(fmt.Sprintf("visitor-%d", i))
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, attempts-1, conflicts)

	stored, _ := store.GetSlotByID(context.Background(), 1)
	assert.Equal(t, winners[0], *stored.PartnerName)
}

func TestClaim_ConcurrentGroup(t *testing.T) {
	const (
		capacity = 5
		attempts = 30
	)

	store := newMemStore(groupSlot(2, capacity))
	svc := newQuietService(store)

	var (
		wg              sync.WaitGroup
		mu              sync.Mutex
		successes, full int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := svc.Claim(context.Background(), 2, name)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrGroupFull):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(fmt.Sprintf("visitor-%d", i))
	}
	wg.Wait()

	assert.Equal(t, capacity, successes)
	assert.Equal(t, attempts-capacity, full)

	participants, _ := store.GetParticipants(context.Background(), 2)
	assert.Len(t, participants, capacity)
}

func TestClaimOnPage(t *testing.T) {
	other := individualSlot(8)
	other.OwnerID = 2

	onDay := func(store slot.Repository, hosts HostDirectory, now time.Time) Service {
		svc := NewService(store, hosts, nil, nil).(*service)
		svc.now = func() time.Time { return now }
		return svc
	}

	t.Run("slot of host", func(t *testing.T) {
		store := newMemStore(individualSlot(7))
		hosts := new(MockHosts)
		hosts.On("FindBySlug", mock.Anything, "anna").Return(anna, nil)

		confirmed, err := onDay(store, hosts, day.Add(20*time.Hour)).ClaimOnPage(context.Background(), "anna", 7, "Ben")
		require.NoError(t, err)
		assert.Equal(t, 7, confirmed.Slot.ID)
	})

	t.Run("slot of another host", func(t *testing.T) {
		store := newMemStore(other)
		hosts := new(MockHosts)
		hosts.On("FindBySlug", mock.Anything, "anna").Return(anna, nil)

		_, err := onDay(store, hosts, day).ClaimOnPage(context.Background(), "anna", 8, "Ben")
		assert.ErrorIs(t, err, ErrSlotNotFound)
		assert.Zero(t, store.writeCount())
	})

	t.Run("slot before today", func(t *testing.T) {
		store := newMemStore(individualSlot(7), groupSlot(2, 3))
		hosts := new(MockHosts)
		hosts.On("FindBySlug", mock.Anything, "anna").Return(anna, nil)
		svc := onDay(store, hosts, day.AddDate(0, 0, 1))

		for _, id := range []int{7, 2} {
			_, err := svc.ClaimOnPage(context.Background(), "anna", id, "Ben")
			assert.ErrorIs(t, err, ErrSlotNotFound)
		}
		assert.Zero(t, store.writeCount())
	})

	t.Run("unknown host", func(t *testing.T) {
		hosts := new(MockHosts)
		hosts.On("FindBySlug", mock.Anything, "nobody").Return(nil, user.ErrUserNotFound)

		_, err := NewService(newMemStore(), hosts, nil, nil).ClaimOnPage(context.Background(), "nobody", 7, "Ben")
		assert.ErrorIs(t, err, ErrHostNotFound)
	})

	t.Run("invalid name skips host lookup", func(t *testing.T) {
		hosts := new(MockHosts)

		_, err := NewService(newMemStore(), hosts, nil, nil).ClaimOnPage(context.Background(), "anna", 7, " ")
		assert.ErrorIs(t, err, ErrInvalidName)
		hosts.AssertNotCalled(t, "FindBySlug", mock.Anything, mock.Anything)
	})
}

func TestRemovePartner(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes release", func(t *testing.T) {
		claimed := individualSlot(1)
		claimed.PartnerName = strPtr("Alice")
		store := newMemStore(claimed)
		publisher := new(MockPublisher)
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.SlotEvent) bool {
			return e.Type == events.TypeSlotReleased && e.Claimant == "Alice"
		})).Return(nil)

		svc := NewService(store, nil, nil, publisher)
		require.NoError(t, svc.RemovePartner(ctx, owner, 1))

		stored, _ := store.GetSlotByID(ctx, 1)
		assert.Nil(t, stored.PartnerName)
		publisher.AssertExpectations(t)
	})

	t.Run("open slot is a no-op", func(t *testing.T) {
		store := newMemStore(individualSlot(1))
		require.NoError(t, newQuietService(store).RemovePartner(ctx, owner, 1))
		assert.Zero(t, store.writeCount())
	})

	t.Run("not the owner", func(t *testing.T) {
		claimed := individualSlot(1)
		claimed.PartnerName = strPtr("Alice")
		store := newMemStore(claimed)

		err := newQuietService(store).RemovePartner(ctx, auth.Caller{UserID: 2, Role: auth.RoleHost}, 1)
		assert.ErrorIs(t, err, ErrForbidden)
		assert.Zero(t, store.writeCount())
	})

	t.Run("group slot", func(t *testing.T) {
		store := newMemStore(groupSlot(2, 3))

		err := newQuietService(store).RemovePartner(ctx, owner, 2)
		var inputErr *slot.InputError
		require.ErrorAs(t, err, &inputErr)
		assert.ErrorIs(t, err, slot.ErrInvalidInput)
	})

	t.Run("unknown slot", func(t *testing.T) {
		err := newQuietService(newMemStore()).RemovePartner(ctx, owner, 5)
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})
}

func TestRemoveParticipant_FreesExactlyOnePlace(t *testing.T) {
	store := newMemStore(groupSlot(2, 2))
	svc := newQuietService(store)
	ctx := context.Background()

	first, err := svc.Claim(ctx, 2, "A")
	require.NoError(t, err)
	_, err = svc.Claim(ctx, 2, "B")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveParticipant(ctx, owner, 2, first.Participant.ID))

	_, err = svc.Claim(ctx, 2, "C")
	require.NoError(t, err)
	_, err = svc.Claim(ctx, 2, "D")
	assert.ErrorIs(t, err, ErrGroupFull)
}

func TestRemoveParticipant_Errors(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(groupSlot(2, 2), groupSlot(3, 2))
	svc := newQuietService(store)

	joined, err := svc.Claim(ctx, 2, "A")
	require.NoError(t, err)

	err = svc.RemoveParticipant(ctx, auth.Caller{UserID: 3, Role: auth.RoleHost}, 2, joined.Participant.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.RemoveParticipant(ctx, owner, 2, 999)
	assert.ErrorIs(t, err, ErrParticipantNotFound)

	assert.Equal(t, 1, store.writeCount())

	participants, _ := store.GetParticipants(ctx, 2)
	assert.Len(t, participants, 1)
}

func TestRemoveParticipant_OtherSlotIsNotFound(t *testing.T) {
	ctx := context.Background()
	store := newMemStore(groupSlot(2, 2), groupSlot(3, 2))
	svc := newQuietService(store)

	joined, err := svc.Claim(ctx, 2, "A")
	require.NoError(t, err)

	for _, slotID := range []int{3, 404} {
		err = svc.RemoveParticipant(ctx, owner, slotID, joined.Participant.ID)
		assert.ErrorIs(t, err, ErrParticipantNotFound, "slot %d", slotID)
	}

	participants, _ := store.GetParticipants(ctx, 2)
	assert.Len(t, participants, 1)
	assert.Equal(t, 1, store.writeCount())
}

func TestPage(t *testing.T) {
	remote := individualSlot(3)
	remote.IsRemote = true
	claimed := individualSlot(4)
	claimed.PartnerName = strPtr("Alice")
	past := individualSlot(5)
	past.Day = day.AddDate(0, 0, -3)
	foreign := individualSlot(6)
	foreign.OwnerID = 2

	store := newMemStore(individualSlot(1), groupSlot(2, 4), remote, claimed, past, foreign)

	private := *anna
	private.IsPrivate = true
	hosts := new(MockHosts)
	hosts.On("FindBySlug", mock.Anything, "anna").Return(&private, nil)

	svc := NewService(store, hosts, nil, nil).(*service)
	svc.now = func() time.Time { return day.Add(15 * time.Hour) }

	t.Run("lists open slots from today", func(t *testing.T) {
		page, err := svc.Page(context.Background(), "anna", PageQuery{})
		require.NoError(t, err)

		ids := make([]int, 0, len(page.Slots))
		for _, s := range page.Slots {
			ids = append(ids, s.ID)
		}
		assert.Equal(t, []int{1, 2, 3}, ids)
		assert.True(t, page.ShowRemoteFilter)
		assert.Equal(t, "Anna", page.Host.Name)
		assert.Empty(t, page.Host.Email)
		assert.Nil(t, page.AssignedSlot)
	})

	t.Run("only remote", func(t *testing.T) {
		page, err := svc.Page(context.Background(), "anna", PageQuery{OnlyRemote: true})
		require.NoError(t, err)
		require.Len(t, page.Slots, 1)
		assert.Equal(t, 3, page.Slots[0].ID)
		assert.True(t, page.OnlyRemote)
	})

	t.Run("assigned slot of host", func(t *testing.T) {
		page, err := svc.Page(context.Background(), "anna", PageQuery{AssignedID: 4})
		require.NoError(t, err)
		require.NotNil(t, page.AssignedSlot)
		assert.Equal(t, 4, page.AssignedSlot.ID)
		assert.Zero(t, page.AssignedSlot.FreePlaces)
	})

	t.Run("assigned slot of another host is ignored", func(t *testing.T) {
		page, err := svc.Page(context.Background(), "anna", PageQuery{AssignedID: 6})
		require.NoError(t, err)
		assert.Nil(t, page.AssignedSlot)
	})
}

func TestPage_NoRemoteSlotsHidesFilter(t *testing.T) {
	hosts := new(MockHosts)
	hosts.On("FindBySlug", mock.Anything, "anna").Return(anna, nil)

	svc := NewService(newMemStore(individualSlot(1)), hosts, nil, nil).(*service)
	svc.now = func() time.Time { return day }

	page, err := svc.Page(context.Background(), "anna", PageQuery{})
	require.NoError(t, err)
	assert.False(t, page.ShowRemoteFilter)
	assert.Equal(t, "anna@example.com", page.Host.Email)
}
