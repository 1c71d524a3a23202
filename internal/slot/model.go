package slot

import (
	"time"
)

type Kind string

const (
	KindIndividual Kind = "individual"
	KindGroup      Kind = "group"
)

const (
	MaxGroupParticipants = 50
	MaxDaysPerRequest    = 10
	MaxNameLength        = 100
)

type Slot struct {
	ID               int       `db:"id" json:"id"`
	OwnerID          int       `db:"owner_id" json:"owner_id"`
	Day              time.Time `db:"day" json:"day"`
	IsFlexible       bool      `db:"is_flexible" json:"is_flexible"`
	StartTime        *string   `db:"start_time" json:"start_time,omitempty"`
	EndTime          *string   `db:"end_time" json:"end_time,omitempty"`
	FlexibleTime     *string   `db:"flexible_time" json:"flexible_time,omitempty"`
	IsRemote         bool      `db:"is_remote" json:"is_remote"`
	Kind             Kind      `db:"kind" json:"kind"`
	MaxParticipants  *int      `db:"max_participants" json:"max_participants,omitempty"`
	PartnerName      *string   `db:"partner_name" json:"partner_name,omitempty"`
	Note             string    `db:"note" json:"note"`
	PrivateNote      string    `db:"private_note" json:"private_note"`
	Version          int       `db:"version" json:"version"`
	ParticipantCount int       `db:"participant_count" json:"participant_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`

	Participants []Participant `db:"-" json:"participants,omitempty"`
}

type Participant struct {
	ID        int       `db:"id" json:"id"`
	SlotID    int       `db:"slot_id" json:"slot_id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Window returns the time window stored on the row.
func (s *Slot) Window() TimeWindow {
	if s.IsFlexible {
		return FlexibleTime{Description: deref(s.FlexibleTime)}
	}
	return FixedTime{Start: deref(s.StartTime), End: deref(s.EndTime)}
}

// IsOpen reports whether at least one unit of capacity is unclaimed.
func (s *Slot) IsOpen() bool {
	return s.FreeCapacity() > 0
}

func (s *Slot) FreeCapacity() int {
	switch s.Kind {
	case KindGroup:
		if s.MaxParticipants == nil {
			return 0
		}
		if free := *s.MaxParticipants - s.ParticipantCount; free > 0 {
			return free
		}
		return 0
	default:
		if s.PartnerName == nil {
			return 1
		}
		return 0
	}
}

// PublicSlot is the view of a slot shown on a host's public page.
type PublicSlot struct {
	ID              int    `json:"id"`
	Day             string `json:"day" example:"2024-05-01"`
	Time            string `json:"time" example:"09:00–10:30"`
	IsFlexible      bool   `json:"is_flexible"`
	IsRemote        bool   `json:"is_remote"`
	Kind            Kind   `json:"kind"`
	MaxParticipants int    `json:"max_participants,omitempty"`
	Participants    int    `json:"participants"`
	FreePlaces      int    `json:"free_places"`
	Note            string `json:"note,omitempty"`
}

func (s *Slot) Public() PublicSlot {
	p := PublicSlot{
		ID:         s.ID,
		Day:        s.Day.Format(time.DateOnly),
		Time:       s.Window().Label(),
		IsFlexible: s.IsFlexible,
		IsRemote:   s.IsRemote,
		Kind:       s.Kind,
		FreePlaces: s.FreeCapacity(),
		Note:       s.Note,
	}
	if s.Kind == KindGroup && s.MaxParticipants != nil {
		p.MaxParticipants = *s.MaxParticipants
		p.Participants = s.ParticipantCount
	}
	return p
}

type ListFilter struct {
	OnlyRemote bool
	From       time.Time
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
