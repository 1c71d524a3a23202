package slot

import (
	"strings"
	"time"

	"miny/internal/api"
)

// Input is a slot definition that passed boundary validation.
type Input struct {
	Window          TimeWindow
	Remote          bool
	Kind            Kind
	MaxParticipants int
	// Partner is set only by a host edit with a manual partner; nil keeps the current one.
	Partner     *string
	Note        string
	PrivateNote string
}

func (in Input) maxParticipants() *int {
	if in.Kind != KindGroup {
		return nil
	}
	m := in.MaxParticipants
	return &m
}

type SlotFields struct {
	IsFlexible      bool   `json:"is_flexible"`
	Start           string `json:"start" validate:"omitempty,clock" example:"09:00"`
	End             string `json:"end" validate:"omitempty,clock" example:"10:30"`
	FlexibleTime    string `json:"flexible_time" validate:"max=100" example:"Vormittags"`
	IsRemote        bool   `json:"is_remote"`
	IsGroup         bool   `json:"is_group"`
	MaxParticipants int    `json:"max_participants" validate:"omitempty,min=1,max=50" example:"8"`
	Note            string `json:"note" validate:"max=500"`
	PrivateNote     string `json:"private_note" validate:"max=500"`
}

type CreateSlotsRequest struct {
	Days []string `json:"days" validate:"min=1,max=10,unique,dive,isodate" example:"2024-05-01"`
	SlotFields
}

type UpdateSlotRequest struct {
	Day           string `json:"day" validate:"required,isodate" example:"2024-05-01"`
	ManualPartner bool   `json:"manual_partner"`
	Partner       string `json:"partner" validate:"max=100"`
	Version       int    `json:"version" validate:"required,min=1" example:"3"`
	SlotFields
}

type Action string

const (
	ActionUpdate            Action = "update"
	ActionRemovePartner     Action = "remove-partner"
	ActionRemoveParticipant Action = "remove-participant"
	ActionDelete            Action = "delete"
)

// ActionRequest is the body of POST /slots/:id/actions. The update fields are
// read only when Action is "update".
type ActionRequest struct {
	Action        Action `json:"action" binding:"required" example:"remove-partner"`
	ParticipantID int    `json:"participant_id,omitempty"`
	UpdateSlotRequest
}

// ToInput validates the request and returns the parsed days with the shared slot input.
func (r CreateSlotsRequest) ToInput() ([]time.Time, Input, error) {
	if errs := api.ValidateStruct(r); len(errs) > 0 {
		return nil, Input{}, invalid(errs...)
	}

	days := make([]time.Time, 0, len(r.Days))
	for _, d := range r.Days {
		day, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return nil, Input{}, invalid(fieldError("days", "isodate", "days must be dates in YYYY-MM-DD format"))
		}
		days = append(days, day)
	}

	in, err := r.SlotFields.toInput()
	if err != nil {
		return nil, Input{}, err
	}
	return days, in, nil
}

func (r UpdateSlotRequest) ToInput() (time.Time, Input, error) {
	if errs := api.ValidateStruct(r); len(errs) > 0 {
		return time.Time{}, Input{}, invalid(errs...)
	}

	day, err := time.Parse(time.DateOnly, r.Day)
	if err != nil {
		return time.Time{}, Input{}, invalid(fieldError("day", "isodate", "day must be a date in YYYY-MM-DD format"))
	}

	in, err := r.SlotFields.toInput()
	if err != nil {
		return time.Time{}, Input{}, err
	}

	if r.ManualPartner {
		partner := strings.TrimSpace(r.Partner)
		switch {
		case in.Kind == KindGroup:
			return time.Time{}, Input{}, invalid(fieldError("partner", "excluded_if", "partner cannot be set on a group slot"))
		case partner == "":
			return time.Time{}, Input{}, invalid(fieldError("partner", "required", "partner is required when manual_partner is set"))
		}
		in.Partner = &partner
	}
	return day, in, nil
}

func (f SlotFields) toInput() (Input, error) {
	var problems []api.FieldError

	window, fe := f.window()
	if fe != nil {
		problems = append(problems, *fe)
	}

	kind := KindIndividual
	if f.IsGroup {
		kind = KindGroup
		if f.MaxParticipants == 0 {
			problems = append(problems, fieldError("max_participants", "required", "max_participants is required for a group slot"))
		}
	} else if f.MaxParticipants != 0 {
		problems = append(problems, fieldError("max_participants", "excluded_unless", "max_participants is only allowed for a group slot"))
	}

	if len(problems) > 0 {
		return Input{}, invalid(problems...)
	}

	return Input{
		Window:          window,
		Remote:          f.IsRemote,
		Kind:            kind,
		MaxParticipants: f.MaxParticipants,
		Note:            strings.TrimSpace(f.Note),
		PrivateNote:     strings.TrimSpace(f.PrivateNote),
	}, nil
}

func (f SlotFields) window() (TimeWindow, *api.FieldError) {
	description := strings.TrimSpace(f.FlexibleTime)

	if f.IsFlexible {
		if f.Start != "" || f.End != "" {
			fe := fieldError("start", "excluded_if", "start and end must be empty for a flexible slot")
			return nil, &fe
		}
		if description == "" {
			fe := fieldError("flexible_time", "required", "flexible_time is required for a flexible slot")
			return nil, &fe
		}
		return FlexibleTime{Description: description}, nil
	}

	if description != "" {
		fe := fieldError("flexible_time", "excluded_unless", "flexible_time is only allowed for a flexible slot")
		return nil, &fe
	}
	if f.Start == "" {
		fe := fieldError("start", "required", "start is required")
		return nil, &fe
	}
	w, err := NewFixedTime(f.Start, f.End)
	if err != nil {
		fe := fieldError("end", "gtfield", "end must be after start")
		return nil, &fe
	}
	return w, nil
}
