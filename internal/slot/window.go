package slot

import "time"

// TimeWindow is either a FixedTime or a FlexibleTime, never both.
type TimeWindow interface {
	Label() string
	isTimeWindow()
}

// FixedTime is a clock range; End is empty for an open end.
type FixedTime struct {
	Start string
	End   string
}

type FlexibleTime struct {
	Description string
}

func (FixedTime) isTimeWindow()    {}
func (FlexibleTime) isTimeWindow() {}

func (f FixedTime) Label() string {
	if f.End == "" {
		return f.Start
	}
	return f.Start + "–" + f.End
}

func (f FlexibleTime) Label() string {
	return f.Description
}

// NewFixedTime validates a clock range given as HH:MM strings.
func NewFixedTime(start, end string) (FixedTime, error) {
	s, err := time.Parse("15:04", start)
	if err != nil {
		return FixedTime{}, ErrInvalidTime
	}
	if end != "" {
		e, err := time.Parse("15:04", end)
		if err != nil || !e.After(s) {
			return FixedTime{}, ErrInvalidTime
		}
	}
	return FixedTime{Start: start, End: end}, nil
}

// columns maps a window onto the is_flexible, start_time, end_time and flexible_time columns.
func columns(w TimeWindow) (bool, *string, *string, *string) {
	switch v := w.(type) {
	case FlexibleTime:
		d := v.Description
		return true, nil, nil, &d
	case FixedTime:
		start := v.Start
		var end *string
		if v.End != "" {
			e := v.End
			end = &e
		}
		return false, &start, end, nil
	default:
		return false, nil, nil, nil
	}
}
