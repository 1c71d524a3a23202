package slot

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	slotColumns = `s.id, s.owner_id, s.day, s.is_flexible, s.start_time, s.end_time, s.flexible_time, s.is_remote, s.kind, s.max_participants, s.partner_name, s.note, s.private_note, s.version, s.created_at, s.updated_at`

	participantCountColumn = `(SELECT COUNT(*) FROM participants p WHERE p.slot_id = s.id) AS participant_count`
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetSlotByID(ctx context.Context, id int) (*Slot, error) {
	query := `SELECT ` + slotColumns + `, ` + participantCountColumn + `
		FROM slots s
		WHERE s.id = $1`

	var s Slot
	err := r.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// ListOpenSlots returns the owner's slots from filter.From onward that still have free capacity.
func (r *repository) ListOpenSlots(ctx context.Context, ownerID int, filter ListFilter) ([]Slot, error) {
	query := `SELECT ` + slotColumns + `, ` + participantCountColumn + `
		FROM slots s
		WHERE s.owner_id = $1 AND s.day >= $2
		AND ((s.kind = 'individual' AND s.partner_name IS NULL) OR (s.kind = 'group' AND (SELECT COUNT(*) FROM participants p WHERE p.slot_id = s.id) < s.max_participants))`
	if filter.OnlyRemote {
		query += ` AND s.is_remote = TRUE`
	}
	query += ` ORDER BY s.day, s.start_time NULLS LAST, s.id`

	slots := []Slot{}
	if err := r.db.SelectContext(ctx, &slots, query, ownerID, filter.From); err != nil {
		return nil, err
	}

	return slots, nil
}

// ListByOwner returns every slot of the owner with its participants attached.
func (r *repository) ListByOwner(ctx context.Context, ownerID int) ([]Slot, error) {
	query := `SELECT ` + slotColumns + `, ` + participantCountColumn + `
		FROM slots s
		WHERE s.owner_id = $1
		ORDER BY s.day, s.start_time NULLS LAST, s.id`

	slots := []Slot{}
	if err := r.db.SelectContext(ctx, &slots, query, ownerID); err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return slots, nil
	}

	ids := make([]int64, 0, len(slots))
	for _, s := range slots {
		if s.Kind == KindGroup {
			ids = append(ids, int64(s.ID))
		}
	}
	if len(ids) == 0 {
		return slots, nil
	}

	var participants []Participant
	err := r.db.SelectContext(ctx, &participants, `
		SELECT id, slot_id, name, created_at
		FROM participants
		WHERE slot_id = ANY($1)
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}

	bySlot := make(map[int][]Participant, len(ids))
	for _, p := range participants {
		bySlot[p.SlotID] = append(bySlot[p.SlotID], p)
	}
	for i := range slots {
		slots[i].Participants = bySlot[slots[i].ID]
	}

	return slots, nil
}

func (r *repository) GetParticipants(ctx context.Context, slotID int) ([]Participant, error) {
	query := `
		SELECT id, slot_id, name, created_at
		FROM participants
		WHERE slot_id = $1
		ORDER BY id
	`

	participants := []Participant{}
	if err := r.db.SelectContext(ctx, &participants, query, slotID); err != nil {
		return nil, err
	}

	return participants, nil
}

func (r *repository) GetParticipantByID(ctx context.Context, id int) (*Participant, error) {
	query := `
		SELECT id, slot_id, name, created_at
		FROM participants
		WHERE id = $1
	`

	var p Participant
	err := r.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrParticipantNotFound
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// ConditionalClaim sets the partner of an individual slot only if it has none.
// It returns ErrConflict when no open individual slot with that id exists.
func (r *repository) ConditionalClaim(ctx context.Context, id int, name string) (*Slot, error) {
	query := `UPDATE slots AS s
		SET partner_name = $2, version = s.version + 1, updated_at = NOW()
		WHERE s.id = $1 AND s.kind = 'individual' AND s.partner_name IS NULL
		RETURNING ` + slotColumns + `, 0 AS participant_count`

	var s Slot
	err := r.db.GetContext(ctx, &s, query, id, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// InsertParticipant adds a participant to a group slot while holding the slot row lock,
// so the count check and the insert cannot interleave with another claim.
func (r *repository) InsertParticipant(ctx context.Context, slotID int, name string) (*Participant, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var locked struct {
		Kind            Kind `db:"kind"`
		MaxParticipants *int `db:"max_participants"`
	}
	err = tx.GetContext(ctx, &locked, `SELECT kind, max_participants FROM slots WHERE id = $1 FOR UPDATE`, slotID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	if locked.Kind != KindGroup || locked.MaxParticipants == nil {
		return nil, ErrNotGroupSlot
	}

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM participants WHERE slot_id = $1`, slotID); err != nil {
		return nil, err
	}
	if count >= *locked.MaxParticipants {
		return nil, ErrCapacityExceeded
	}

	var p Participant
	err = tx.GetContext(ctx, &p, `
		INSERT INTO participants (slot_id, name)
		VALUES ($1, $2)
		RETURNING id, slot_id, name, created_at
	`, slotID, name)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &p, nil
}

func (r *repository) DeleteParticipant(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrParticipantNotFound
	}

	return nil
}

// ClearClaimant reopens an individual slot. Clearing an already open slot is not an error.
func (r *repository) ClearClaimant(ctx context.Context, slotID int) error {
	query := `
		UPDATE slots
		SET partner_name = NULL, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND kind = 'individual'
	`

	result, err := r.db.ExecContext(ctx, query, slotID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}

// CreateSlots inserts one slot per day in a single transaction.
func (r *repository) CreateSlots(ctx context.Context, ownerID int, days []time.Time, in Input) ([]Slot, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `INSERT INTO slots AS s (owner_id, day, is_flexible, start_time, end_time, flexible_time, is_remote, kind, max_participants, note, private_note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + slotColumns + `, 0 AS participant_count`

	flexible, start, end, description := columns(in.Window)
	maxParticipants := in.maxParticipants()

	created := make([]Slot, 0, len(days))
	for _, day := range days {
		var s Slot
		err := tx.GetContext(ctx, &s, query,
			ownerID, day, flexible, start, end, description,
			in.Remote, string(in.Kind), maxParticipants, in.Note, in.PrivateNote,
		)
		if err != nil {
			return nil, err
		}
		created = append(created, s)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateSlot rewrites a slot if its version still matches. A nil in.Partner keeps the
// current partner; switching to a group slot always clears it.
func (r *repository) UpdateSlot(ctx context.Context, id, version int, day time.Time, in Input) (*Slot, error) {
	query := `UPDATE slots AS s
		SET day = $3, is_flexible = $4, start_time = $5, end_time = $6, flexible_time = $7, is_remote = $8, kind = $9, max_participants = $10,
			partner_name = CASE WHEN $9 = 'group' THEN NULL ELSE COALESCE($11, s.partner_name) END,
			note = $12, private_note = $13, version = s.version + 1, updated_at = NOW()
		WHERE s.id = $1 AND s.version = $2
		RETURNING ` + slotColumns + `, ` + participantCountColumn

	flexible, start, end, description := columns(in.Window)

	var s Slot
	err := r.db.GetContext(ctx, &s, query,
		id, version, day, flexible, start, end, description,
		in.Remote, string(in.Kind), in.maxParticipants(), in.Partner, in.Note, in.PrivateNote,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVersionConflict
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *repository) DeleteSlot(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}
