package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"miny/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, name, email, password_hash, slug, login_count, is_private, role, created_at`

// orderColumns maps accepted orderBy values onto SQL columns.
var orderColumns = map[string]string{
	"id":          "id",
	"name":        "name",
	"email":       "email",
	"created_at":  "created_at",
	"login_count": "login_count",
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, slug, role string) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, slug, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	var user User
	err := r.db.GetContext(ctx, &user, query, name, email, passwordHash, slug, role)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "users_email_key" {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE slug = $1`, slug)
}

func (r *repository) findOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	return db.Exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE slug = $1)`, slug)
}

func (r *repository) IncrementLoginCount(ctx context.Context, id int) (int, error) {
	query := `
		UPDATE users
		SET login_count = login_count + 1
		WHERE id = $1
		RETURNING login_count
	`

	var count int
	err := r.db.GetContext(ctx, &count, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *repository) SetPrivacy(ctx context.Context, id int, private bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET is_private = $2 WHERE id = $1`, id, private)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// List returns one page of users. q must already be normalized by the service.
func (r *repository) List(ctx context.Context, q ListQuery) ([]User, error) {
	column, ok := orderColumns[q.OrderBy]
	if !ok {
		return nil, fmt.Errorf("%w: orderBy %q", ErrInvalidQuery, q.OrderBy)
	}
	direction := "ASC"
	if q.Sort == "desc" {
		direction = "DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY %s %s, id ASC LIMIT $1 OFFSET $2`, userColumns, column, direction)

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, PageSize, (q.Page-1)*PageSize); err != nil {
		return nil, err
	}

	return users, nil
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM slots) AS total_slots,
			(SELECT COALESCE(SUM(login_count), 0) FROM users) AS total_logins
	`

	var stats Stats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, err
	}

	return &stats, nil
}
