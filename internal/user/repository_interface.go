package user

import "context"

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash, slug, role string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	FindBySlug(ctx context.Context, slug string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	IncrementLoginCount(ctx context.Context, id int) (int, error)
	SetPrivacy(ctx context.Context, id int, private bool) error
	List(ctx context.Context, q ListQuery) ([]User, error)
	Stats(ctx context.Context) (*Stats, error)
}
