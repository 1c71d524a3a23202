package user

import (
	"context"
	"errors"
	"fmt"

	"miny/internal/auth"
	"miny/internal/logger"
	"miny/internal/metrics"

	"github.com/gosimple/slug"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidQuery       = errors.New("invalid list query")
	ErrSlugUnavailable    = errors.New("could not find a free slug")
)

const (
	slugAlphabet    = "0123456789abcdefghijklmnopqrstuvwxyz"
	slugSuffixLen   = 6
	maxSlugAttempts = 5
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
	HideWelcome(ctx context.Context, caller auth.Caller) (int, error)
	SetPrivacy(ctx context.Context, caller auth.Caller, private bool) error
	ListUsers(ctx context.Context, q ListQuery) (*Page, error)
	Stats(ctx context.Context) (*Stats, error)
}

type service struct {
	repo      Repository
	jwtSecret string
}

func NewService(repo Repository, jwtSecret string) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	hostSlug, err := s.uniqueSlug(ctx, req.Name)
	if err != nil {
		return nil, "", "", err
	}

	user, err := s.repo.Create(ctx, req.Name, req.Email, passwordHash, hostSlug, auth.RoleHost)
	if err != nil {
		return nil, "", "", err
	}

	tokens, err := auth.IssueTokens(user.Caller(), s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	logger.Info("host registered", "user_id", user.ID, "slug", user.Slug)

	return user, tokens.Access, tokens.Refresh, nil
}

// uniqueSlug derives a URL slug from the name and appends a random suffix on collision.
func (s *service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "host"
	}

	candidate := base
	for i := 0; i < maxSlugAttempts; i++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}

		suffix, err := gonanoid.Generate(slugAlphabet, slugSuffixLen)
		if err != nil {
			return "", err
		}
		candidate = base + "-" + suffix
	}

	return "", ErrSlugUnavailable
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		metrics.RecordLogin("failed")
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		metrics.RecordLogin("failed")
		return nil, "", "", ErrInvalidCredentials
	}

	tokens, err := auth.IssueTokens(user.Caller(), s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	metrics.RecordLogin("success")

	return user, tokens.Access, tokens.Refresh, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	caller, err := auth.ParseRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	user, err := s.repo.FindByID(ctx, caller.UserID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}

	newAccessToken, err := auth.IssueAccessToken(user.Caller(), s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, user, nil
}

// HideWelcome counts a completed first-visit and returns the new login count.
func (s *service) HideWelcome(ctx context.Context, caller auth.Caller) (int, error) {
	return s.repo.IncrementLoginCount(ctx, caller.UserID)
}

func (s *service) SetPrivacy(ctx context.Context, caller auth.Caller, private bool) error {
	if err := s.repo.SetPrivacy(ctx, caller.UserID, private); err != nil {
		return err
	}
	logger.Info("privacy changed", "user_id", caller.UserID, "is_private", private)
	return nil
}

func (s *service) ListUsers(ctx context.Context, q ListQuery) (*Page, error) {
	if q.Page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", ErrInvalidQuery)
	}
	if q.OrderBy == "" {
		q.OrderBy = "id"
	}
	if _, ok := orderColumns[q.OrderBy]; !ok {
		return nil, fmt.Errorf("%w: orderBy must be one of id, name, email, created_at, login_count", ErrInvalidQuery)
	}
	switch q.Sort {
	case "":
		q.Sort = "asc"
	case "asc", "desc":
	default:
		return nil, fmt.Errorf("%w: sort must be asc or desc", ErrInvalidQuery)
	}

	users, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	return &Page{Users: users, Page: q.Page, PageSize: PageSize, OrderBy: q.OrderBy, Sort: q.Sort}, nil
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}
