package user

import (
	"time"

	"miny/internal/auth"
)

const PageSize = 50

type User struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Slug         string    `db:"slug" json:"slug"`
	LoginCount   int       `db:"login_count" json:"login_count"`
	IsPrivate    bool      `db:"is_private" json:"is_private"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PublicProfile is what visitors of a host page see. Email is omitted for private hosts.
type PublicProfile struct {
	Name  string `json:"name" example:"Anna Schmidt"`
	Slug  string `json:"slug" example:"anna-schmidt"`
	Email string `json:"email,omitempty" example:"anna@example.com"`
}

// Caller is the identity a token issued to this user carries.
func (u *User) Caller() auth.Caller {
	return auth.Caller{UserID: u.ID, Email: u.Email, Role: u.Role}
}

func (u *User) PublicProfile() PublicProfile {
	p := PublicProfile{Name: u.Name, Slug: u.Slug}
	if !u.IsPrivate {
		p.Email = u.Email
	}
	return p
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100" example:"Anna Schmidt"`
	Email    string `json:"email" binding:"required,email" example:"anna@example.com"`
	Password string `json:"password" binding:"required,min=6" example:"geheim123"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"anna@example.com"`
	Password string `json:"password" binding:"required" example:"geheim123"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

// Profile is the authenticated host's own view.
type Profile struct {
	User
	IsFirstLogin bool   `json:"is_first_login"`
	PublicLink   string `json:"public_link" example:"https://miny.app/u/anna-schmidt"`
}

type Action string

const (
	ActionHideWelcome Action = "hide-welcome"
	ActionSetPrivacy  Action = "set-privacy"
)

type ActionRequest struct {
	Action    Action `json:"action" binding:"required" example:"set-privacy"`
	IsPrivate *bool  `json:"is_private,omitempty"`
}

type Stats struct {
	TotalUsers  int `db:"total_users" json:"total_users"`
	TotalSlots  int `db:"total_slots" json:"total_slots"`
	TotalLogins int `db:"total_logins" json:"total_logins"`
}

type ListQuery struct {
	Page    int    `form:"page"`
	OrderBy string `form:"orderBy"`
	Sort    string `form:"sort"`
}

type Page struct {
	Users    []User `json:"users"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	OrderBy  string `json:"order_by"`
	Sort     string `json:"sort"`
}
