package models

import (
	"time"

	"github.com/samber/lo"
)

const DefaultTheme = "default"

// 회원 사용자 모델, 하나의 문서로 저장된다
type User struct {
	ID                string    `json:"id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	PasswordChangedAt time.Time `json:"-"`
	Bio               string    `json:"bio"`
	Avatar            string    `json:"avatar"`
	Theme             string    `json:"theme"`
	Links             []Link    `json:"links"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Link is one outbound entry of a profile. Slice position defines display order.
type Link struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
	Clicks int    `json:"clicks"`
}

// PublicProfile is what anyone can read by username. It has no email field.
type PublicProfile struct {
	ID        string    `json:"id" example:"0b9d5c1e-6a43-4f0e-9a53-3f7c1a3c2b10"`
	Username  string    `json:"username" example:"alice"`
	Bio       string    `json:"bio" example:"hello there"`
	Avatar    string    `json:"avatar" example:"/uploads/avatars/3f1c.png"`
	Theme     string    `json:"theme" example:"default"`
	Links     []Link    `json:"links"`
	CreatedAt time.Time `json:"createdAt"`
}

// PrivateProfile is the owner's view.
type PrivateProfile struct {
	PublicProfile
	Email string `json:"email" example:"alice@example.com"`
}

// LinkInput is a link as submitted in a profile update.
type LinkInput struct {
	Title  string `json:"title" binding:"required" example:"Blog"`
	URL    string `json:"url" binding:"required,url" example:"https://example.com"`
	Active *bool  `json:"active,omitempty"`
	Clicks *int   `json:"clicks,omitempty" binding:"omitempty,min=0"`
}

// ProfileUpdateFields are the only JSON keys a profile update may carry, matched exactly.
var ProfileUpdateFields = []string{"bio", "avatar", "theme", "links"}

// ProfileUpdate lists every field a profile update may touch. Nil means "not submitted".
type ProfileUpdate struct {
	Bio    *string      `json:"bio,omitempty"`
	Avatar *string      `json:"avatar,omitempty"`
	Theme  *string      `json:"theme,omitempty"`
	Links  *[]LinkInput `json:"links,omitempty" binding:"omitempty,dive"`
}

func (u *User) Public() PublicProfile {
	links := make([]Link, len(u.Links))
	copy(links, u.Links)
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
		Theme:     u.Theme,
		Links:     links,
		CreatedAt: u.CreatedAt,
	}
}

func (u *User) Private() PrivateProfile {
	return PrivateProfile{
		PublicProfile: u.Public(),
		Email:         u.Email,
	}
}

// ToLink applies the link defaults: active unless stated, zero clicks unless stated.
func (in LinkInput) ToLink() Link {
	return Link{
		Title:  in.Title,
		URL:    in.URL,
		Active: lo.FromPtrOr(in.Active, true),
		Clicks: lo.FromPtrOr(in.Clicks, 0),
	}
}
