package models

import "time"

// Role distinguishes student accounts from administrators.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User is a campus account as seen by the social core.
type User struct {
	ID           string     `db:"id" json:"_id"`
	Email        string     `db:"email" json:"email"`
	IDNumber     *string    `db:"id_number" json:"idNumber,omitempty"`
	FullName     string     `db:"full_name" json:"fullName"`
	Role         Role       `db:"role" json:"role"`
	ProfileImage string     `db:"profile_image" json:"profileImage,omitempty"`
	Active       bool       `db:"active" json:"active"`
	LastSeen     *time.Time `db:"last_seen" json:"lastSeen"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

// UserSummary is the public projection used by search and discovery.
type UserSummary struct {
	ID           string  `db:"id" json:"_id"`
	FullName     string  `db:"full_name" json:"fullName"`
	IDNumber     *string `db:"id_number" json:"idNumber,omitempty"`
	Email        string  `db:"email" json:"email"`
	Role         Role    `db:"role" json:"role"`
	ProfileImage string  `db:"profile_image" json:"profileImage,omitempty"`
}

// ActiveFriend is returned from setActive for every online chat partner.
type ActiveFriend struct {
	ID           string `json:"_id"`
	FullName     string `json:"fullName"`
	ProfileImage string `json:"profileImage,omitempty"`
	ChatID       string `json:"chatId"`
}

// Summary projects a user onto its public fields.
func (u User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		FullName:     u.FullName,
		IDNumber:     u.IDNumber,
		Email:        u.Email,
		Role:         u.Role,
		ProfileImage: u.ProfileImage,
	}
}
