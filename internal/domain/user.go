package domain

import "time"

// Profile defaults applied when the caller leaves the fields blank.
const (
	DefaultBio       = "Bio not provided"
	DefaultAvatarURL = "https://www.w3schools.com/howto/img_avatar.png"
)

// User is the domain model for inventory owners.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	Bio          string
	AvatarURL    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
