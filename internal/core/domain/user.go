package domain

import (
	"net/url"
	"time"
)

const avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="

// User is a registered author. Email is unique and acts as the login key.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	ProfileImage string    `json:"profileImage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary returns the author view embedded in book listings.
func (u *User) Summary() *AuthorSummary {
	return &AuthorSummary{ID: u.ID, Name: u.Name, ProfileImage: u.ProfileImage}
}

// AvatarURL derives the default profile image for an email address.
func AvatarURL(email string) string {
	return avatarBaseURL + url.QueryEscape(email)
}

// Identity is a caller whose bearer token has been verified.
type Identity struct {
	UserID    string
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenClaims are the verified claims of a bearer token, independent of the
// algorithm that signed it.
type TokenClaims struct {
	Subject   string
	Email     string
	ID        string
	ExpiresAt time.Time
}
