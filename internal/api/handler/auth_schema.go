package handler

import "github.com/paghive/paghive/internal/core/domain"

type credentialsRequest struct {
	Name  string `json:"name"  validate:"max=100"`
	Email string `json:"email" validate:"max=254"`
}

type userResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage"`
}

type authResponse struct {
	Message   string       `json:"message"`
	User      userResponse `json:"user"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt string       `json:"expiresAt,omitempty"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
	}
}
