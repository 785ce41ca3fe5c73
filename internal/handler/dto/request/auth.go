package request

import (
	"classcribe/internal/domain/user"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (r *LoginRequest) ToDomain() (user.Credentials, error) {
	return newCredentials(r.Email, r.Password)
}

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

func (r *SignupRequest) ToDomain() (user.Credentials, error) {
	return newCredentials(r.Email, r.Password)
}

func newCredentials(rawEmail, rawPassword string) (user.Credentials, error) {
	email, err := user.NewEmail(rawEmail)
	if err != nil {
		return user.Credentials{}, err
	}
	password, err := user.NewPassword(rawPassword)
	if err != nil {
		return user.Credentials{}, err
	}
	return user.NewCredentials(email, password), nil
}
