package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	id            uuid.UUID
	email         Email
	passwordHash  string
	role          Role
	institutionID *uuid.UUID
	isActive      bool
	lastLogin     *time.Time
	createdAt     time.Time
}

func NewUser(email Email, passwordHash string, role Role, institutionID *uuid.UUID) *User {
	return &User{
		id:            uuid.New(),
		email:         email,
		passwordHash:  passwordHash,
		role:          role,
		institutionID: institutionID,
		isActive:      true,
	}
}

func ReconstructUser(
	id uuid.UUID,
	email Email,
	passwordHash string,
	role Role,
	institutionID *uuid.UUID,
	isActive bool,
	lastLogin *time.Time,
	createdAt time.Time,
) *User {
	return &User{
		id:            id,
		email:         email,
		passwordHash:  passwordHash,
		role:          role,
		institutionID: institutionID,
		isActive:      isActive,
		lastLogin:     lastLogin,
		createdAt:     createdAt,
	}
}

func (u *User) IsAdmin() bool {
	return u.role == RoleAdmin
}

func (u *User) ID() uuid.UUID             { return u.id }
func (u *User) Email() Email              { return u.email }
func (u *User) PasswordHash() string      { return u.passwordHash }
func (u *User) Role() Role                { return u.role }
func (u *User) InstitutionID() *uuid.UUID { return u.institutionID }
func (u *User) IsActive() bool            { return u.isActive }
func (u *User) LastLogin() *time.Time     { return u.lastLogin }
func (u *User) CreatedAt() time.Time      { return u.createdAt }
