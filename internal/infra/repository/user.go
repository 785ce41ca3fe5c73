package repository

import (
	"context"

	"classcribe/internal/domain/user"
	"classcribe/internal/infra"
	"classcribe/internal/infra/db"

	"github.com/google/uuid"
)

type UserRepository struct {
	db db.DBTX
}

func NewUserRepository(dbtx db.DBTX) *UserRepository {
	return &UserRepository{db: dbtx}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) (uuid.UUID, error) {
	const q = `
		INSERT INTO users (id, email, password_hash, role, institution_id, is_active, credit_balance)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, q,
		u.ID(), u.Email().Value(), u.PasswordHash(), u.Role().String(), u.InstitutionID(), u.IsActive(),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, infra.WrapRepoErr("failed to create user", err)
	}

	return id, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	const q = `UPDATE users SET last_login = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, q, userID)
	if err != nil {
		return infra.WrapRepoErr("failed to update last login", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("user not found", nil, infra.KindNotFound)
	}

	return nil
}
