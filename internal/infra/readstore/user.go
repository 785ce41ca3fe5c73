package readstore

import (
	"context"

	"classcribe/internal/infra"
	"classcribe/internal/infra/db"
	"classcribe/internal/usecase/queries"

	"github.com/google/uuid"
)

type UserReadStore struct {
	db db.DBTX
}

func NewUserReadStore(dbtx db.DBTX) *UserReadStore {
	return &UserReadStore{db: dbtx}
}

func (s *UserReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.AuthorizedUserView, error) {
	const q = `
		SELECT id, email, role, institution_id, is_active, credit_balance, last_login
		FROM users
		WHERE id = $1`

	var v queries.AuthorizedUserView
	err := s.db.QueryRow(ctx, q, id).Scan(
		&v.ID, &v.Email, &v.Role, &v.InstitutionID, &v.IsActive, &v.CreditBalance, &v.LastLogin,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user", err)
	}

	return &v, nil
}

func (s *UserReadStore) CredentialsByEmail(ctx context.Context, email string) (*queries.UserCredentials, error) {
	const q = `
		SELECT id, email, role, password_hash, is_active
		FROM users
		WHERE email = $1`

	var c queries.UserCredentials
	err := s.db.QueryRow(ctx, q, email).Scan(&c.ID, &c.Email, &c.Role, &c.PasswordHash, &c.IsActive)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user by email", err)
	}

	return &c, nil
}

func (s *UserReadStore) FindByEmail(ctx context.Context, email string) (*queries.AuthorizedUserView, error) {
	const q = `
		SELECT id, email, role, institution_id, is_active, credit_balance, last_login
		FROM users
		WHERE email = $1`

	var v queries.AuthorizedUserView
	err := s.db.QueryRow(ctx, q, email).Scan(
		&v.ID, &v.Email, &v.Role, &v.InstitutionID, &v.IsActive, &v.CreditBalance, &v.LastLogin,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user by email", err)
	}

	return &v, nil
}
