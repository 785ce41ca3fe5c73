package commands

import (
	"context"
	"fmt"
	"log/slog"

	"classcribe/internal/domain/credit"
	"classcribe/internal/domain/user"
	reqdto "classcribe/internal/handler/dto/request"
	"classcribe/internal/infra"
	"classcribe/internal/pkg/config"
	"classcribe/internal/pkg/errs"
	"classcribe/internal/pkg/jwt"
	"classcribe/internal/pkg/password"
	"classcribe/internal/usecase/queries"
	"classcribe/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound         = errs.New("user not found")
	ErrInvalidCredentials   = errs.New("invalid credentials")
	ErrUserInactive         = errs.New("user inactive")
	ErrEmailAlreadyUsed     = errs.New("email already registered")
	ErrAuthenticationFailed = errs.New("authentication failed")
	ErrTokenGeneration      = errs.New("token generation failed")
)

type LoginResult struct {
	UserID uuid.UUID
	Token  string
}

type AuthCommands interface {
	Login(ctx context.Context, req reqdto.LoginRequest) (*LoginResult, error)
	// Signup registers a teacher account and grants the signup credit bonus.
	Signup(ctx context.Context, req reqdto.SignupRequest) (*LoginResult, error)
}

type authCommandsImpl struct {
	uow         shared.UnitOfWork
	users       queries.UserViewRepo
	jwtService  *jwt.Service
	pipelineCfg config.PipelineConfig
}

func NewAuthCommands(
	uow shared.UnitOfWork,
	users queries.UserViewRepo,
	jwtService *jwt.Service,
	pipelineCfg config.PipelineConfig,
) AuthCommands {
	return &authCommandsImpl{
		uow:         uow,
		users:       users,
		jwtService:  jwtService,
		pipelineCfg: pipelineCfg,
	}
}

func (a *authCommandsImpl) Login(ctx context.Context, req reqdto.LoginRequest) (*LoginResult, error) {
	credentials, err := req.ToDomain()
	if err != nil {
		return nil, errs.Mark(err, ErrAuthenticationFailed)
	}

	// Same error for unknown email and wrong password to avoid enumeration.
	creds, err := a.users.CredentialsByEmail(ctx, credentials.Email().Value())
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !creds.IsActive {
		return nil, ErrUserInactive
	}
	if err := password.ComparePassword(creds.PasswordHash, credentials.Password().Value()); err != nil {
		return nil, ErrInvalidCredentials
	}

	role, err := user.NewRole(creds.Role)
	if err != nil {
		return nil, errs.Mark(err, ErrAuthenticationFailed)
	}

	token, err := a.jwtService.GenerateToken(creds.ID, role)
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}

	err = a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		if updateErr := tx.Users().UpdateLastLogin(ctx, creds.ID); updateErr != nil {
			slog.Warn("failed to update last login", "user_id", creds.ID, "error", updateErr.Error())
			// Not critical; login already succeeded.
		}
		return nil
	})
	if err != nil {
		slog.Warn("transaction failed during login", "user_id", creds.ID, "error", err.Error())
	}

	return &LoginResult{UserID: creds.ID, Token: token}, nil
}

func (a *authCommandsImpl) Signup(ctx context.Context, req reqdto.SignupRequest) (*LoginResult, error) {
	credentials, err := req.ToDomain()
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDomainValidation)
	}

	hash, err := password.HashPassword(credentials.Password().Value())
	if err != nil {
		return nil, errs.Mark(err, ErrAuthenticationFailed)
	}

	entity := user.NewUser(credentials.Email(), hash, user.RoleTeacher, nil)
	bonusKey := fmt.Sprintf("signup_%s", entity.ID())

	err = a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		id, createErr := tx.Users().Create(ctx, entity)
		if createErr != nil {
			if infra.IsKind(createErr, infra.KindDuplicateKey) {
				return ErrEmailAlreadyUsed
			}
			return errs.Mark(createErr, errs.ErrDatabaseOperationFailed)
		}

		if a.pipelineCfg.SignupBonusCredits > 0 {
			if _, bonusErr := tx.Ledger().Credit(ctx, id, a.pipelineCfg.SignupBonusCredits, credit.ReasonSignupBonus, &bonusKey, nil, nil); bonusErr != nil {
				return errs.Mark(bonusErr, errs.ErrDatabaseOperationFailed)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	token, err := a.jwtService.GenerateToken(entity.ID(), entity.Role())
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}

	return &LoginResult{UserID: entity.ID(), Token: token}, nil
}
