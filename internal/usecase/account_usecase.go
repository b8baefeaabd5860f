package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zaanjob-backend/internal/domain"
	"zaanjob-backend/pkg/apperror"
	"zaanjob-backend/pkg/security"
)

// lastLoginResolution bounds how often last_login is rewritten for an
// already mirrored account.
const lastLoginResolution = time.Hour

type accountUsecase struct {
	repo   domain.AccountRepository
	secLog *security.SecurityLogger
	log    *slog.Logger
	now    func() time.Time
}

func NewAccountUsecase(repo domain.AccountRepository, secLog *security.SecurityLogger, log *slog.Logger) domain.AccountUsecase {
	return &accountUsecase{
		repo:   repo,
		secLog: secLog,
		log:    log,
		now:    time.Now,
	}
}

func (u *accountUsecase) EnsureAccount(ctx context.Context, identity domain.Identity) (*domain.Account, error) {
	if identity.UserID == "" {
		return nil, apperror.Unauthorized("User not authenticated")
	}

	now := u.now().UTC()
	account, err := u.repo.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	if account != nil {
		if account.LastLogin == nil || now.Sub(*account.LastLogin) >= lastLoginResolution {
			if err := u.repo.TouchLastLogin(ctx, account.ID, now); err != nil {
				u.log.Warn("failed to update last login", "user_id", account.ID, "error", err)
			} else {
				account.LastLogin = &now
			}
		}
		return account, nil
	}

	role := identity.UserType
	if !domain.ValidRole(role) {
		role = domain.RoleProfessional
	}
	account = &domain.Account{
		ID:        identity.UserID,
		Email:     identity.Email,
		UserType:  role,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: &now,
	}
	if identity.FullName != "" {
		name := identity.FullName
		account.FullName = &name
	}

	if err := u.repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("mirror account: %w", err)
	}
	u.secLog.LogAccountMirrored(ctx, account.Email, account.UserType)
	return account, nil
}

func (u *accountUsecase) GetCurrent(ctx context.Context) (*domain.Account, error) {
	userID := domain.UserIDFrom(ctx)
	if userID == "" {
		return nil, apperror.Unauthorized("User not authenticated")
	}

	account, err := u.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if account == nil {
		return nil, apperror.NotFound("Account not found")
	}
	return account, nil
}
