package postgres

import (
	"context"
	"errors"
	"time"

	"zaanjob-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type accountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) domain.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	query := `
		SELECT id::text, COALESCE(email, ''), full_name, COALESCE(user_type, 'professional'),
			created_at, updated_at, last_login
		FROM public.users WHERE id = $1::uuid`

	var a domain.Account
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Email, &a.FullName, &a.UserType,
		&a.CreatedAt, &a.UpdatedAt, &a.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(err)
	}
	return &a, nil
}

// Create inserts the account; a concurrent first request that already
// inserted it is not an error.
func (r *accountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO public.users (id, email, full_name, user_type, created_at, updated_at, last_login)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`
	_, err := r.db.Exec(ctx, query, a.ID, a.Email, a.FullName, a.UserType, a.CreatedAt, a.UpdatedAt, a.LastLogin)
	return mapError(err)
}

func (r *accountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE public.users SET last_login = $2, updated_at = $2 WHERE id = $1::uuid`, id, at)
	return mapError(err)
}
