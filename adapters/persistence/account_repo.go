package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type postgresAccountRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresAccountRepo(db *pgxpool.Pool, logger logger.Logger) account.Repository {
	return &postgresAccountRepo{db: db, logger: logger}
}

const accountColumns = "id, email, password_hash, plan, grandfathered, overrides, is_admin, created_at"

func scanAccount(row pgx.Row) (*account.Account, error) {
	a := &account.Account{}
	var overrides []byte

	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Plan, &a.Grandfathered, &overrides, &a.IsAdmin, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("account", "")
		}
		return nil, apperror.NewInternal("failed to scan account row", err)
	}
	if len(overrides) > 0 {
		if err := json.Unmarshal(overrides, &a.Overrides); err != nil {
			return nil, apperror.NewInternal("failed to unmarshal plan overrides", err)
		}
	}
	return a, nil
}

// Save inserts the account or updates its plan fields.
func (r *postgresAccountRepo) Save(ctx context.Context, a *account.Account) error {
	var overrides []byte
	if a.Overrides != nil {
		var err error
		if overrides, err = json.Marshal(a.Overrides); err != nil {
			return apperror.NewInternal("failed to marshal plan overrides", err)
		}
	}

	query := `
		INSERT INTO accounts (id, email, password_hash, plan, grandfathered, overrides, is_admin, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			plan = EXCLUDED.plan,
			grandfathered = EXCLUDED.grandfathered,
			overrides = EXCLUDED.overrides,
			is_admin = EXCLUDED.is_admin
	`
	_, err := r.db.Exec(ctx, query, a.ID, a.Email, a.PasswordHash, a.Plan, a.Grandfathered, overrides, a.IsAdmin, a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("account", "email", a.Email)
		}
		return apperror.NewInternal("failed to save account", err)
	}
	return nil
}

func (r *postgresAccountRepo) FindByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(r.db.QueryRow(ctx, query, id))
}

func (r *postgresAccountRepo) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`
	return scanAccount(r.db.QueryRow(ctx, query, email))
}
