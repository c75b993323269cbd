package account

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/plan"
)

type Account struct {
	ID            uuid.UUID       `json:"id"`
	Email         string          `json:"email"`
	PasswordHash  string          `json:"-"`
	Plan          plan.Tier       `json:"plan"`
	Grandfathered bool            `json:"grandfathered"`
	Overrides     *plan.Overrides `json:"overrides,omitempty"`
	IsAdmin       bool            `json:"is_admin"`
	CreatedAt     time.Time       `json:"created_at"`
}

func New(email, passwordHash string) *Account {
	return &Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Plan:         plan.TierFree,
		CreatedAt:    time.Now().UTC(),
	}
}

func (a *Account) Subscription() plan.Subscription {
	return plan.Subscription{
		Plan:          a.Plan,
		Grandfathered: a.Grandfathered,
		Overrides:     a.Overrides,
	}
}

// Repository stores accounts. Accounts are never deleted.
type Repository interface {
	Save(ctx context.Context, a *Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
}

// Identity is the already authenticated caller.
type Identity struct {
	AccountID uuid.UUID
	IsAdmin   bool
}

// CanManage reports whether the caller may mutate something owned by ownerID.
func (i Identity) CanManage(ownerID uuid.UUID) bool {
	return i.IsAdmin || i.AccountID == ownerID
}
