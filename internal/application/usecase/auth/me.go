package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/internal/domain/plan"
	"github.com/khoahotran/folio/pkg/logger"
)

// MeUseCase reports the caller's account and the limits its plan resolves to.
type MeUseCase struct {
	accountRepo account.Repository
	policy      *plan.Holder
	logger      logger.Logger
}

func NewMeUseCase(repo account.Repository, policy *plan.Holder, log logger.Logger) *MeUseCase {
	return &MeUseCase{accountRepo: repo, policy: policy, logger: log}
}

type MeOutput struct {
	Account *account.Account
	Limits  plan.Limits
}

func (uc *MeUseCase) Execute(ctx context.Context, accountID uuid.UUID) (*MeOutput, error) {
	a, err := uc.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &MeOutput{Account: a, Limits: uc.policy.LimitsFor(a.Subscription())}, nil
}
