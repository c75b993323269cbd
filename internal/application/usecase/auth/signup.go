package auth

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

const minPasswordLength = 8

type SignupUseCase struct {
	accountRepo account.Repository
	jwtSvc      *auth.JWTService
	logger      logger.Logger
}

func NewSignupUseCase(repo account.Repository, jwtSvc *auth.JWTService, log logger.Logger) *SignupUseCase {
	return &SignupUseCase{accountRepo: repo, jwtSvc: jwtSvc, logger: log}
}

var emailValidator = validator.New()

type SignupInput struct {
	Email    string
	Password string
}

// Execute creates a free account and signs it in.
func (uc *SignupUseCase) Execute(ctx context.Context, input SignupInput) (*LoginOutput, error) {
	ctx, span := tracer.Start(ctx, "Signup")
	defer span.End()

	email := normalizeEmail(input.Email)
	fields := map[string]string{}
	if err := emailValidator.Var(email, "required,email"); err != nil {
		fields["email"] = "must be a valid email address"
	}
	if len(input.Password) < minPasswordLength {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidation(fields)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal("failed to hash password", err)
	}
	a := account.New(email, hash)
	if err := uc.accountRepo.Save(ctx, a); err != nil {
		span.RecordError(err)
		return nil, err
	}

	token, err := uc.jwtSvc.GenerateToken(a.ID, a.IsAdmin)
	if err != nil {
		return nil, apperror.NewInternal("failed to generate token", err)
	}
	uc.logger.Info("Account created", zap.String("account_id", a.ID.String()))
	return &LoginOutput{AccessToken: token, Account: a}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
