package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/folio/internal/application/usecase/auth"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type AuthHandler struct {
	loginUseCase  *auth.LoginUseCase
	signupUseCase *auth.SignupUseCase
	meUseCase     *auth.MeUseCase
	logger        logger.Logger
}

func NewAuthHandler(loginUC *auth.LoginUseCase, signupUC *auth.SignupUseCase, meUC *auth.MeUseCase, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		loginUseCase:  loginUC,
		signupUseCase: signupUC,
		meUseCase:     meUC,
		logger:        log,
	}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}

	output, err := h.signupUseCase.Execute(c.Request.Context(), auth.SignupInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"access_token": output.AccessToken,
		"account":      ToAccountDTO(output.Account),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}

	output, err := h.loginUseCase.Execute(c.Request.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": output.AccessToken,
	})
}

// Limits returns the caller's account and the limits its plan resolves to.
func (h *AuthHandler) Limits(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}

	output, err := h.meUseCase.Execute(c.Request.Context(), id.AccountID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account": ToAccountDTO(output.Account),
		"limits":  output.Limits,
	})
}
