package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

const (
	GinContextKeyIdentity = "identity"
)

func AuthMiddleware(jwtSvc *auth.JWTService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			return
		}

		claims, err := jwtSvc.ValidateToken(tokenString)
		if err != nil {
			log.Debug("Rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(GinContextKeyIdentity, account.Identity{AccountID: claims.AccountID, IsAdmin: claims.IsAdmin})

		c.Next()
	}
}

func GetIdentityFromGinContext(c *gin.Context) (account.Identity, bool) {
	v, ok := c.Get(GinContextKeyIdentity)
	if !ok {
		return account.Identity{}, false
	}
	id, ok := v.(account.Identity)
	return id, ok
}

// mustIdentity records a permission error when the auth middleware did not
// run.
func mustIdentity(c *gin.Context) (account.Identity, bool) {
	id, ok := GetIdentityFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("identity not found in context"))
	}
	return id, ok
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.NewInternal("unexpected error", err)
		}

		status := apperror.ToHTTPStatus(appErr)
		if status >= http.StatusInternalServerError {
			logger.WithTrace(c.Request.Context(), log).Error("Request failed", err,
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
			)
		} else {
			log.Debug("Request rejected", zap.Int("status", status), zap.String("error", appErr.Error()))
		}

		c.JSON(status, appErr.ToJSON())
	}
}
