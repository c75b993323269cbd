package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

// Handlers groups everything NewRouter mounts.
type Handlers struct {
	Auth      *AuthHandler
	Wizard    *WizardHandler
	Portfolio *PortfolioHandler
	Media     *MediaHandler
	Site      *SiteHandler
}

func NewRouter(h Handlers, jwtSvc *auth.JWTService, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), ErrorMiddleware(log))

	authMiddleware := AuthMiddleware(jwtSvc, log)

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
		api.POST("/auth/signup", h.Auth.Signup)
		api.POST("/auth/login", h.Auth.Login)
		api.GET("/templates", h.Portfolio.ListTemplates)

		private := api.Group("/")
		private.Use(authMiddleware)
		{
			private.GET("/me/limits", h.Auth.Limits)
			private.POST("/slugs/reserve", h.Portfolio.ReserveSlug)
			private.POST("/media", h.Media.UploadAsset)

			wizard := private.Group("/wizard")
			{
				wizard.POST("", h.Wizard.Start)
				wizard.GET("/:id", h.Wizard.Get)
				wizard.DELETE("/:id", h.Wizard.Reset)
				wizard.PUT("/:id/template", h.Wizard.SelectTemplate)
				wizard.PUT("/:id/sections/:section", h.Wizard.UpdateSection)
				wizard.POST("/:id/next", h.Wizard.Next)
				wizard.POST("/:id/prev", h.Wizard.Prev)
				wizard.POST("/:id/submit", h.Wizard.Submit)
			}

			portfolios := private.Group("/portfolios")
			{
				portfolios.GET("", h.Portfolio.ListMine)
				portfolios.GET("/:id", h.Portfolio.Get)
				portfolios.PUT("/:id", h.Portfolio.Update)
				portfolios.POST("/:id/publish", h.Portfolio.Publish)
				portfolios.POST("/:id/unpublish", h.Portfolio.Unpublish)
				portfolios.DELETE("/:id", h.Portfolio.Delete)
			}
		}
	}

	router.GET("/p/:slug", h.Site.Page)
	router.GET("/p/:slug/*page", h.Site.Page)

	return router
}
