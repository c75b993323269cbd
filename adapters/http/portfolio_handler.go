package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/application/usecase/publishing"
	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/internal/domain/catalog"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type PortfolioHandler struct {
	resolver *publishing.Resolver
	catalog  *catalog.Catalog
	baseURL  string
	logger   logger.Logger
}

func NewPortfolioHandler(r *publishing.Resolver, c *catalog.Catalog, baseURL string, log logger.Logger) *PortfolioHandler {
	return &PortfolioHandler{resolver: r, catalog: c, baseURL: baseURL, logger: log}
}

func (h *PortfolioHandler) target(c *gin.Context) (account.Identity, uuid.UUID, bool) {
	id, ok := mustIdentity(c)
	if !ok {
		return id, uuid.Nil, false
	}
	portfolioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid portfolio ID", err))
		return id, uuid.Nil, false
	}
	return id, portfolioID, true
}

func (h *PortfolioHandler) ListMine(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	list, err := h.resolver.ListMine(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	dtos := make([]PortfolioDTO, len(list))
	for i, p := range list {
		dtos[i] = ToPortfolioDTO(p, h.baseURL)
	}
	c.JSON(http.StatusOK, dtos)
}

func (h *PortfolioHandler) Get(c *gin.Context) {
	id, portfolioID, ok := h.target(c)
	if !ok {
		return
	}
	p, err := h.resolver.Get(c.Request.Context(), id, portfolioID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToPortfolioDTO(p, h.baseURL))
}

func (h *PortfolioHandler) Update(c *gin.Context) {
	id, portfolioID, ok := h.target(c)
	if !ok {
		return
	}
	var req updatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}

	p, err := h.resolver.Update(c.Request.Context(), publishing.UpdateInput{
		Actor:       id,
		PortfolioID: portfolioID,
		Data:        req.Data,
		ActivePages: req.ActivePages,
		Theme:       req.Theme,
		SEO:         req.SEO,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToPortfolioDTO(p, h.baseURL))
}

func (h *PortfolioHandler) Publish(c *gin.Context) {
	id, portfolioID, ok := h.target(c)
	if !ok {
		return
	}
	var req publishRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperror.NewInvalidInput("invalid request data", err))
			return
		}
	}

	p, err := h.resolver.PublishExisting(c.Request.Context(), publishing.PublishExistingInput{
		Actor:       id,
		PortfolioID: portfolioID,
		Slug:        req.Slug,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToPortfolioDTO(p, h.baseURL))
}

func (h *PortfolioHandler) Unpublish(c *gin.Context) {
	id, portfolioID, ok := h.target(c)
	if !ok {
		return
	}
	p, err := h.resolver.Unpublish(c.Request.Context(), id, portfolioID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToPortfolioDTO(p, h.baseURL))
}

func (h *PortfolioHandler) Delete(c *gin.Context) {
	id, portfolioID, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.resolver.Delete(c.Request.Context(), id, portfolioID); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReserveSlug checks a candidate against published portfolios. A taken slug
// answers 409 with a suggestion.
func (h *PortfolioHandler) ReserveSlug(c *gin.Context) {
	var req reserveSlugRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	slug, err := h.resolver.ReserveSlug(c.Request.Context(), req.Slug)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": slug})
}

func (h *PortfolioHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.ListByCategory(c.Query("category")))
}
