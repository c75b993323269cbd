package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	renderUC "github.com/khoahotran/folio/internal/application/usecase/render"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const feedPath = "feed.xml"

// SiteHandler serves published portfolios at /p/:slug.
type SiteHandler struct {
	renderPageUC *renderUC.RenderPageUseCase
	feedUC       *renderUC.FeedUseCase
	logger       logger.Logger
}

func NewSiteHandler(renderUC *renderUC.RenderPageUseCase, feedUC *renderUC.FeedUseCase, log logger.Logger) *SiteHandler {
	return &SiteHandler{renderPageUC: renderUC, feedUC: feedUC, logger: log}
}

// Page serves both /p/:slug and /p/:slug/*page.
func (h *SiteHandler) Page(c *gin.Context) {
	slug := c.Param("slug")
	page := strings.Trim(c.Param("page"), "/")
	if page == feedPath {
		h.feed(c, slug)
		return
	}

	output, err := h.renderPageUC.Execute(c.Request.Context(), renderUC.RenderPageInput{Slug: slug, Page: page})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("X-Render-Cache", strconv.FormatBool(output.Cached))
	c.Data(http.StatusOK, output.Page.ContentType, output.Page.Body)
}

func (h *SiteHandler) feed(c *gin.Context, slug string) {
	feed, err := h.feedUC.Execute(c.Request.Context(), slug)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Type", "application/atom+xml; charset=utf-8")
	if err := feed.WriteAtom(c.Writer); err != nil {
		h.logger.Error("Failed to write feed to response", err, zap.String("slug", slug))
	}
}

// fail answers with a bare status page. Missing and unpublished portfolios
// look the same.
func (h *SiteHandler) fail(c *gin.Context, err error) {
	status := apperror.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Failed to render public page", err, zap.String("path", c.Request.URL.Path))
	}
	c.String(status, http.StatusText(status))
}
