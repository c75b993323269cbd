package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	wizardUC "github.com/khoahotran/folio/internal/application/usecase/wizard"
	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/wizard"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const maxSectionBody = 1 << 20

type WizardHandler struct {
	authoring *wizardUC.AuthoringUseCase
	baseURL   string
	logger    logger.Logger
}

func NewWizardHandler(uc *wizardUC.AuthoringUseCase, baseURL string, log logger.Logger) *WizardHandler {
	return &WizardHandler{authoring: uc, baseURL: baseURL, logger: log}
}

func (h *WizardHandler) draftRef(c *gin.Context) (wizardUC.DraftRef, bool) {
	id, ok := mustIdentity(c)
	if !ok {
		return wizardUC.DraftRef{}, false
	}
	draftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid draft ID", err))
		return wizardUC.DraftRef{}, false
	}
	return wizardUC.DraftRef{OwnerID: id.AccountID, DraftID: draftID}, true
}

func (h *WizardHandler) respond(c *gin.Context, status int, d *wizard.Draft, err error) {
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(status, ToDraftDTO(d))
}

func (h *WizardHandler) Start(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	d, err := h.authoring.Start(c.Request.Context(), id.AccountID)
	h.respond(c, http.StatusCreated, d, err)
}

func (h *WizardHandler) Get(c *gin.Context) {
	ref, ok := h.draftRef(c)
	if !ok {
		return
	}
	d, err := h.authoring.Get(c.Request.Context(), ref)
	h.respond(c, http.StatusOK, d, err)
}

func (h *WizardHandler) Reset(c *gin.Context) {
	ref, ok := h.draftRef(c)
	if !ok {
		return
	}
	if err := h.authoring.Reset(c.Request.Context(), ref); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WizardHandler) SelectTemplate(c *gin.Context) {
	ref, ok := h.draftRef(c)
	if !ok {
		return
	}
	var req selectTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}
	d, err := h.authoring.SelectTemplate(c.Request.Context(), ref, req.TemplateID)
	h.respond(c, http.StatusOK, d, err)
}

// UpdateSection passes the raw body to the section validator.
func (h *WizardHandler) UpdateSection(c *gin.Context) {
	ref, ok := h.draftRef(c)
	if !ok {
		return
	}
	name := content.SectionName(c.Param("section"))
	if !name.Valid() {
		c.Error(apperror.NewNotFound("section", string(name)))
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSectionBody))
	if err != nil {
		c.Error(apperror.NewInvalidInput("failed to read body", err))
		return
	}
	d, err := h.authoring.UpdateSection(c.Request.Context(), ref, name, body)
	h.respond(c, http.StatusOK, d, err)
}

func (h *WizardHandler) Next(c *gin.Context) {
	ref, ok := h.draftRef(c)
	if !ok {
		return
	}
	d, err := h.authoring.Next(c.Request.Context(), ref)
	h.respond(c, http.StatusOK, d, err)
}

func (h *WizardHandler) Prev(c *gin.Context) {
	ref, ok := h.draftRef(c)
	if !ok {
		return
	}
	d, err := h.authoring.Prev(c.Request.Context(), ref)
	h.respond(c, http.StatusOK, d, err)
}

func (h *WizardHandler) Submit(c *gin.Context) {
	ref, ok := h.draftRef(c)
	if !ok {
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid request data", err))
		return
	}

	output, err := h.authoring.Submit(c.Request.Context(), wizardUC.SubmitInput{
		DraftRef: ref,
		Submission: wizard.Submission{
			Slug:        req.Slug,
			ActivePages: req.ActivePages,
			Theme:       req.Theme,
			SEO:         req.SEO,
		},
	})
	if err != nil {
		c.Error(err)
		return
	}

	h.logger.Info("Portfolio published from wizard",
		zap.String("portfolio_id", output.Portfolio.ID.String()),
		zap.String("slug", output.Portfolio.Slug),
	)
	c.JSON(http.StatusCreated, ToPortfolioDTO(output.Portfolio, h.baseURL))
}
