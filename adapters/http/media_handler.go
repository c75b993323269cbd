package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mediaUC "github.com/khoahotran/folio/internal/application/usecase/media"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type MediaHandler struct {
	uploadAssetUC *mediaUC.UploadAssetUseCase
	logger        logger.Logger
}

func NewMediaHandler(uploadUC *mediaUC.UploadAssetUseCase, log logger.Logger) *MediaHandler {
	return &MediaHandler{
		uploadAssetUC: uploadUC,
		logger:        log,
	}
}

func (h *MediaHandler) UploadAsset(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.NewInvalidInput("'file' is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("failed to open file", err))
		return
	}
	defer file.Close()

	output, err := h.uploadAssetUC.Execute(c.Request.Context(), mediaUC.UploadAssetInput{
		OwnerID: id.AccountID,
		File:    file,
		Size:    fileHeader.Size,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": output.URL})
}
