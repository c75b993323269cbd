package media

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

// MaxAssetSize caps a single upload.
const MaxAssetSize = 10 << 20

type UploadAssetUseCase struct {
	uploader service.Uploader
	logger   logger.Logger
}

func NewUploadAssetUseCase(u service.Uploader, log logger.Logger) *UploadAssetUseCase {
	return &UploadAssetUseCase{uploader: u, logger: log}
}

type UploadAssetInput struct {
	OwnerID uuid.UUID
	File    io.Reader
	Size    int64
}

type UploadAssetOutput struct {
	URL string
}

func AssetFolder(ownerID uuid.UUID) string {
	return fmt.Sprintf("accounts/%s/assets", ownerID)
}

// Execute stores an image or a PDF and returns its public URL. The type is
// sniffed from the content, never taken from the client.
func (uc *UploadAssetUseCase) Execute(ctx context.Context, input UploadAssetInput) (*UploadAssetOutput, error) {
	if input.Size > MaxAssetSize {
		return nil, apperror.NewValidation(map[string]string{"file": "must be at most 10 MB"})
	}

	br := bufio.NewReader(input.File)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, apperror.NewInvalidInput("cannot read upload", err)
	}
	if len(head) == 0 {
		return nil, apperror.NewValidation(map[string]string{"file": "is empty"})
	}
	contentType := http.DetectContentType(head)
	if !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
		return nil, apperror.NewValidation(map[string]string{"file": "must be an image or a PDF"})
	}

	publicID := uuid.NewString()
	url, err := uc.uploader.Upload(ctx, io.LimitReader(br, MaxAssetSize), AssetFolder(input.OwnerID), publicID)
	if err != nil {
		uc.logger.Error("Asset upload failed", err, zap.String("owner_id", input.OwnerID.String()))
		return nil, apperror.NewInternal("failed to upload asset", err)
	}
	return &UploadAssetOutput{URL: url}, nil
}
