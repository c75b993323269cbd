package media_storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/logger"
)

type cloudinaryAdapter struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	logger    logger.Logger
}

func NewCloudinaryAdapter(cfg config.Config, log logger.Logger) (service.Uploader, error) {
	if cfg.Cloudinary.CloudName == "" {
		return nil, fmt.Errorf("cloudinary cloud_name has not config")
	}

	cld, err := cloudinary.NewFromParams(
		cfg.Cloudinary.CloudName,
		cfg.Cloudinary.ApiKey,
		cfg.Cloudinary.ApiSecret,
	)
	if err != nil {
		return nil, fmt.Errorf("cannot init cloudinary: %w", err)
	}

	log.Info("Connect Cloudinary successfully.", zap.String("cloud", cfg.Cloudinary.CloudName))
	return &cloudinaryAdapter{cld: cld, cloudName: cfg.Cloudinary.CloudName, logger: log}, nil
}

func (a *cloudinaryAdapter) Upload(ctx context.Context, file io.Reader, folder string, publicID string) (string, error) {
	uploadParams := uploader.UploadParams{
		PublicID: publicID,
		Folder:   folder,
	}
	result, err := a.cld.Upload.Upload(ctx, file, uploadParams)
	if err != nil {
		return "", fmt.Errorf("failed to upload cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected upload: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}

func (a *cloudinaryAdapter) Delete(ctx context.Context, key string) error {
	result, err := a.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete cloudinary: %w", err)
	}
	if result.Result != "ok" {
		a.logger.Warn("Cloudinary destroy did not remove asset", zap.String("key", key), zap.String("result", result.Result))
	}
	return nil
}

var cloudinaryVersion = regexp.MustCompile(`^v\d+/`)

// KeyFromURL turns https://res.cloudinary.com/<cloud>/image/upload/v123/<key>.<ext>
// back into <key>.
func (a *cloudinaryAdapter) KeyFromURL(url string) (string, bool) {
	return cloudinaryKey(a.cloudName, url)
}

func cloudinaryKey(cloudName, url string) (string, bool) {
	prefix := "https://res.cloudinary.com/" + cloudName + "/"
	if cloudName == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	_, rest, ok := strings.Cut(strings.TrimPrefix(url, prefix), "/upload/")
	if !ok {
		return "", false
	}
	rest = cloudinaryVersion.ReplaceAllString(rest, "")
	key := strings.TrimSuffix(rest, path.Ext(rest))
	if key == "" {
		return "", false
	}
	return key, true
}
