package media

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/logger"
)

// ReleaseAssetsUseCase deletes uploaded files of a removed portfolio that no
// other portfolio of the same owner still references.
type ReleaseAssetsUseCase struct {
	portfolios portfolio.Repository
	uploader   service.Uploader
	logger     logger.Logger
}

func NewReleaseAssetsUseCase(r portfolio.Repository, u service.Uploader, log logger.Logger) *ReleaseAssetsUseCase {
	return &ReleaseAssetsUseCase{portfolios: r, uploader: u, logger: log}
}

type ReleaseAssetsInput struct {
	OwnerID uuid.UUID
	URLs    []string
}

// Execute returns the number of deleted files.
func (uc *ReleaseAssetsUseCase) Execute(ctx context.Context, in ReleaseAssetsInput) (int, error) {
	remaining, err := uc.portfolios.ListByOwner(ctx, in.OwnerID)
	if err != nil {
		return 0, err
	}
	inUse := map[string]bool{}
	for _, p := range remaining {
		inUse[p.Data.Personal.PhotoURL] = true
		inUse[p.Data.Personal.CVURL] = true
		for _, pr := range p.Data.Projects {
			for _, img := range pr.Images {
				inUse[img] = true
			}
		}
	}

	ownFolder := AssetFolder(in.OwnerID) + "/"
	deleted := 0
	for _, url := range in.URLs {
		if inUse[url] {
			continue
		}
		key, ok := uc.uploader.KeyFromURL(url)
		if !ok || !strings.HasPrefix(key, ownFolder) {
			continue
		}
		if err := uc.uploader.Delete(ctx, key); err != nil {
			uc.logger.Warn("Failed to delete asset", zap.String("key", key), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}
