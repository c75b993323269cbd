package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const publishedSlugIndex = "portfolios_published_slug_key"

type postgresPortfolioRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresPortfolioRepo(db *pgxpool.Pool, logger logger.Logger) portfolio.Repository {
	return &postgresPortfolioRepo{db: db, logger: logger}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const portfolioColumns = "id, owner_id, slug, template_id, is_published, active_pages, data, theme, seo, views, created_at, updated_at"

func scanPortfolio(row pgx.Row, l logger.Logger) (*portfolio.Portfolio, error) {
	p := &portfolio.Portfolio{}
	var dataBytes, themeBytes, seoBytes []byte

	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Slug,
		&p.TemplateID,
		&p.IsPublished,
		&p.ActivePages,
		&dataBytes,
		&themeBytes,
		&seoBytes,
		&p.Views,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("portfolio", "")
		}
		return nil, apperror.NewInternal("failed to scan portfolio row", err)
	}

	if err := json.Unmarshal(dataBytes, &p.Data); err != nil {
		return nil, apperror.NewInternal("failed to unmarshal portfolio data", err)
	}
	if err := json.Unmarshal(themeBytes, &p.Theme); err != nil {
		l.Warn("Failed to unmarshal portfolio theme", zap.String("portfolio_id", p.ID.String()), zap.Error(err))
		p.Theme = portfolio.DefaultTheme()
	}
	if err := json.Unmarshal(seoBytes, &p.SEO); err != nil {
		l.Warn("Failed to unmarshal portfolio seo", zap.String("portfolio_id", p.ID.String()), zap.Error(err))
		p.SEO = portfolio.DefaultSEO(p.Data)
	}
	if p.Data.Socials == nil {
		p.Data.Socials = content.Socials{}
	}
	return p, nil
}

func scanPortfolios(rows pgx.Rows, l logger.Logger) ([]*portfolio.Portfolio, error) {
	defer rows.Close()
	out := make([]*portfolio.Portfolio, 0)

	for rows.Next() {
		p, err := scanPortfolio(rows, l)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating portfolio rows", err)
	}
	return out, nil
}

func marshalDocuments(p *portfolio.Portfolio) (data, theme, seo []byte, err error) {
	if data, err = json.Marshal(p.Data); err != nil {
		return nil, nil, nil, apperror.NewInternal("failed to marshal portfolio data", err)
	}
	if theme, err = json.Marshal(p.Theme); err != nil {
		return nil, nil, nil, apperror.NewInternal("failed to marshal portfolio theme", err)
	}
	if seo, err = json.Marshal(p.SEO); err != nil {
		return nil, nil, nil, apperror.NewInternal("failed to marshal portfolio seo", err)
	}
	return data, theme, seo, nil
}

// slugConflict reports whether err is the published-slug index rejecting a
// write.
func slugConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == publishedSlugIndex
}

func (r *postgresPortfolioRepo) Create(ctx context.Context, p *portfolio.Portfolio) error {
	data, theme, seo, err := marshalDocuments(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO portfolios (id, owner_id, slug, template_id, is_published, active_pages, data, theme, seo, views, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.Exec(ctx, query,
		p.ID, p.OwnerID, p.Slug, p.TemplateID, p.IsPublished, p.ActivePages,
		data, theme, seo, p.Views, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if slugConflict(err) {
			return apperror.NewConflict("portfolio", "slug", p.Slug)
		}
		return apperror.NewInternal("failed to save portfolio", err)
	}
	return nil
}

func (r *postgresPortfolioRepo) Publish(ctx context.Context, id uuid.UUID, slug string, at time.Time) error {
	query := `UPDATE portfolios SET slug = $2, is_published = TRUE, updated_at = $3 WHERE id = $1 AND NOT is_published`
	cmdTag, err := r.db.Exec(ctx, query, id, slug, at)
	if err != nil {
		if slugConflict(err) {
			return apperror.NewConflict("portfolio", "slug", slug)
		}
		return apperror.NewInternal("failed to publish portfolio", err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM portfolios WHERE id = $1)`, id).Scan(&exists); err != nil {
		return apperror.NewInternal("failed to publish portfolio", err)
	}
	if !exists {
		return apperror.NewNotFound("portfolio", id.String())
	}
	return portfolio.NewAlreadyPublished(id)
}

func (r *postgresPortfolioRepo) Unpublish(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE portfolios SET is_published = FALSE, updated_at = $2 WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, query, id, at)
	if err != nil {
		return apperror.NewInternal("failed to unpublish portfolio", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("portfolio", id.String())
	}
	return nil
}

func (r *postgresPortfolioRepo) IncrementViews(ctx context.Context, id uuid.UUID) (int64, error) {
	query := `UPDATE portfolios SET views = views + 1 WHERE id = $1 AND is_published RETURNING views`
	var views int64
	if err := r.db.QueryRow(ctx, query, id).Scan(&views); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperror.NewNotFound("portfolio", id.String())
		}
		return 0, apperror.NewInternal("failed to increment views", err)
	}
	return views, nil
}

func (r *postgresPortfolioRepo) Update(ctx context.Context, p *portfolio.Portfolio) error {
	data, theme, seo, err := marshalDocuments(p)
	if err != nil {
		return err
	}

	query := `
		UPDATE portfolios SET
			template_id = $2, active_pages = $3, data = $4, theme = $5, seo = $6, updated_at = $7
		WHERE id = $1
	`
	cmdTag, err := r.db.Exec(ctx, query, p.ID, p.TemplateID, p.ActivePages, data, theme, seo, p.UpdatedAt)
	if err != nil {
		return apperror.NewInternal("failed to update portfolio", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("portfolio", p.ID.String())
	}
	return nil
}

func (r *postgresPortfolioRepo) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM portfolios WHERE id = $1`, id)
	if err != nil {
		return apperror.NewInternal("failed to delete portfolio", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperror.NewNotFound("portfolio", id.String())
	}
	return nil
}

func (r *postgresPortfolioRepo) FindByID(ctx context.Context, id uuid.UUID) (*portfolio.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE id = $1`
	return scanPortfolio(r.db.QueryRow(ctx, query, id), r.logger)
}

func (r *postgresPortfolioRepo) FindPublishedBySlug(ctx context.Context, slug string) (*portfolio.Portfolio, error) {
	query := `SELECT ` + portfolioColumns + ` FROM portfolios WHERE slug = $1 AND is_published`
	return scanPortfolio(r.db.QueryRow(ctx, query, slug), r.logger)
}

func (r *postgresPortfolioRepo) SlugTaken(ctx context.Context, slug string) (bool, error) {
	sub, args, err := psql.Select("1").From("portfolios").
		Where(sq.Eq{"slug": slug, "is_published": true}).
		ToSql()
	if err != nil {
		return false, apperror.NewInternal("failed to build slug query", err)
	}

	var taken bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS ("+sub+")", args...).Scan(&taken); err != nil {
		return false, apperror.NewInternal("failed to check slug", err)
	}
	return taken, nil
}

func (r *postgresPortfolioRepo) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	sql, args, err := psql.Select("COUNT(*)").From("portfolios").
		Where(sq.Eq{"owner_id": ownerID}).
		ToSql()
	if err != nil {
		return 0, apperror.NewInternal("failed to build count query", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, apperror.NewInternal("failed to count portfolios", err)
	}
	return n, nil
}

func (r *postgresPortfolioRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*portfolio.Portfolio, error) {
	sql, args, err := psql.Select(portfolioColumns).
		From("portfolios").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list by owner query", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query portfolios by owner", err)
	}
	return scanPortfolios(rows, r.logger)
}
