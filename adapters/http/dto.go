package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/plan"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/internal/domain/wizard"
)

// Auth DTOs
type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AccountDTO struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	Plan          plan.Tier `json:"plan"`
	Grandfathered bool      `json:"grandfathered"`
	IsAdmin       bool      `json:"is_admin"`
	CreatedAt     time.Time `json:"created_at"`
}

func ToAccountDTO(a *account.Account) AccountDTO {
	return AccountDTO{
		ID:            a.ID,
		Email:         a.Email,
		Plan:          a.Plan,
		Grandfathered: a.Grandfathered,
		IsAdmin:       a.IsAdmin,
		CreatedAt:     a.CreatedAt,
	}
}

// Wizard DTOs
type DraftDTO struct {
	ID          uuid.UUID         `json:"id"`
	Step        int               `json:"step"`
	StepName    string            `json:"step_name"`
	TemplateID  string            `json:"template_id,omitempty"`
	Content     content.Document  `json:"content"`
	Completed   []string          `json:"completed"`
	Slug        string            `json:"slug,omitempty"`
	ActivePages []string          `json:"active_pages,omitempty"`
	Theme       portfolio.Theme   `json:"theme"`
	SEO         *portfolio.SEO    `json:"seo,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func ToDraftDTO(d *wizard.Draft) DraftDTO {
	completed := make([]string, 0, len(d.Completed))
	for s := wizard.StepTemplate; s <= wizard.StepPublish; s++ {
		if d.Completed[s] {
			completed = append(completed, s.String())
		}
	}
	return DraftDTO{
		ID:          d.ID,
		Step:        int(d.CurrentStep),
		StepName:    d.CurrentStep.String(),
		TemplateID:  d.TemplateID,
		Content:     d.Content,
		Completed:   completed,
		Slug:        d.Slug,
		ActivePages: d.ActivePages,
		Theme:       d.Theme,
		SEO:         d.SEO,
		Errors:      d.Errors,
		UpdatedAt:   d.UpdatedAt,
	}
}

type selectTemplateRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
}

type submitRequest struct {
	Slug        string           `json:"slug" binding:"required"`
	ActivePages []string         `json:"active_pages"`
	Theme       *portfolio.Theme `json:"theme"`
	SEO         *portfolio.SEO   `json:"seo"`
}

// Portfolio DTOs
type PortfolioDTO struct {
	ID          uuid.UUID        `json:"id"`
	Slug        string           `json:"slug"`
	URL         string           `json:"url,omitempty"`
	TemplateID  string           `json:"template_id"`
	IsPublished bool             `json:"is_published"`
	ActivePages []string         `json:"active_pages"`
	Data        content.Document `json:"data"`
	Theme       portfolio.Theme  `json:"theme"`
	SEO         portfolio.SEO    `json:"seo"`
	Views       int64            `json:"views"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func ToPortfolioDTO(p *portfolio.Portfolio, baseURL string) PortfolioDTO {
	dto := PortfolioDTO{
		ID:          p.ID,
		Slug:        p.Slug,
		TemplateID:  p.TemplateID,
		IsPublished: p.IsPublished,
		ActivePages: p.ActivePages,
		Data:        p.Data,
		Theme:       p.Theme,
		SEO:         p.SEO,
		Views:       p.Views,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.IsPublished {
		dto.URL = baseURL + "/p/" + p.Slug
	}
	return dto
}

type updatePortfolioRequest struct {
	Data        *content.Document `json:"data"`
	ActivePages []string          `json:"active_pages"`
	Theme       *portfolio.Theme  `json:"theme"`
	SEO         *portfolio.SEO    `json:"seo"`
}

type publishRequest struct {
	Slug string `json:"slug"`
}

type reserveSlugRequest struct {
	Slug string `json:"slug" binding:"required"`
}
