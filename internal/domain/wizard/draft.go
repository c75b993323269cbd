// Package wizard is the step-wise authoring flow that accumulates a content
// document before it becomes a portfolio.
package wizard

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/portfolio"
)

type Step int

const (
	StepTemplate Step = iota + 1
	StepPersonal
	StepExperience
	StepProjects
	StepSkills
	StepSocials
	StepPublish
)

var stepNames = map[Step]string{
	StepTemplate:   "template",
	StepPersonal:   "personal",
	StepExperience: "experience",
	StepProjects:   "projects",
	StepSkills:     "skills",
	StepSocials:    "socials",
	StepPublish:    "publish",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Step) Terminal() bool { return s == StepPublish }

// Draft is the in-progress authoring state of one account. It is never a
// portfolio: only a successful submit turns it into one.
type Draft struct {
	ID          uuid.UUID         `json:"id"`
	OwnerID     uuid.UUID         `json:"owner_id"`
	CurrentStep Step              `json:"current_step"`
	TemplateID  string            `json:"template_id"`
	Content     content.Document  `json:"content"`
	Completed   map[Step]bool     `json:"completed"`
	Slug        string            `json:"slug,omitempty"`
	ActivePages []string          `json:"active_pages,omitempty"`
	Theme       portfolio.Theme   `json:"theme"`
	SEO         *portfolio.SEO    `json:"seo,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (d *Draft) completed(s Step) bool {
	return d.Completed[s]
}

func (d *Draft) markCompleted(s Step) {
	if d.Completed == nil {
		d.Completed = map[Step]bool{}
	}
	d.Completed[s] = true
}

// Store keeps drafts per owner. A draft is only reachable with its owner id.
type Store interface {
	Save(ctx context.Context, d *Draft) error
	Get(ctx context.Context, ownerID, id uuid.UUID) (*Draft, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
