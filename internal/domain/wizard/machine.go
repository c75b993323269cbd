package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/folio/internal/domain/catalog"
	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/plan"
	"github.com/khoahotran/folio/internal/domain/portfolio"
	"github.com/khoahotran/folio/pkg/apperror"
)

type transition struct {
	next, prev Step
	section    content.SectionName
}

// table is the whole state graph. A step may be left forward only once its
// own data is marked completed.
var table = map[Step]transition{
	StepTemplate:   {next: StepPersonal, prev: StepTemplate},
	StepPersonal:   {next: StepExperience, prev: StepTemplate, section: content.SectionPersonal},
	StepExperience: {next: StepProjects, prev: StepPersonal, section: content.SectionExperience},
	StepProjects:   {next: StepSkills, prev: StepExperience, section: content.SectionProjects},
	StepSkills:     {next: StepSocials, prev: StepProjects, section: content.SectionSkills},
	StepSocials:    {next: StepPublish, prev: StepSkills, section: content.SectionSocials},
	StepPublish:    {next: StepPublish, prev: StepSocials},
}

var ErrTerminalStep = errors.New("publish is the last step")

func stepFor(name content.SectionName) Step {
	for s, t := range table {
		if t.section == name && name != "" {
			return s
		}
	}
	return 0
}

type Machine struct {
	validator *content.Validator
	catalog   *catalog.Catalog
	now       func() time.Time
}

func NewMachine(v *content.Validator, c *catalog.Catalog) *Machine {
	return &Machine{validator: v, catalog: c, now: func() time.Time { return time.Now().UTC() }}
}

func (m *Machine) Start(ownerID uuid.UUID) *Draft {
	return &Draft{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		CurrentStep: StepTemplate,
		Content:     content.Empty(),
		Completed:   map[Step]bool{},
		Theme:       portfolio.DefaultTheme(),
		UpdatedAt:   m.now(),
	}
}

// Next advances one step if the current step's data has passed validation.
func (m *Machine) Next(d *Draft) error {
	t, ok := table[d.CurrentStep]
	if !ok {
		return apperror.NewInternal(fmt.Sprintf("draft %s at step %d", d.ID, d.CurrentStep), errors.New("unknown step"))
	}
	if d.CurrentStep.Terminal() {
		return apperror.NewInvalidInput("submit the draft to publish it", ErrTerminalStep)
	}
	if !d.completed(d.CurrentStep) {
		return apperror.NewValidation(map[string]string{
			d.CurrentStep.String(): "complete this step before continuing",
		})
	}
	d.CurrentStep = t.next
	d.UpdatedAt = m.now()
	return nil
}

// Prev steps back without touching or re-validating any entered data.
func (m *Machine) Prev(d *Draft) {
	if t, ok := table[d.CurrentStep]; ok {
		d.CurrentStep = t.prev
		d.UpdatedAt = m.now()
	}
}

func (m *Machine) SelectTemplate(d *Draft, templateID string, limits plan.Limits) error {
	tpl, ok := m.catalog.GetByID(templateID)
	if !ok {
		return apperror.NewValidation(map[string]string{"template_id": "unknown template"})
	}
	if !limits.Templates.Allows(tpl.ID) {
		return apperror.NewCapability("templates", fmt.Sprintf("template %s is not included in your plan", tpl.ID))
	}
	if d.TemplateID != tpl.ID {
		d.ActivePages = nil
	}
	d.TemplateID = tpl.ID
	d.markCompleted(StepTemplate)
	d.UpdatedAt = m.now()
	return nil
}

// UpdateSection validates payload and merges it into the draft. The current
// step never changes.
func (m *Machine) UpdateSection(d *Draft, name content.SectionName, payload json.RawMessage, limits plan.Limits) error {
	section, err := m.validator.ValidateSection(name, payload)
	if err != nil {
		return err
	}
	if name == content.SectionProjects && !plan.Within(limits.Projects, len(section.Projects)) {
		return apperror.NewCapability("projects", fmt.Sprintf("your plan allows %d projects", limits.Projects))
	}
	section.ApplyTo(&d.Content)
	d.markCompleted(stepFor(name))
	delete(d.Errors, string(name))
	d.UpdatedAt = m.now()
	return nil
}

// Submission is what the publish step adds on top of the content.
type Submission struct {
	Slug        string
	ActivePages []string
	Theme       *portfolio.Theme
	SEO         *portfolio.SEO
}

// Prepare runs the terminal checks and builds the portfolio to publish. It
// writes nothing; on failure the draft keeps its step and carries the errors.
func (m *Machine) Prepare(d *Draft, in Submission, limits plan.Limits, owned int) (*portfolio.Portfolio, error) {
	if !d.CurrentStep.Terminal() {
		return nil, apperror.NewInvalidInput(fmt.Sprintf("draft is at step %s", d.CurrentStep), errors.New("submit is only allowed at the publish step"))
	}
	if in.Slug != "" {
		d.Slug = content.NormalizeSlug(in.Slug)
	}
	if in.ActivePages != nil {
		d.ActivePages = in.ActivePages
	}
	if in.Theme != nil {
		d.Theme = *in.Theme
	}
	if in.SEO != nil {
		d.SEO = in.SEO
	}

	p, err := m.prepare(d, limits, owned)
	if err != nil {
		m.Fail(d, err)
		return nil, err
	}
	d.Errors = nil
	return p, nil
}

func (m *Machine) prepare(d *Draft, limits plan.Limits, owned int) (*portfolio.Portfolio, error) {
	tpl, ok := m.catalog.GetByID(d.TemplateID)
	if !ok {
		return nil, apperror.NewValidation(map[string]string{"template_id": "select a template"})
	}
	if !limits.Templates.Allows(tpl.ID) {
		return nil, apperror.NewCapability("templates", fmt.Sprintf("template %s is not included in your plan", tpl.ID))
	}

	if err := m.validator.ValidateDocument(d.Content); err != nil {
		return nil, err
	}

	if !plan.Within(limits.Portfolios, owned+1) {
		return nil, apperror.NewCapability("portfolios", fmt.Sprintf("your plan allows %d portfolios", limits.Portfolios))
	}
	if !plan.Within(limits.Projects, len(d.Content.Projects)) {
		return nil, apperror.NewCapability("projects", fmt.Sprintf("your plan allows %d projects", limits.Projects))
	}
	if !plan.Within(limits.Images, d.Content.ImageCount()) {
		return nil, apperror.NewCapability("images", fmt.Sprintf("your plan allows %d images", limits.Images))
	}
	theme := d.Theme.WithDefaults()
	if theme.DarkModeEnabled && !limits.DarkMode && !tpl.Features.DarkMode {
		return nil, apperror.NewCapability("dark_mode", "dark mode is not included in your plan or template")
	}

	seo := portfolio.DefaultSEO(d.Content)
	if d.SEO != nil {
		seo = *d.SEO
	}

	now := m.now()
	p := &portfolio.Portfolio{
		ID:          uuid.New(),
		OwnerID:     d.OwnerID,
		Slug:        d.Slug,
		TemplateID:  tpl.ID,
		IsPublished: true,
		ActivePages: portfolio.NormalizePages(d.ActivePages, tpl),
		Data:        m.validator.Sanitize(d.Content),
		Theme:       theme,
		SEO:         seo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(tpl); err != nil {
		return nil, err
	}
	return p, nil
}

// Fail records err on the draft as field errors and pins it to the publish
// step.
func (m *Machine) Fail(d *Draft, err error) {
	d.CurrentStep = StepPublish
	d.Errors = map[string]string{}
	var appErr *apperror.AppError
	switch {
	case len(apperror.FieldErrors(err)) > 0:
		for k, v := range apperror.FieldErrors(err) {
			d.Errors[k] = v
		}
	case errors.As(err, &appErr) && appErr.Feature != "":
		d.Errors[appErr.Feature] = appErr.Details
	case errors.As(err, &appErr) && errors.Is(err, apperror.ErrConflict):
		msg := "is already taken"
		if appErr.Suggestion != "" {
			msg += ", try " + appErr.Suggestion
		}
		d.Errors["slug"] = msg
	default:
		d.Errors["draft"] = "could not be published, try again"
	}
	d.UpdatedAt = m.now()
}
