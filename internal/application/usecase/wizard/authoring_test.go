package wizard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/folio/adapters/event"
	"github.com/khoahotran/folio/adapters/persistence"
	"github.com/khoahotran/folio/internal/application/usecase/publishing"
	"github.com/khoahotran/folio/internal/domain/account"
	"github.com/khoahotran/folio/internal/domain/catalog"
	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/plan"
	"github.com/khoahotran/folio/internal/domain/wizard"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

type AuthoringSuite struct {
	suite.Suite
	ctx        context.Context
	uc         *AuthoringUseCase
	drafts     *persistence.MemoryDraftStore
	portfolios *persistence.MemoryPortfolioRepo
	accounts   *persistence.MemoryAccountRepo
	owner      *account.Account
}

func TestAuthoringSuite(t *testing.T) {
	suite.Run(t, new(AuthoringSuite))
}

func (s *AuthoringSuite) SetupTest() {
	s.ctx = context.Background()
	s.drafts = persistence.NewMemoryDraftStore(time.Hour)
	s.portfolios = persistence.NewMemoryPortfolioRepo()
	s.accounts = persistence.NewMemoryAccountRepo()

	validator := content.NewValidator()
	cat := catalog.Builtin()
	policy := plan.NewHolder(nil)
	resolver := publishing.NewResolver(s.portfolios, s.accounts, policy, cat, validator, event.NopPublisher{}, logger.NewNop())
	s.uc = NewAuthoringUseCase(s.drafts, wizard.NewMachine(validator, cat), s.accounts, s.portfolios, policy, resolver, logger.NewNop())

	s.owner = s.newAccount()
}

func (s *AuthoringSuite) newAccount() *account.Account {
	a := account.New(uuid.NewString()+"@example.com", "hash")
	s.Require().NoError(s.accounts.Save(s.ctx, a))
	return a
}

func (s *AuthoringSuite) ref(d *wizard.Draft) DraftRef {
	return DraftRef{OwnerID: d.OwnerID, DraftID: d.ID}
}

func projects(n int) json.RawMessage {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":"p%d","title":"Project %d","short_description":"A project worth showing","technologies":["go"]}`, i, i)
	}
	return json.RawMessage("[" + strings.Join(items, ",") + "]")
}

// author walks a fresh draft to the publish step.
func (s *AuthoringSuite) author(ownerID uuid.UUID) *wizard.Draft {
	d, err := s.uc.Start(s.ctx, ownerID)
	s.Require().NoError(err)
	ref := s.ref(d)

	_, err = s.uc.SelectTemplate(s.ctx, ref, "minimal")
	s.Require().NoError(err)
	steps := []struct {
		name    content.SectionName
		payload string
	}{
		{content.SectionPersonal, `{"name":"Ada Lovelace","title":"Engineer","bio":"Building things."}`},
		{content.SectionExperience, `[]`},
		{content.SectionProjects, `[]`},
		{content.SectionSkills, `[]`},
		{content.SectionSocials, `{"github":"https://github.com/ada"}`},
	}
	_, err = s.uc.Next(s.ctx, ref)
	s.Require().NoError(err)
	for _, st := range steps {
		_, err = s.uc.UpdateSection(s.ctx, ref, st.name, json.RawMessage(st.payload))
		s.Require().NoError(err)
		d, err = s.uc.Next(s.ctx, ref)
		s.Require().NoError(err)
	}
	s.Require().Equal(wizard.StepPublish, d.CurrentStep)
	return d
}

func (s *AuthoringSuite) TestSubmit_FreePlanScenario() {
	d := s.author(s.owner.ID)

	out, err := s.uc.Submit(s.ctx, SubmitInput{DraftRef: s.ref(d), Submission: wizard.Submission{Slug: "ada"}})
	s.Require().NoError(err)
	s.True(out.Portfolio.IsPublished)
	s.Equal("ada", out.Portfolio.Slug)
	s.Equal(int64(0), out.Portfolio.Views)

	_, err = s.uc.Get(s.ctx, s.ref(d))
	s.ErrorIs(err, apperror.ErrNotFound, "draft is discarded after publishing")

	stored, err := s.portfolios.FindPublishedBySlug(s.ctx, "ada")
	s.Require().NoError(err)
	s.Equal(out.Portfolio.ID, stored.ID)
}

func (s *AuthoringSuite) TestUpdateSection_ProjectLimitWritesNothing() {
	d, err := s.uc.Start(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	ref := s.ref(d)

	_, err = s.uc.UpdateSection(s.ctx, ref, content.SectionProjects, projects(3))
	s.Require().NoError(err)

	_, err = s.uc.UpdateSection(s.ctx, ref, content.SectionProjects, projects(4))
	s.Require().Error(err)
	s.ErrorIs(err, apperror.ErrCapability)

	stored, err := s.uc.Get(s.ctx, ref)
	s.Require().NoError(err)
	s.Len(stored.Content.Projects, 3)
}

func (s *AuthoringSuite) TestSelectTemplate_Premium() {
	d, err := s.uc.Start(s.ctx, s.owner.ID)
	s.Require().NoError(err)

	_, err = s.uc.SelectTemplate(s.ctx, s.ref(d), "designstudio")
	s.NoError(err)

	_, err = s.uc.SelectTemplate(s.ctx, s.ref(d), "terminal")
	s.ErrorIs(err, apperror.ErrCapability)

	stored, err := s.uc.Get(s.ctx, s.ref(d))
	s.Require().NoError(err)
	s.Equal("designstudio", stored.TemplateID)
}

func (s *AuthoringSuite) TestSubmit_SlugConflictKeepsDraft() {
	other := s.newAccount()
	first := s.author(other.ID)
	_, err := s.uc.Submit(s.ctx, SubmitInput{DraftRef: s.ref(first), Submission: wizard.Submission{Slug: "ada"}})
	s.Require().NoError(err)

	d := s.author(s.owner.ID)
	_, err = s.uc.Submit(s.ctx, SubmitInput{DraftRef: s.ref(d), Submission: wizard.Submission{Slug: "ada"}})
	s.Require().ErrorIs(err, apperror.ErrConflict)

	stored, err := s.uc.Get(s.ctx, s.ref(d))
	s.Require().NoError(err)
	s.Equal(wizard.StepPublish, stored.CurrentStep)
	s.Equal("is already taken, try ada-1", stored.Errors["slug"])

	n, err := s.portfolios.CountByOwner(s.ctx, s.owner.ID)
	s.Require().NoError(err)
	s.Zero(n)

	out, err := s.uc.Submit(s.ctx, SubmitInput{DraftRef: s.ref(d), Submission: wizard.Submission{Slug: "ada-1"}})
	s.Require().NoError(err)
	s.Equal("ada-1", out.Portfolio.Slug)
}

func (s *AuthoringSuite) TestSubmit_PortfolioLimit() {
	first := s.author(s.owner.ID)
	_, err := s.uc.Submit(s.ctx, SubmitInput{DraftRef: s.ref(first), Submission: wizard.Submission{Slug: "ada"}})
	s.Require().NoError(err)

	second := s.author(s.owner.ID)
	_, err = s.uc.Submit(s.ctx, SubmitInput{DraftRef: s.ref(second), Submission: wizard.Submission{Slug: "ada-two"}})
	s.Require().ErrorIs(err, apperror.ErrCapability)

	stored, err := s.uc.Get(s.ctx, s.ref(second))
	s.Require().NoError(err)
	s.Contains(stored.Errors, "portfolios")
	s.Equal(wizard.StepPublish, stored.CurrentStep)
}

func (s *AuthoringSuite) TestDraftsAreOwnedBySession() {
	d, err := s.uc.Start(s.ctx, s.owner.ID)
	s.Require().NoError(err)

	stranger := s.newAccount()
	_, err = s.uc.Get(s.ctx, DraftRef{OwnerID: stranger.ID, DraftID: d.ID})
	s.ErrorIs(err, apperror.ErrNotFound)

	s.Require().NoError(s.uc.Reset(s.ctx, s.ref(d)))
	_, err = s.uc.Get(s.ctx, s.ref(d))
	s.ErrorIs(err, apperror.ErrNotFound)
}

func TestGrandfatheredOverrideWinsPerField(t *testing.T) {
	policy := plan.NewHolder(nil)
	projects := 5
	a := &account.Account{Plan: plan.TierFree, Grandfathered: true, Overrides: &plan.Overrides{Projects: &projects}}

	limits := policy.LimitsFor(a.Subscription())
	assert.Equal(t, 5, limits.Projects)
	assert.Equal(t, 1, limits.Portfolios)
	require.False(t, limits.Templates.All)
}
