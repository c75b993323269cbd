package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/folio/adapters/event"
	"github.com/khoahotran/folio/adapters/persistence"
	authUC "github.com/khoahotran/folio/internal/application/usecase/auth"
	mediaUC "github.com/khoahotran/folio/internal/application/usecase/media"
	"github.com/khoahotran/folio/internal/application/usecase/publishing"
	renderUC "github.com/khoahotran/folio/internal/application/usecase/render"
	wizardUC "github.com/khoahotran/folio/internal/application/usecase/wizard"
	"github.com/khoahotran/folio/internal/domain/catalog"
	"github.com/khoahotran/folio/internal/domain/content"
	"github.com/khoahotran/folio/internal/domain/plan"
	"github.com/khoahotran/folio/internal/domain/render"
	"github.com/khoahotran/folio/internal/domain/wizard"
	"github.com/khoahotran/folio/internal/templates"
	"github.com/khoahotran/folio/pkg/auth"
	"github.com/khoahotran/folio/pkg/logger"
)

const testBaseURL = "http://folio.test"

type APITestSuite struct {
	suite.Suite
	Router *gin.Engine
}

func (s *APITestSuite) SetupTest() {
	log := logger.NewNop()
	portfolios := persistence.NewMemoryPortfolioRepo()
	accounts := persistence.NewMemoryAccountRepo()
	cat := catalog.Builtin()
	validator := content.NewValidator()
	policy := plan.NewHolder(nil)
	jwtSvc := auth.NewJWTService("api-test-secret", time.Hour)

	renderers, err := templates.Renderers()
	s.Require().NoError(err)

	resolver := publishing.NewResolver(portfolios, accounts, policy, cat, validator, event.NopPublisher{}, log)
	authoring := wizardUC.NewAuthoringUseCase(
		persistence.NewMemoryDraftStore(time.Hour), wizard.NewMachine(validator, cat),
		accounts, portfolios, policy, resolver, log,
	)
	renderPage := renderUC.NewRenderPageUseCase(
		portfolios, accounts, policy, render.NewDispatcher(cat, renderers),
		persistence.NewMemoryPageCache(), renderUC.Settings{BaseURL: testBaseURL, CountViews: true}, log,
	)

	gin.SetMode(gin.TestMode)
	s.Router = NewRouter(Handlers{
		Auth: NewAuthHandler(
			authUC.NewLoginUseCase(accounts, jwtSvc, log),
			authUC.NewSignupUseCase(accounts, jwtSvc, log),
			authUC.NewMeUseCase(accounts, policy, log),
			log,
		),
		Wizard:    NewWizardHandler(authoring, testBaseURL, log),
		Portfolio: NewPortfolioHandler(resolver, cat, testBaseURL, log),
		Media:     NewMediaHandler(mediaUC.NewUploadAssetUseCase(nil, log), log),
		Site:      NewSiteHandler(renderPage, renderUC.NewFeedUseCase(portfolios, cat, testBaseURL, log), log),
	}, jwtSvc, log)
}

func TestAPI(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			s.Require().NoError(json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	return rr
}

func (s *APITestSuite) decode(rr *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func (s *APITestSuite) signup(email string) string {
	rr := s.do(http.MethodPost, "/api/auth/signup", "", gin.H{"email": email, "password": "analytical-engine"})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	return s.decode(rr)["access_token"].(string)
}

// publish walks the wizard for token and publishes under slug.
func (s *APITestSuite) publish(token, slug string) map[string]any {
	rr := s.do(http.MethodPost, "/api/wizard", token, nil)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	base := "/api/wizard/" + s.decode(rr)["id"].(string)

	rr = s.do(http.MethodPut, base+"/template", token, gin.H{"template_id": "minimal"})
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, base+"/next", token, nil).Code)

	sections := []struct{ name, payload string }{
		{"personal", `{"name":"Ada Lovelace","title":"Engineer","bio":"Building things."}`},
		{"experience", `[]`},
		{"projects", `[{"id":"engine","title":"Engine","short_description":"A general purpose computer","technologies":["brass"]}]`},
		{"skills", `[]`},
		{"socials", `{"github":"https://github.com/ada"}`},
	}
	for _, sec := range sections {
		rr = s.do(http.MethodPut, base+"/sections/"+sec.name, token, sec.payload)
		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		rr = s.do(http.MethodPost, base+"/next", token, nil)
		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	}
	s.Require().Equal("publish", s.decode(rr)["step_name"])

	rr = s.do(http.MethodPost, base+"/submit", token, gin.H{"slug": slug})
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	return s.decode(rr)
}

func (s *APITestSuite) Test_Auth_Flow() {
	token := s.signup("ada@example.com")

	rr := s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "wrongpassword"})
	s.Equal(http.StatusUnauthorized, rr.Code)

	rr = s.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "ada@example.com", "password": "analytical-engine"})
	s.Equal(http.StatusOK, rr.Code)
	s.NotEmpty(s.decode(rr)["access_token"])

	rr = s.do(http.MethodGet, "/api/me/limits", token, nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	body := s.decode(rr)
	s.Equal("free", body["account"].(map[string]any)["plan"])
	s.Equal(true, body["limits"].(map[string]any)["watermark"])

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/me/limits", "", nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/api/wizard", "garbage", nil).Code)
}

func (s *APITestSuite) Test_PublishAndServe() {
	token := s.signup("ada@example.com")
	published := s.publish(token, "ada")
	s.Equal(testBaseURL+"/p/ada", published["url"])

	rr := s.do(http.MethodGet, "/p/ada", "", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "Ada Lovelace")
	s.Contains(rr.Body.String(), "Made with Folio")
	s.Equal("false", rr.Header().Get("X-Render-Cache"))

	rr = s.do(http.MethodGet, "/p/ada", "", nil)
	s.Equal("true", rr.Header().Get("X-Render-Cache"))

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/p/ada/about", "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/p/ada/skills", "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/p/ada/projects/engine", "", nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/p/nobody", "", nil).Code)

	rr = s.do(http.MethodGet, "/p/ada/feed.xml", "", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), "<feed")
	s.Contains(rr.Body.String(), "Engine")

	rr = s.do(http.MethodGet, "/api/portfolios", token, nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	var list []map[string]any
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &list))
	s.Require().Len(list, 1)
	s.Equal(float64(3), list[0]["views"])
}

func (s *APITestSuite) Test_SlugConflictAndOwnership() {
	owner := s.signup("ada@example.com")
	published := s.publish(owner, "ada")
	id := published["id"].(string)

	other := s.signup("grace@example.com")
	rr := s.do(http.MethodPost, "/api/slugs/reserve", other, gin.H{"slug": "Ada"})
	s.Require().Equal(http.StatusConflict, rr.Code)
	s.Equal("ada-1", s.decode(rr)["suggestion"])

	rr = s.do(http.MethodPost, "/api/slugs/reserve", other, gin.H{"slug": "Grace Hopper"})
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal("grace-hopper", s.decode(rr)["slug"])

	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/portfolios/"+id+"/unpublish", other, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/api/portfolios/"+id, other, nil).Code)

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/api/portfolios/"+id+"/unpublish", owner, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/p/ada", "", nil).Code)

	s.Equal(http.StatusOK, s.do(http.MethodPost, "/api/portfolios/"+id+"/publish", owner, nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/p/ada", "", nil).Code)
}

func (s *APITestSuite) Test_WizardErrors() {
	token := s.signup("ada@example.com")
	rr := s.do(http.MethodPost, "/api/wizard", token, nil)
	s.Require().Equal(http.StatusCreated, rr.Code)
	base := "/api/wizard/" + s.decode(rr)["id"].(string)

	rr = s.do(http.MethodPut, base+"/template", token, gin.H{"template_id": "terminal"})
	s.Require().Equal(http.StatusPaymentRequired, rr.Code)
	s.Equal("templates", s.decode(rr)["feature"])

	rr = s.do(http.MethodPost, base+"/next", token, nil)
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = s.do(http.MethodPut, base+"/sections/personal", token, `{"name":"A","title":"Engineer","bio":"ok"}`)
	s.Require().Equal(http.StatusBadRequest, rr.Code)
	s.Contains(s.decode(rr)["fields"], "personal.name")

	s.Equal(http.StatusNotFound, s.do(http.MethodPut, base+"/sections/hobbies", token, `{}`).Code)

	other := s.signup("grace@example.com")
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, base, other, nil).Code)

	s.Equal(http.StatusNoContent, s.do(http.MethodDelete, base, token, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, base, token, nil).Code)
}

func (s *APITestSuite) Test_ListTemplates() {
	rr := s.do(http.MethodGet, "/api/templates?category=developer", "", nil)
	s.Require().Equal(http.StatusOK, rr.Code)
	var list []map[string]any
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &list))
	s.Len(list, 2)
	s.True(strings.EqualFold("developer", list[0]["category"].(string)))
}
