package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/khoahotran/folio/pkg/apperror"
)

// ErrUnknownSection is a programmer error: the caller asked for a section
// that does not exist.
var ErrUnknownSection = errors.New("unknown content section")

var (
	identRegex   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	channelRegex = regexp.MustCompile(`^[a-z0-9_]{2,30}$`)
)

// Named wrappers give field errors a path rooted at the section name,
// e.g. "projects[2].title".
type (
	personalSection struct {
		Personal Personal `json:"personal"`
	}
	experienceSection struct {
		Experience []Experience `json:"experience" validate:"dive"`
	}
	projectsSection struct {
		Projects []Project `json:"projects" validate:"dive"`
	}
	skillsSection struct {
		Skills []Skill `json:"skills" validate:"dive"`
	}
)

// Validator checks sections against the content rules. It is safe for
// concurrent use and never touches storage.
type Validator struct {
	v      *validator.Validate
	policy *bluemonday.Policy
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// httpurl: only http:// and https:// links are stored
	v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return IsValidHTTPURL(fl.Field().String())
	})
	// ident: ids end up in page paths such as projects/<id>
	v.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		return identRegex.MatchString(fl.Field().String())
	})

	return &Validator{v: v, policy: bluemonday.UGCPolicy()}
}

// ValidateSection decodes and validates one section payload. On success the
// returned section holds the sanitized value; on failure the error is a
// validation error with one message per offending field.
func (val *Validator) ValidateSection(name SectionName, payload json.RawMessage) (Section, error) {
	if !name.Valid() {
		return Section{}, apperror.NewInternal(fmt.Sprintf("section %q", name), ErrUnknownSection)
	}

	section := Section{Name: name}
	var target any
	switch name {
	case SectionPersonal:
		target = &section.Personal
	case SectionExperience:
		target = &section.Experience
	case SectionProjects:
		target = &section.Projects
	case SectionSkills:
		target = &section.Skills
	case SectionSocials:
		target = &section.Socials
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(target); err != nil {
		return Section{}, apperror.NewValidation(map[string]string{
			string(name): "is malformed: " + err.Error(),
		})
	}

	return val.Check(section)
}

// Check validates an already decoded section.
func (val *Validator) Check(section Section) (Section, error) {
	fields := val.sectionErrors(section)
	if len(fields) > 0 {
		return Section{}, apperror.NewValidation(fields)
	}
	return val.sanitize(section), nil
}

// ValidateDocument re-validates every section of doc and reports all field
// errors at once.
func (val *Validator) ValidateDocument(doc Document) error {
	fields := map[string]string{}
	for _, name := range Sections {
		s := Section{Name: name}
		s.Personal = doc.Personal
		s.Experience = doc.Experience
		s.Projects = doc.Projects
		s.Skills = doc.Skills
		s.Socials = doc.Socials
		for k, msg := range val.sectionErrors(s) {
			fields[k] = msg
		}
	}
	if len(fields) > 0 {
		return apperror.NewValidation(fields)
	}
	return nil
}

// Sanitize returns doc with every rich-text field cleaned.
func (val *Validator) Sanitize(doc Document) Document {
	doc.Personal.LongBio = val.clean(doc.Personal.LongBio)
	projects := make([]Project, len(doc.Projects))
	for i, p := range doc.Projects {
		projects[i] = val.sanitizeProject(p)
	}
	doc.Projects = projects
	return doc
}

func (val *Validator) sectionErrors(s Section) map[string]string {
	fields := map[string]string{}

	switch s.Name {
	case SectionPersonal:
		val.collect(fields, personalSection{s.Personal})
	case SectionExperience:
		val.collect(fields, experienceSection{s.Experience})
		for i := range duplicateIndexes(len(s.Experience), func(i int) string { return s.Experience[i].ID }) {
			fields[fmt.Sprintf("experience[%d].id", i)] = "must be unique"
		}
	case SectionProjects:
		val.collect(fields, projectsSection{s.Projects})
		for i := range duplicateIndexes(len(s.Projects), func(i int) string { return s.Projects[i].ID }) {
			fields[fmt.Sprintf("projects[%d].id", i)] = "must be unique"
		}
	case SectionSkills:
		val.collect(fields, skillsSection{s.Skills})
	case SectionSocials:
		for channel, addr := range s.Socials {
			key := "socials." + channel
			if !channelRegex.MatchString(channel) {
				fields[key] = "is not a valid channel name"
				continue
			}
			if addr == "" {
				continue
			}
			if channel == "email" {
				if err := val.v.Var(addr, "email"); err != nil {
					fields[key] = "must be a valid email address"
				}
				continue
			}
			if !IsValidHTTPURL(addr) {
				fields[key] = "must be a valid URL starting with http:// or https://"
			}
		}
	}
	return fields
}

func (val *Validator) collect(fields map[string]string, wrapper any) {
	err := val.v.Struct(wrapper)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["_"] = err.Error()
		return
	}
	for _, fe := range verrs {
		ns := fe.Namespace()
		// drop the wrapper type's name
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		if _, seen := fields[ns]; !seen {
			fields[ns] = formatMessage(fe)
		}
	}
}

func (val *Validator) sanitize(s Section) Section {
	switch s.Name {
	case SectionPersonal:
		s.Personal.LongBio = val.clean(s.Personal.LongBio)
	case SectionProjects:
		out := make([]Project, len(s.Projects))
		for i, p := range s.Projects {
			out[i] = val.sanitizeProject(p)
		}
		s.Projects = out
	}
	return s
}

func (val *Validator) sanitizeProject(p Project) Project {
	p.FullDescription = val.clean(p.FullDescription)
	p.Challenge = val.clean(p.Challenge)
	p.Solution = val.clean(p.Solution)
	return p
}

func (val *Validator) clean(html string) string {
	if html == "" {
		return ""
	}
	return strings.TrimSpace(val.policy.Sanitize(html))
}

func formatMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		switch fe.Kind() {
		case reflect.String:
			return "must be at least " + fe.Param() + " characters"
		case reflect.Slice, reflect.Map:
			return "must have at least " + fe.Param() + " item(s)"
		default:
			return "must be at least " + fe.Param()
		}
	case "max":
		switch fe.Kind() {
		case reflect.String:
			return "must be at most " + fe.Param() + " characters"
		case reflect.Slice, reflect.Map:
			return "must have at most " + fe.Param() + " item(s)"
		default:
			return "must be at most " + fe.Param()
		}
	case "httpurl":
		return "must be a valid URL starting with http:// or https://"
	case "ident":
		return "may only contain letters, digits, '-' and '_'"
	default:
		return "is invalid"
	}
}

// duplicateIndexes returns the indexes whose key already appeared earlier.
func duplicateIndexes(n int, key func(int) string) map[int]string {
	seen := make(map[string]bool, n)
	dups := map[int]string{}
	for i := 0; i < n; i++ {
		k := key(i)
		if k == "" {
			continue
		}
		if seen[k] {
			dups[i] = k
		}
		seen[k] = true
	}
	return dups
}

// IsValidHTTPURL checks if the given string is a valid http:// or https:// URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
