// Package content defines the portfolio content document and the rules every
// section must pass before it is accepted into a draft.
package content

import "sort"

type SectionName string

const (
	SectionPersonal   SectionName = "personal"
	SectionExperience SectionName = "experience"
	SectionProjects   SectionName = "projects"
	SectionSkills     SectionName = "skills"
	SectionSocials    SectionName = "socials"
)

// Sections lists every section in authoring order.
var Sections = []SectionName{
	SectionPersonal,
	SectionExperience,
	SectionProjects,
	SectionSkills,
	SectionSocials,
}

func (n SectionName) Valid() bool {
	switch n {
	case SectionPersonal, SectionExperience, SectionProjects, SectionSkills, SectionSocials:
		return true
	}
	return false
}

type Personal struct {
	Name     string `json:"name" validate:"required,min=2"`
	Title    string `json:"title" validate:"required,min=2"`
	Bio      string `json:"bio" validate:"required,max=200"`
	LongBio  string `json:"long_bio,omitempty"`
	Location string `json:"location,omitempty"`
	PhotoURL string `json:"photo_url,omitempty" validate:"omitempty,httpurl"`
	CVURL    string `json:"cv_url,omitempty" validate:"omitempty,httpurl"`
}

type Experience struct {
	ID          string `json:"id" validate:"required,ident"`
	Company     string `json:"company" validate:"required,min=2"`
	Position    string `json:"position" validate:"required,min=2"`
	Period      string `json:"period" validate:"required"`
	Description string `json:"description" validate:"required,min=10"`
}

type Project struct {
	ID               string   `json:"id" validate:"required,ident"`
	Title            string   `json:"title" validate:"required,min=2"`
	ShortDescription string   `json:"short_description" validate:"required,min=10"`
	FullDescription  string   `json:"full_description,omitempty"`
	Images           []string `json:"images,omitempty" validate:"dive,httpurl"`
	LiveURL          string   `json:"live_url,omitempty" validate:"omitempty,httpurl"`
	SourceURL        string   `json:"source_url,omitempty" validate:"omitempty,httpurl"`
	Technologies     []string `json:"technologies" validate:"min=1,dive,required"`
	Featured         bool     `json:"featured"`
	Challenge        string   `json:"challenge,omitempty"`
	Solution         string   `json:"solution,omitempty"`
}

type Skill struct {
	Name     string `json:"name" validate:"required"`
	Level    *int   `json:"level,omitempty" validate:"omitempty,min=0,max=100"`
	Category string `json:"category" validate:"required"`
}

// Socials maps a channel name (github, linkedin, email, ...) to an address.
// Empty values are allowed and mean "not set".
type Socials map[string]string

// Document is the draft or published payload of a portfolio.
type Document struct {
	Personal   Personal     `json:"personal"`
	Experience []Experience `json:"experience"`
	Projects   []Project    `json:"projects"`
	Skills     []Skill      `json:"skills"`
	Socials    Socials      `json:"socials"`
}

// Empty returns a document with every list initialised.
func Empty() Document {
	return Document{
		Experience: []Experience{},
		Projects:   []Project{},
		Skills:     []Skill{},
		Socials:    Socials{},
	}
}

func (d Document) ProjectByID(id string) (Project, bool) {
	for _, p := range d.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// FeaturedProjects returns featured projects first, keeping list order otherwise.
func (d Document) FeaturedProjects() []Project {
	out := make([]Project, len(d.Projects))
	copy(out, d.Projects)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Featured && !out[j].Featured
	})
	return out
}

// ImageCount counts every stored image reference: the profile photo and all
// project images.
func (d Document) ImageCount() int {
	n := 0
	if d.Personal.PhotoURL != "" {
		n++
	}
	for _, p := range d.Projects {
		n += len(p.Images)
	}
	return n
}

// SkillsByCategory groups skills, categories in first-seen order.
func (d Document) SkillsByCategory() []SkillGroup {
	var groups []SkillGroup
	index := map[string]int{}
	for _, s := range d.Skills {
		i, ok := index[s.Category]
		if !ok {
			i = len(groups)
			index[s.Category] = i
			groups = append(groups, SkillGroup{Category: s.Category})
		}
		groups[i].Skills = append(groups[i].Skills, s)
	}
	return groups
}

type SkillGroup struct {
	Category string
	Skills   []Skill
}

// Section is one validated section value, tagged by Name.
type Section struct {
	Name       SectionName
	Personal   Personal
	Experience []Experience
	Projects   []Project
	Skills     []Skill
	Socials    Socials
}

// ApplyTo merges the section into doc, replacing that section only.
func (s Section) ApplyTo(doc *Document) {
	switch s.Name {
	case SectionPersonal:
		doc.Personal = s.Personal
	case SectionExperience:
		doc.Experience = s.Experience
	case SectionProjects:
		doc.Projects = s.Projects
	case SectionSkills:
		doc.Skills = s.Skills
	case SectionSocials:
		doc.Socials = s.Socials
	}
}
