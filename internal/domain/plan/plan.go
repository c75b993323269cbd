// Package plan maps an account tier to the quotas and features it may use.
package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

type Tier string

const (
	TierFree          Tier = "free"
	TierPro           Tier = "pro"
	TierGrandfathered Tier = "grandfathered"
)

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierPro, TierGrandfathered:
		return true
	}
	return false
}

// Unlimited disables a numeric quota.
const Unlimited = -1

// Within reports whether a count n fits under limit.
func Within(limit, n int) bool {
	return limit == Unlimited || n <= limit
}

// TemplateAccess is either every template ("all") or an explicit id list.
type TemplateAccess struct {
	All bool
	IDs []string
}

func AllTemplates() TemplateAccess { return TemplateAccess{All: true} }

func OnlyTemplates(ids ...string) TemplateAccess {
	return TemplateAccess{IDs: slices.Clone(ids)}
}

func (a TemplateAccess) Allows(templateID string) bool {
	return a.All || slices.Contains(a.IDs, templateID)
}

func (a TemplateAccess) clone() TemplateAccess {
	return TemplateAccess{All: a.All, IDs: slices.Clone(a.IDs)}
}

func (a TemplateAccess) MarshalJSON() ([]byte, error) {
	if a.All {
		return json.Marshal("all")
	}
	ids := a.IDs
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

func (a *TemplateAccess) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != "all" {
			return fmt.Errorf("template access: unexpected value %q", s)
		}
		*a = AllTemplates()
		return nil
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return fmt.Errorf("template access: %w", err)
	}
	*a = TemplateAccess{IDs: ids}
	return nil
}

func (a *TemplateAccess) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value != "all" {
			return fmt.Errorf("line %d: templates must be \"all\" or a list", node.Line)
		}
		*a = AllTemplates()
		return nil
	case yaml.SequenceNode:
		var ids []string
		if err := node.Decode(&ids); err != nil {
			return err
		}
		*a = TemplateAccess{IDs: ids}
		return nil
	}
	return fmt.Errorf("line %d: templates must be \"all\" or a list", node.Line)
}

// Limits is what a tier may do.
type Limits struct {
	Portfolios int            `json:"portfolios" yaml:"portfolios"`
	Projects   int            `json:"projects" yaml:"projects"`
	Images     int            `json:"images" yaml:"images"`
	DarkMode   bool           `json:"dark_mode" yaml:"dark_mode"`
	Templates  TemplateAccess `json:"templates" yaml:"templates"`
	Watermark  bool           `json:"watermark" yaml:"watermark"`
	Analytics  bool           `json:"analytics" yaml:"analytics"`
}

// Overrides replaces individual fields of a tier's limits. Nil fields keep
// the base value.
type Overrides struct {
	Portfolios *int            `json:"portfolios,omitempty"`
	Projects   *int            `json:"projects,omitempty"`
	Images     *int            `json:"images,omitempty"`
	DarkMode   *bool           `json:"dark_mode,omitempty"`
	Templates  *TemplateAccess `json:"templates,omitempty"`
	Watermark  *bool           `json:"watermark,omitempty"`
	Analytics  *bool           `json:"analytics,omitempty"`
}

func (o *Overrides) apply(l Limits) Limits {
	if o == nil {
		return l
	}
	if o.Portfolios != nil {
		l.Portfolios = *o.Portfolios
	}
	if o.Projects != nil {
		l.Projects = *o.Projects
	}
	if o.Images != nil {
		l.Images = *o.Images
	}
	if o.DarkMode != nil {
		l.DarkMode = *o.DarkMode
	}
	if o.Templates != nil {
		l.Templates = o.Templates.clone()
	}
	if o.Watermark != nil {
		l.Watermark = *o.Watermark
	}
	if o.Analytics != nil {
		l.Analytics = *o.Analytics
	}
	return l
}

// Subscription is the part of an account the policy looks at.
type Subscription struct {
	Plan          Tier
	Grandfathered bool
	Overrides     *Overrides
}

// Policy is an immutable tier table. Build a new one to change it.
type Policy struct {
	plans map[Tier]Limits
}

var ErrIncompletePolicy = errors.New("plan policy must define free, pro and grandfathered")

func NewPolicy(plans map[Tier]Limits) (*Policy, error) {
	p := &Policy{plans: make(map[Tier]Limits, len(plans))}
	for tier, l := range plans {
		if !tier.Valid() {
			return nil, fmt.Errorf("plan policy: unknown tier %q", tier)
		}
		l.Templates = l.Templates.clone()
		p.plans[tier] = l
	}
	for _, tier := range []Tier{TierFree, TierPro, TierGrandfathered} {
		if _, ok := p.plans[tier]; !ok {
			return nil, ErrIncompletePolicy
		}
	}
	return p, nil
}

// Default is the built-in policy used when no plans file is configured.
func Default() *Policy {
	p, _ := NewPolicy(map[Tier]Limits{
		TierFree: {
			Portfolios: 1,
			Projects:   3,
			Images:     10,
			Templates:  OnlyTemplates("minimal", "designstudio"),
			Watermark:  true,
		},
		TierPro: {
			Portfolios: 10,
			Projects:   Unlimited,
			Images:     500,
			DarkMode:   true,
			Templates:  AllTemplates(),
			Analytics:  true,
		},
		TierGrandfathered: {
			Portfolios: 3,
			Projects:   20,
			Images:     100,
			DarkMode:   true,
			Templates:  AllTemplates(),
		},
	})
	return p
}

// Base returns the limits of a tier without overrides. Unknown tiers get the
// free limits.
func (p *Policy) Base(tier Tier) Limits {
	l, ok := p.plans[tier]
	if !ok {
		l = p.plans[TierFree]
	}
	l.Templates = l.Templates.clone()
	return l
}

// LimitsFor resolves a subscription: grandfathered overrides win field by
// field over the base limits of the plan.
func (p *Policy) LimitsFor(s Subscription) Limits {
	l := p.Base(s.Plan)
	if s.Grandfathered {
		l = s.Overrides.apply(l)
	}
	return l
}
