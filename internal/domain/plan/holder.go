package plan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Holder publishes the process-wide policy. Reload swaps the whole policy in
// one atomic store, so readers see either the old table or the new one.
type Holder struct {
	current atomic.Pointer[Policy]
}

func NewHolder(p *Policy) *Holder {
	if p == nil {
		p = Default()
	}
	h := &Holder{}
	h.current.Store(p)
	return h
}

func (h *Holder) Current() *Policy {
	return h.current.Load()
}

func (h *Holder) LimitsFor(s Subscription) Limits {
	return h.Current().LimitsFor(s)
}

// Swap installs p. A nil policy installs the default.
func (h *Holder) Swap(p *Policy) {
	if p == nil {
		p = Default()
	}
	h.current.Store(p)
}

// Reload reads path and swaps in the parsed policy. On error the current
// policy stays in place.
func (h *Holder) Reload(path string) error {
	p, err := LoadFile(path)
	if err != nil {
		return err
	}
	h.Swap(p)
	return nil
}

type policyFile struct {
	Plans map[Tier]Limits `yaml:"plans"`
}

// ParseYAML decodes a plans document.
func ParseYAML(data []byte) (*Policy, error) {
	var f policyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("plan policy: decode: %w", err)
	}
	return NewPolicy(f.Plans)
}

// LoadFile reads a plans file. An empty path or a missing file yields the
// default policy.
func LoadFile(path string) (*Policy, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("plan policy: read %s: %w", path, err)
	}
	p, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("plan policy: %s: %w", path, err)
	}
	return p, nil
}
