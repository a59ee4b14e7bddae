// ABOUTME: Per-title bundle selection policy
// ABOUTME: Maps title, volume group, demo flag and disk to an archive name
package sound

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed titles.yaml
var defaultTitles []byte

// TitleRule names the bundles used by one title
type TitleRule struct {
	Music         string `yaml:"music"`
	Voice         string `yaml:"voice"`
	DemoMusic     string `yaml:"demo_music"`
	DemoVoice     string `yaml:"demo_voice"`
	HeaderOutside bool   `yaml:"header_outside"`
}

// TitlePolicy selects bundle archives for the running title
type TitlePolicy struct {
	Title string
	Demo  bool
	Disk  int
	rule  TitleRule
}

// ParseTitleRules decodes a YAML title table
func ParseTitleRules(data []byte) (map[string]TitleRule, error) {
	rules := make(map[string]TitleRule)
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse title table: %w", err)
	}
	return rules, nil
}

// DefaultTitleRules returns the built-in title table
func DefaultTitleRules() map[string]TitleRule {
	rules, err := ParseTitleRules(defaultTitles)
	if err != nil {
		// embedded table is fixed at build time
		return map[string]TitleRule{}
	}
	return rules
}

// NewTitlePolicy creates a policy for title from rules. A nil rules map uses
// the built-in table.
func NewTitlePolicy(rules map[string]TitleRule, title string, demo bool, disk int) (*TitlePolicy, error) {
	if rules == nil {
		rules = DefaultTitleRules()
	}
	key := strings.ToLower(title)
	rule, ok := rules[key]
	if !ok {
		known := make([]string, 0, len(rules))
		for k := range rules {
			known = append(known, k)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("unknown title %q (known: %s)", title, strings.Join(known, ", "))
	}
	if disk < 1 {
		disk = 1
	}
	return &TitlePolicy{Title: key, Demo: demo, Disk: disk, rule: rule}, nil
}

// HeaderOutside reports whether bundle block headers sit outside region data
func (p *TitlePolicy) HeaderOutside() bool {
	return p.rule.HeaderOutside && !p.Demo
}

// ResolveDisk maps the -1 hint to the current disk
func (p *TitlePolicy) ResolveDisk(disk int) int {
	if disk == -1 {
		return p.Disk
	}
	return disk
}

// BundleName returns the archive holding sounds of group on disk
func (p *TitlePolicy) BundleName(group VolGroup, disk int) (string, error) {
	var pattern string
	switch group {
	case GroupMusic:
		pattern = p.rule.Music
		if p.Demo && p.rule.DemoMusic != "" {
			pattern = p.rule.DemoMusic
		}
	case GroupVoice:
		pattern = p.rule.Voice
		if p.Demo && p.rule.DemoVoice != "" {
			pattern = p.rule.DemoVoice
		}
	default:
		return "", fmt.Errorf("%w: %s sounds are not stored in bundles", ErrInvalidGroup, group)
	}
	if pattern == "" {
		return "", fmt.Errorf("title %s has no %s bundle", p.Title, group)
	}
	if strings.Contains(pattern, "%d") {
		return fmt.Sprintf(pattern, p.ResolveDisk(disk)), nil
	}
	return pattern, nil
}
