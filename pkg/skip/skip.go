// Package skip decides which encounter dialogues are replaced by the fast menu.
package skip

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule matches a character id containing any of its substrings.
type Rule struct {
	Name     string   `yaml:"name"`
	Contains []string `yaml:"contains"`
	Skip     bool     `yaml:"skip"`
}

// Matches reports whether id contains any of the rule's substrings.
// Matching is case-sensitive.
func (r Rule) Matches(id string) bool {
	for _, s := range r.Contains {
		if strings.Contains(id, s) {
			return true
		}
	}
	return false
}

// Rules are evaluated top to bottom and the first match wins.
type Rules []Rule

// DefaultRules is the built-in rule list. Order matters: an id containing
// both "lord" and "boss" is skipped.
var DefaultRules = Rules{
	{Name: "common", Contains: []string{"villager", "looter", "lord", "spc_"}, Skip: true},
	{Name: "boss", Contains: []string{"boss"}, Skip: false},
	{Name: "raiders", Contains: []string{"bandits", "sea_raiders"}, Skip: true},
}

// ShouldSkip applies DefaultRules to a character id.
func ShouldSkip(characterID string) bool {
	return DefaultRules.ShouldSkip(characterID)
}

// ShouldSkip returns the decision of the first matching rule, or false when
// no rule matches.
func (rs Rules) ShouldSkip(characterID string) bool {
	r, ok := rs.Match(characterID)
	return ok && r.Skip
}

// Match returns the first rule matching the id.
func (rs Rules) Match(characterID string) (Rule, bool) {
	for _, r := range rs {
		if r.Matches(characterID) {
			return r, true
		}
	}
	return Rule{}, false
}

// Validate rejects rules that could never match or would match everything.
func (rs Rules) Validate() error {
	var errs []error
	for i, r := range rs {
		label := r.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}
		if len(r.Contains) == 0 {
			errs = append(errs, fmt.Errorf("rule %s: no substrings", label))
			continue
		}
		for _, s := range r.Contains {
			if s == "" {
				errs = append(errs, fmt.Errorf("rule %s: empty substring matches every id", label))
			}
		}
	}
	return errors.Join(errs...)
}

type rulesFile struct {
	Rules Rules `yaml:"rules"`
}

// ParseRules reads a YAML rules document of the form
//
//	rules:
//	  - name: common
//	    contains: [villager, looter]
//	    skip: true
func ParseRules(data []byte) (Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("skip: unmarshal rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, errors.New("skip: rules file defines no rules")
	}
	if err := f.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("skip: invalid rules: %w", err)
	}
	return f.Rules, nil
}

// LoadRules reads and parses a YAML rules file.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("skip: load %s: %w", path, err)
	}
	return ParseRules(data)
}

// Marshal renders rules in the format ParseRules reads.
func (rs Rules) Marshal() ([]byte, error) {
	return yaml.Marshal(rulesFile{Rules: rs})
}
