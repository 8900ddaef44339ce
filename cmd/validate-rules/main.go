package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/fast-dialogue/pkg/skip"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <rules.yaml> [character_id ...]\n", os.Args[0])
		os.Exit(1)
	}

	validator := &RulesValidator{}
	rules, err := validator.validateFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Rules file is valid!")

	printDecisions(os.Stdout, rules, os.Args[2:])
}

type RulesValidator struct {
	errors   []string
	warnings []string
}

var ruleNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

func (v *RulesValidator) validateFile(filename string) (skip.Rules, error) {
	fmt.Printf("Validating %s...\n", filename)

	ext := filepath.Ext(filename)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("rules file must have .yaml or .yml extension: %s", filepath.Base(filename))
	}

	rules, err := skip.LoadRules(filename)
	if err != nil {
		return nil, err
	}

	v.errors = nil
	v.warnings = nil
	v.validateRules(rules)

	for _, w := range v.warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if len(v.errors) > 0 {
		return nil, fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return rules, nil
}

// validateRules checks what parsing cannot: names, duplicates and rules
// shadowed by an earlier substring.
func (v *RulesValidator) validateRules(rules skip.Rules) {
	seen := make(map[string]bool)
	claimed := make(map[string]string)

	for i, r := range rules {
		if r.Name == "" {
			v.errors = append(v.errors, fmt.Sprintf("rule #%d has no name", i+1))
		} else if !ruleNamePattern.MatchString(r.Name) {
			v.errors = append(v.errors, fmt.Sprintf("rule name '%s' must be lowercase snake_case", r.Name))
		}
		if seen[r.Name] {
			v.errors = append(v.errors, fmt.Sprintf("duplicate rule name '%s'", r.Name))
		}
		seen[r.Name] = true

		for _, s := range r.Contains {
			if owner, ok := claimed[s]; ok {
				v.warnings = append(v.warnings, fmt.Sprintf("substring '%s' in rule '%s' never applies, rule '%s' matches it first", s, r.Name, owner))
				continue
			}
			for earlier, owner := range claimed {
				if strings.Contains(s, earlier) {
					v.warnings = append(v.warnings, fmt.Sprintf("substring '%s' in rule '%s' never applies, '%s' in rule '%s' matches it first", s, r.Name, earlier, owner))
				}
			}
		}
		for _, s := range r.Contains {
			if _, ok := claimed[s]; !ok {
				claimed[s] = r.Name
			}
		}
	}
}

func printDecisions(w io.Writer, rules skip.Rules, ids []string) {
	for _, id := range ids {
		r, ok := rules.Match(id)
		switch {
		case !ok:
			fmt.Fprintf(w, "%s: keep (no rule)\n", id)
		case r.Skip:
			fmt.Fprintf(w, "%s: skip (rule %s)\n", id, r.Name)
		default:
			fmt.Fprintf(w, "%s: keep (rule %s)\n", id, r.Name)
		}
	}
}
