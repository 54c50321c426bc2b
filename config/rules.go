package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultBlockedKeywords disqualify any email that contains one of them.
var DefaultBlockedKeywords = []string{
	".gov", ".ca", ".org", "legal", "law", "home depot", "lowes",
	"cvs", "walgreens", "pfizer", "petco", "roto rooter", "salvation",
}

// Rules are the tunable filtering rules of the reshaper.
type Rules struct {
	BlockedKeywords []string `yaml:"blocked_keywords"`
}

// DefaultRules returns the built-in rules.
func DefaultRules() *Rules {
	kw := make([]string, len(DefaultBlockedKeywords))
	copy(kw, DefaultBlockedKeywords)
	return &Rules{BlockedKeywords: kw}
}

// LoadRules reads a YAML rules file. An empty path yields the built-in rules,
// and so does a file that leaves blocked_keywords unset.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %q: %w", path, err)
	}

	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("rules: parse %q: %w", path, err)
	}
	if len(r.BlockedKeywords) == 0 {
		return DefaultRules(), nil
	}

	kw := r.BlockedKeywords[:0]
	for _, k := range r.BlockedKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kw = append(kw, k)
		}
	}
	r.BlockedKeywords = kw
	return &r, nil
}
