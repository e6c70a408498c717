package services

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

type rulesFile struct {
	RomanNumerals  map[string]string `yaml:"roman_numerals"`
	FranchiseFixes []struct {
		From string `yaml:"from"`
		To   string `yaml:"to"`
	} `yaml:"franchise_fixes"`
	BlocklistExact    []string `yaml:"blocklist_exact"`
	BlocklistPatterns []string `yaml:"blocklist_patterns"`
}

type franchiseFix struct {
	from string
	to   string
}

type matchRules struct {
	romanNumerals  map[rune]string
	franchiseFixes []franchiseFix
	blocklistExact map[string]struct{}
	blocklistRegex []*regexp.Regexp
}

func loadMatchRules() (*matchRules, error) {
	var file rulesFile
	if err := yaml.Unmarshal(rulesYAML, &file); err != nil {
		return nil, fmt.Errorf("parse rules.yaml: %w", err)
	}

	rules := &matchRules{
		romanNumerals:  make(map[rune]string, len(file.RomanNumerals)),
		blocklistExact: make(map[string]struct{}, len(file.BlocklistExact)),
	}
	for key, ascii := range file.RomanNumerals {
		runes := []rune(key)
		if len(runes) != 1 {
			return nil, fmt.Errorf("roman numeral key %q is not a single code point", key)
		}
		rules.romanNumerals[runes[0]] = ascii
	}
	for _, fix := range file.FranchiseFixes {
		rules.franchiseFixes = append(rules.franchiseFixes, franchiseFix{from: fix.From, to: fix.To})
	}
	for _, title := range file.BlocklistExact {
		rules.blocklistExact[strings.ToLower(title)] = struct{}{}
	}
	for _, pattern := range file.BlocklistPatterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, fmt.Errorf("compile blocklist pattern %q: %w", pattern, err)
		}
		rules.blocklistRegex = append(rules.blocklistRegex, re)
	}
	return rules, nil
}

func (r *matchRules) isBlocklisted(rawName string) bool {
	trimmed := strings.TrimSpace(rawName)
	if _, ok := r.blocklistExact[strings.ToLower(trimmed)]; ok {
		return true
	}
	for _, re := range r.blocklistRegex {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}
