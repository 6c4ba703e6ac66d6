package grading

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
)

var (
	ErrUnknownKind = errors.New("unknown rule kind")
	ErrInvalidRule = errors.New("invalid rule")
)

// Kind identifies a grading predicate.
type Kind string

const (
	KindContains    Kind = "contains"
	KindContainsAll Kind = "contains_all"
	KindContainsAny Kind = "contains_any"
	KindNotContains Kind = "not_contains"
	KindRegex       Kind = "regex"
	KindExact       Kind = "exact"
	KindMinWords    Kind = "min_words"
	KindMinLines    Kind = "min_lines"
	KindLastCharIn  Kind = "last_char_in"
	KindAll         Kind = "all"
	KindAny         Kind = "any"
)

// Rule is a serializable description of a pass/fail check over response text.
// Composite kinds (all, any) hold their children in Rules.
type Rule struct {
	Kind       Kind     `yaml:"kind" json:"kind"`
	Value      string   `yaml:"value,omitempty" json:"value,omitempty"`
	Values     []string `yaml:"values,omitempty" json:"values,omitempty"`
	Pattern    string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	IgnoreCase bool     `yaml:"ignore_case,omitempty" json:"ignore_case,omitempty"`
	Min        int      `yaml:"min,omitempty" json:"min,omitempty"`
	Rules      []Rule   `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// Validate checks that the rule and all of its children are well formed.
// Regex patterns are compiled here so a bad curriculum fails at load time.
func Validate(r Rule) error {
	switch r.Kind {
	case KindContains, KindNotContains, KindExact:
		if r.Value == "" {
			return fmt.Errorf("%w: %s requires value", ErrInvalidRule, r.Kind)
		}
	case KindContainsAll, KindContainsAny, KindLastCharIn:
		if len(r.Values) == 0 {
			return fmt.Errorf("%w: %s requires values", ErrInvalidRule, r.Kind)
		}
	case KindRegex:
		if r.Pattern == "" {
			return fmt.Errorf("%w: regex requires pattern", ErrInvalidRule)
		}
		if _, err := compile(r.Pattern, r.IgnoreCase); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRule, err)
		}
	case KindMinWords, KindMinLines:
		if r.Min <= 0 {
			return fmt.Errorf("%w: %s requires positive min", ErrInvalidRule, r.Kind)
		}
	case KindAll, KindAny:
		if len(r.Rules) == 0 {
			return fmt.Errorf("%w: %s requires rules", ErrInvalidRule, r.Kind)
		}
		for i, child := range r.Rules {
			if err := Validate(child); err != nil {
				return fmt.Errorf("%s[%d]: %w", r.Kind, i, err)
			}
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
	return nil
}

// Evaluate reports whether text satisfies the rule. Invalid rules never pass.
func Evaluate(r Rule, text string) bool {
	switch r.Kind {
	case KindContains:
		return contains(text, r.Value, r.IgnoreCase)
	case KindNotContains:
		return !contains(text, r.Value, r.IgnoreCase)
	case KindContainsAll:
		for _, v := range r.Values {
			if !contains(text, v, r.IgnoreCase) {
				return false
			}
		}
		return true
	case KindContainsAny:
		for _, v := range r.Values {
			if contains(text, v, r.IgnoreCase) {
				return true
			}
		}
		return false
	case KindRegex:
		re, err := compile(r.Pattern, r.IgnoreCase)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	case KindExact:
		return strings.TrimSpace(text) == r.Value
	case KindMinWords:
		return len(strings.Fields(text)) >= r.Min
	case KindMinLines:
		return countLines(text) >= r.Min
	case KindLastCharIn:
		trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
		if trimmed == "" {
			return false
		}
		runes := []rune(trimmed)
		last := string(runes[len(runes)-1])
		for _, v := range r.Values {
			if v == last {
				return true
			}
		}
		return false
	case KindAll:
		if len(r.Rules) == 0 {
			return false
		}
		for _, child := range r.Rules {
			if !Evaluate(child, text) {
				return false
			}
		}
		return true
	case KindAny:
		for _, child := range r.Rules {
			if Evaluate(child, text) {
				return true
			}
		}
		return false
	}
	return false
}

func contains(text, sub string, ignoreCase bool) bool {
	if ignoreCase {
		return strings.Contains(strings.ToLower(text), strings.ToLower(sub))
	}
	return strings.Contains(text, sub)
}

// countLines counts non-blank lines.
func countLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]*regexp.Regexp)
)

func compile(pattern string, ignoreCase bool) (*regexp.Regexp, error) {
	if ignoreCase {
		pattern = "(?i)" + pattern
	}

	cacheMu.RLock()
	re, ok := cache[pattern]
	cacheMu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	cacheMu.Lock()
	cache[pattern] = re
	cacheMu.Unlock()
	return re, nil
}
