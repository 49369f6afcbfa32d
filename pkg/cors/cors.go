// Package cors implements the origin gatekeeper: an allow-list parsed once
// at configuration load into typed rules, a pure matching function, and gin
// middleware applying it.
package cors

import (
	"net/url"
	"strings"
)

type ruleKind int

const (
	ruleExact ruleKind = iota
	ruleWildcard
	ruleSuffix
)

type rule struct {
	kind ruleKind
	// value is the full origin for exact rules, the bare domain for
	// wildcard rules, and the dotted suffix for suffix rules.
	value string
}

// Allowlist is the parsed origin allow-list. Parsing happens once; Match is
// pure and cheap per request.
type Allowlist struct {
	rules []rule
}

// ParseAllowlist parses configured origin patterns. Three forms:
//
//   - "https://site.example"  exact origin match
//   - "*.site.example"        any proper subdomain of site.example
//   - ".site.example"         site.example and any subdomain
func ParseAllowlist(patterns []string) *Allowlist {
	rules := make([]rule, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		switch {
		case strings.HasPrefix(p, "*."):
			rules = append(rules, rule{kind: ruleWildcard, value: strings.ToLower(p[2:])})
		case strings.HasPrefix(p, "."):
			rules = append(rules, rule{kind: ruleSuffix, value: strings.ToLower(p)})
		default:
			rules = append(rules, rule{kind: ruleExact, value: strings.ToLower(strings.TrimRight(p, "/"))})
		}
	}
	return &Allowlist{rules: rules}
}

// IsEmpty reports whether no rules are configured.
func (a *Allowlist) IsEmpty() bool {
	return len(a.rules) == 0
}

// Match reports whether origin is allowed. A missing origin is never
// allowed; hostname rules match against the origin's hostname, ignoring
// scheme and port.
func (a *Allowlist) Match(origin string) bool {
	if origin == "" {
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Hostname() == "" {
		return false
	}
	hostname := strings.ToLower(parsed.Hostname())
	normalized := strings.ToLower(strings.TrimRight(origin, "/"))

	for _, r := range a.rules {
		switch r.kind {
		case ruleExact:
			if normalized == r.value {
				return true
			}
		case ruleWildcard:
			if strings.HasSuffix(hostname, "."+r.value) {
				return true
			}
		case ruleSuffix:
			if hostname == strings.TrimPrefix(r.value, ".") || strings.HasSuffix(hostname, r.value) {
				return true
			}
		}
	}
	return false
}
