package ratelimit

import "strings"

// MatchRule returns the rule for a request, or nil when the default limit applies.
// Exact paths win over prefixes; among prefixes the longest wins.
func MatchRule(path, method string, rules []Rule) *Rule {
	var best *Rule
	for i := range rules {
		rule := &rules[i]
		if rule.Method != method {
			continue
		}
		if rule.Path == path {
			return rule
		}
		if strings.HasSuffix(rule.Path, "/") && strings.HasPrefix(path, rule.Path) {
			if best == nil || len(rule.Path) > len(best.Path) {
				best = rule
			}
		}
	}
	return best
}
