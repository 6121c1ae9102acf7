// Package classify maps an inbound issue event to exactly one agent role
// using ordered rule tables: label exact-match, then title keywords, then
// body keywords, then the default role. First match wins; classification
// never fails.
package classify

import (
	"strings"

	"github.com/forgeworks/agentdispatch/internal/domain/issue"
)

// DefaultRole is returned when no rule matches.
const DefaultRole = "developer"

type labelRule struct {
	label string
	role  string
}

type keywordRule struct {
	role     string
	keywords []string
}

// labelRules maps issue labels to roles. Rules are checked in declaration
// order against all of the event's labels, so an issue carrying both
// "bug" and "security" always resolves to "security" regardless of the
// order the labels arrive in.
var labelRules = []labelRule{
	{label: "security", role: "security"},
	{label: "vulnerability", role: "security"},
	{label: "devops", role: "devops"},
	{label: "infrastructure", role: "devops"},
	{label: "deployment", role: "devops"},
	{label: "testing", role: "qa"},
	{label: "qa", role: "qa"},
	{label: "architecture", role: "architect"},
	{label: "design", role: "architect"},
	{label: "documentation", role: "docs"},
	{label: "question", role: "support"},
	{label: "support", role: "support"},
	{label: "bug", role: "developer"},
	{label: "enhancement", role: "developer"},
	{label: "feature", role: "developer"},
}

// titleRules holds per-role keyword lists matched as substrings of the
// lowercased title, in declaration order.
var titleRules = []keywordRule{
	{role: "security", keywords: []string{"security", "vulnerability", "auth", "cve", "exploit", "injection"}},
	{role: "devops", keywords: []string{"deploy", "pipeline", "docker", "kubernetes", "terraform", "infrastructure"}},
	{role: "qa", keywords: []string{"test", "flaky", "regression", "coverage"}},
	{role: "architect", keywords: []string{"architecture", "redesign", "refactor"}},
	{role: "docs", keywords: []string{"documentation", "readme", "typo", "docs"}},
	{role: "support", keywords: []string{"how to", "question", "help"}},
	{role: "developer", keywords: []string{"bug", "crash", "error", "fix", "feature", "implement"}},
}

// bodyRules is the smaller keyword set matched against the lowercased body.
var bodyRules = []keywordRule{
	{role: "security", keywords: []string{"security", "vulnerability"}},
	{role: "qa", keywords: []string{"test"}},
	{role: "devops", keywords: []string{"deploy"}},
	{role: "support", keywords: []string{"support"}},
}

// Roles returns every role a classification can produce, including the
// default. The assignment table must cover all of them.
func Roles() []string {
	seen := make(map[string]struct{})
	var roles []string
	add := func(role string) {
		if _, ok := seen[role]; !ok {
			seen[role] = struct{}{}
			roles = append(roles, role)
		}
	}
	for _, r := range labelRules {
		add(r.role)
	}
	for _, r := range titleRules {
		add(r.role)
	}
	for _, r := range bodyRules {
		add(r.role)
	}
	add(DefaultRole)
	return roles
}

// Classify returns the agent role for an issue event. Labels take strict
// precedence over title and body content.
func Classify(ev *issue.Event) string {
	for _, rule := range labelRules {
		for _, label := range ev.Labels {
			if strings.EqualFold(label, rule.label) {
				return rule.role
			}
		}
	}

	title := strings.ToLower(ev.Title)
	for _, rule := range titleRules {
		for _, kw := range rule.keywords {
			if strings.Contains(title, kw) {
				return rule.role
			}
		}
	}

	body := strings.ToLower(ev.Body)
	for _, rule := range bodyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(body, kw) {
				return rule.role
			}
		}
	}

	return DefaultRole
}
