package casemeta

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	issuesPattern  = regexp.MustCompile(`(?is)issues[:\-\s]*(.*?)(summary|$)`)
	summaryPattern = regexp.MustCompile(`(?is)summary[:\-\s]*(.*)$`)
	issueSeparator = regexp.MustCompile(`,\s*|\n`)
)

// ParseResponse extracts issue keywords and a summary from a model reply. A JSON object
// {"issues": [...], "summary": "..."} is preferred, optionally wrapped in a code fence;
// otherwise the reply is scanned for "issues:" and "summary:" sections. Issues are trimmed
// and empty ones dropped. Missing sections yield nil issues or an empty summary.
func ParseResponse(text string) (issues []string, summary string) {
	if issues, summary, ok := parseJSON(text); ok {
		return issues, summary
	}
	if m := issuesPattern.FindStringSubmatch(text); m != nil {
		issues = cleanIssues(issueSeparator.Split(strings.TrimSpace(m[1]), -1))
	}
	if m := summaryPattern.FindStringSubmatch(text); m != nil {
		summary = strings.TrimSpace(m[1])
	}
	return issues, summary
}

func parseJSON(text string) ([]string, string, bool) {
	body := stripCodeFence(strings.TrimSpace(text))
	if !strings.HasPrefix(body, "{") {
		return nil, "", false
	}
	var parsed struct {
		Issues  []string `json:"issues"`
		Summary string   `json:"summary"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, "", false
	}
	return cleanIssues(parsed.Issues), strings.TrimSpace(parsed.Summary), true
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func cleanIssues(raw []string) []string {
	var out []string
	for _, r := range raw {
		r = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(r), "-*•"))
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}
