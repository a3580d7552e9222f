package models

import (
	"fmt"
	"strings"
)

// CaseMetadata is the structured description of one case document.
type CaseMetadata struct {
	Filename string   `json:"filename"`
	Court    string   `json:"court"`
	Year     string   `json:"year"`
	Title    string   `json:"title"`
	Issues   []string `json:"issues"`
	Summary  string   `json:"summary"`
}

// DisplayTitle returns the label used in case pickers: "<year> - <title> (<court>)".
func (c *CaseMetadata) DisplayTitle() string {
	return fmt.Sprintf("%s - %s (%s)", c.Year, strings.ReplaceAll(c.Title, "_", " "), c.Court)
}

// HasIssue reports whether issue is one of the case's issue keywords.
func (c *CaseMetadata) HasIssue(issue string) bool {
	for _, i := range c.Issues {
		if i == issue {
			return true
		}
	}
	return false
}
