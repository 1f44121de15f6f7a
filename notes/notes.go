// Package notes renders release notes from releasable issues.
package notes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lanceccraig/Tooling.DevOps/issues"
)

// Section is one heading of the release notes and the issues under it.
type Section struct {
	Title   string
	Entries []issues.Releasable
}

// Sections groups the issues that belong in release notes by type.
//
// Issues whose resolution or type is excluded from release notes are
// dropped. Sections are ordered by display name and entries by issue number,
// so the result does not depend on input order.
func Sections(in []issues.Releasable) []Section {
	byType := make(map[string]*Section)
	var keys []string
	for _, issue := range in {
		if !issue.Resolution.InReleaseNotes || !issue.Type.InReleaseNotes {
			continue
		}
		key := strings.ToLower(issue.Type.Name)
		sec, ok := byType[key]
		if !ok {
			sec = &Section{Title: issue.Type.Display()}
			byType[key] = sec
			keys = append(keys, key)
		}
		sec.Entries = append(sec.Entries, issue)
	}

	sort.Slice(keys, func(i, j int) bool {
		ti, tj := byType[keys[i]].Title, byType[keys[j]].Title
		if ti != tj {
			return ti < tj
		}
		return keys[i] < keys[j]
	})

	sections := make([]Section, 0, len(keys))
	for _, key := range keys {
		sec := byType[key]
		sort.SliceStable(sec.Entries, func(i, j int) bool {
			return sec.Entries[i].Number < sec.Entries[j].Number
		})
		sections = append(sections, *sec)
	}
	return sections
}

// Build renders the release body. Each heading and bullet is terminated by a
// newline and sections are separated by one empty line. No qualifying issues
// yields an empty string.
func Build(in []issues.Releasable) string {
	var b strings.Builder
	for i, sec := range Sections(in) {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "### %s\n", sec.Title)
		for _, issue := range sec.Entries {
			fmt.Fprintf(&b, "- %s (#%d)\n", issue.Title, issue.Number)
		}
	}
	return b.String()
}
