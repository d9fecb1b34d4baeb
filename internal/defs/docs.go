package defs

import "strings"

// StripLeadingSpace removes one leading space from every line of a doc
// comment. Doc comments arrive as "/// text", so each line carries the space
// after the marker. Blank lines are kept and lines that do not start with a
// space are left alone. The trailing newline is dropped.
func StripLeadingSpace(s string) string {
	if s == "" {
		return ""
	}
	s = strings.TrimSuffix(s, "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		lines[i] = strings.TrimPrefix(line, " ")
	}
	return strings.Join(lines, "\n")
}
