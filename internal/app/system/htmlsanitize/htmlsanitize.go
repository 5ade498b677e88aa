// Package htmlsanitize strips dangerous markup from user-supplied text.
// Activity and goal descriptions accept limited formatting; everything
// executable (scripts, event handlers, javascript: URLs) is removed
// before storage.
package htmlsanitize

import "github.com/microcosm-cc/bluemonday"

// policy allows common user-generated formatting plus tables and class
// attributes, and nothing executable.
var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowTables()
	p.AllowElements("u", "s", "sub", "sup", "mark")
	p.AllowAttrs("class").Globally()
	return p
}

// Sanitize returns s with all disallowed HTML removed.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}
