// SPDX-License-Identifier: MIT

package recorder

import "strings"

// sanitizeTitle makes a programme title safe for use in a filename: letters,
// digits, dash and underscore pass through, everything else collapses to an
// underscore.
func sanitizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
