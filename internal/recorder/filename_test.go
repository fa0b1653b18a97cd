// SPDX-License-Identifier: MIT

package recorder

import "testing"

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"Journal 20h", "Journal_20h"},
		{"Top Chef: La Finale!", "Top_Chef__La_Finale"},
		{"déjà-vu", "d_j_-vu"},
		{"__wrapped__", "wrapped"},
		{"safe-name_01", "safe-name_01"},
	}
	for _, tt := range tests {
		if got := sanitizeTitle(tt.in); got != tt.want {
			t.Errorf("sanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
