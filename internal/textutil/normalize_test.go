package textutil

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Oppenheimer", "oppenheimer"},
		{" oppenheimer ", "oppenheimer"},
		{"OPPENHEIMER", "oppenheimer"},
		{"Spider-Man:  Across the   Spider-Verse", "spider man across the spider verse"},
		{"Amélie", "amelie"},
		{"Director's Cut", "directors cut"},
		{"Snoopy Presents: A Summer Musical", "snoopy presents a summer musical"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeYear(t *testing.T) {
	tests := map[string]string{
		"2023":       "2023",
		"2023-07-21": "2023",
		" 1999 ":     "1999",
		"99":         "",
		"abcd-01-01": "",
		"":           "",
	}
	for in, want := range tests {
		if got := NormalizeYear(in); got != want {
			t.Errorf("NormalizeYear(%q) = %q, want %q", in, got, want)
		}
	}
}
