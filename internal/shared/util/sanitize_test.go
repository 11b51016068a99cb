package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "reviews.csv", want: "reviews.csv"},
		{in: " a/b\\c.txt ", want: "a_b_c.txt"},
		{in: "tab\tname\x00.md", want: "tabname.md"},
		{in: "../secret", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "\x01\x02", wantErr: true},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileNameCapsLengthKeepingExtension(t *testing.T) {
	long := strings.Repeat("é", 150) + ".pdf"
	got, err := SanitizeFileName(long)
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if n := utf8.RuneCountInString(got); n != MaxFileNameRunes {
		t.Fatalf("expected %d runes, got %d", MaxFileNameRunes, n)
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("expected .pdf suffix, got %q", got)
	}
}
