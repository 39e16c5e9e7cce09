package utils

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Hospital Melaka":      "Hospital Melaka",
		"  Hospital   Melaka ": "Hospital Melaka",
		"W.P.\tKuala Lumpur":   "W.P. Kuala Lumpur",
		"":                     "",
	}
	for in, want := range cases {
		if got := NormalizeName(in); got != want {
			t.Fatalf("NormalizeName(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestStripMention(t *testing.T) {
	cases := []struct {
		text, handle, want string
		found              bool
	}{
		{"@darah_bot hello", "@darah_bot", "hello", true},
		{"hello @Darah_Bot there", "darah_bot", "hello  there", true},
		{"just chatting", "@darah_bot", "just chatting", false},
		{"@darah_bot", "@darah_bot", "", true},
		{"anything", "", "anything", false},
	}
	for _, tc := range cases {
		got, found := StripMention(tc.text, tc.handle)
		if got != tc.want || found != tc.found {
			t.Fatalf("StripMention(%q, %q): expected (%q, %v), got (%q, %v)", tc.text, tc.handle, tc.want, tc.found, got, found)
		}
	}
}
