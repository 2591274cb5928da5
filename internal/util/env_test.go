package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		value string
		def   bool
		want  bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"No", true, false},
		{"off", true, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}
	for _, c := range cases {
		t.Setenv("SERENE_TEST_BOOL", c.value)
		if got := ParseBoolEnv("SERENE_TEST_BOOL", c.def); got != c.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", c.value, c.def, got, c.want)
		}
	}
}

func TestGetenvDefault(t *testing.T) {
	t.Setenv("SERENE_TEST_STR", "")
	if got := GetenvDefault("SERENE_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %q", got)
	}
	t.Setenv("SERENE_TEST_STR", "set")
	if got := GetenvDefault("SERENE_TEST_STR", "fallback"); got != "set" {
		t.Errorf("expected set, got %q", got)
	}
}
