package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"TRUE", true},
		{" true ", true},
		{"1", true},
		{"Yes", true},
		{"y", true},
		{"Да", true},
		{"", false},
		{"false", false},
		{"0", false},
		{"no", false},
		{"нет", false},
		{"truthy", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseBool(tt.in); got != tt.want {
				t.Errorf("failed! ParseBool(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatBool(t *testing.T) {
	assert.True(t, ParseBool(FormatBool(true)))
	assert.False(t, ParseBool(FormatBool(false)))
}

func TestNormalizeGroup(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", GroupAll},
		{" Junior ", GroupJunior},
		{"Младшая", GroupJunior},
		{"СТАРШИЕ", GroupSenior},
		{"Other", "other"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeGroup(tt.in))
		})
	}
}

func TestParseSubjects(t *testing.T) {
	got := ParseSubjects([]string{" Math : Математика", "cs", "math:dup", "", "bio:  "})
	assert.Equal(t, []Subject{
		{Code: "math", Label: "Математика"},
		{Code: "cs", Label: "cs"},
		{Code: "bio", Label: "bio"},
	}, got)
}

func TestParseDurations(t *testing.T) {
	got := ParseDurations([]string{"0s", " 300ms", "bad", "-1s", "1s"})
	assert.Equal(t, []time.Duration{0, 300 * time.Millisecond, time.Second}, got)
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2024, 2, 3, 13, 4, 5, 0, time.FixedZone("MSK", 3*3600))
	assert.Equal(t, "2024-02-03T10:04:05Z", FormatTimestamp(ts))
}
