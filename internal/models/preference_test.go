package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPreference_QuietAt_SpansMidnight(t *testing.T) {
	pref := Preference{QuietHoursStart: 22, QuietHoursEnd: 8}

	assert.True(t, pref.QuietAt(22))
	assert.True(t, pref.QuietAt(23))
	assert.True(t, pref.QuietAt(0))
	assert.True(t, pref.QuietAt(7))
	assert.False(t, pref.QuietAt(8))
	assert.False(t, pref.QuietAt(12))
	assert.False(t, pref.QuietAt(21))
}

func TestPreference_QuietAt_SameDay(t *testing.T) {
	pref := Preference{QuietHoursStart: 9, QuietHoursEnd: 17}

	assert.True(t, pref.QuietAt(9))
	assert.True(t, pref.QuietAt(16))
	assert.False(t, pref.QuietAt(17))
	assert.False(t, pref.QuietAt(8))
	assert.False(t, pref.QuietAt(0))
}

func TestPreference_QuietAt_EqualBoundsNeverQuiet(t *testing.T) {
	pref := Preference{QuietHoursStart: 8, QuietHoursEnd: 8}

	for hour := 0; hour < 24; hour++ {
		assert.False(t, pref.QuietAt(hour), "hour %d", hour)
	}
}

func TestPreference_MatchesDate(t *testing.T) {
	date := func(s string) time.Time {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("bad date %q: %v", s, err)
		}
		return parsed
	}
	start := date("2025-06-01")
	end := date("2025-06-30")

	tests := []struct {
		name     string
		pref     Preference
		earliest time.Time
		want     bool
	}{
		{"внутри окна", Preference{DateStart: &start, DateEnd: &end}, date("2025-06-15"), true},
		{"нижняя граница включительно", Preference{DateStart: &start, DateEnd: &end}, date("2025-06-01"), true},
		{"верхняя граница включительно", Preference{DateStart: &start, DateEnd: &end}, date("2025-06-30"), true},
		{"раньше окна", Preference{DateStart: &start, DateEnd: &end}, date("2025-05-31"), false},
		{"позже окна", Preference{DateStart: &start, DateEnd: &end}, date("2025-07-01"), false},
		{"без границ", Preference{}, date("2030-01-01"), true},
		{"только нижняя", Preference{DateStart: &start}, date("2025-05-01"), false},
		{"только верхняя", Preference{DateEnd: &end}, date("2025-05-01"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pref.MatchesDate(tt.earliest))
		})
	}
}
