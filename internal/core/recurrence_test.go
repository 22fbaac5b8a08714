package core

import (
	"testing"
	"time"
)

func TestNextBillDate(t *testing.T) {
	base := time.Date(2024, 1, 31, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		repeat string
		want   time.Time
		ok     bool
	}{
		{"monthly", time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC), true},
		{"Monthly", time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC), true},
		{"month", time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC), true},
		{"daily", time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC), true},
		{"Day", time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC), true},
		{"weekly", time.Date(2024, 2, 7, 9, 30, 0, 0, time.UTC), true},
		{"YEARLY", time.Date(2025, 1, 31, 9, 30, 0, 0, time.UTC), true},
		{"10", time.Date(2024, 2, 10, 9, 30, 0, 0, time.UTC), true},
		{"None", time.Time{}, false},
		{"", time.Time{}, false},
		{"0", time.Time{}, false},
		{"-3", time.Time{}, false},
		{"sometimes", time.Time{}, false},
		{"Sunday", time.Time{}, false},
		{"today", time.Time{}, false},
		{"every week", time.Date(2024, 2, 7, 9, 30, 0, 0, time.UTC), true},
		{"per-month", time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.repeat, func(t *testing.T) {
			got, ok := NextBillDate(base, tt.repeat)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextBillDateLeapYearly(t *testing.T) {
	got, ok := NextBillDate(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), "yearly")
	if !ok {
		t.Fatal("expected next date")
	}
	if want := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestIsValidRepeat(t *testing.T) {
	for _, r := range []string{"", "None", "none", "daily", "30"} {
		if !IsValidRepeat(r) {
			t.Errorf("%q should be valid", r)
		}
	}
	for _, r := range []string{"0", "whenever"} {
		if IsValidRepeat(r) {
			t.Errorf("%q should be invalid", r)
		}
	}
	if IsRecurring("None") || !IsRecurring("monthly") {
		t.Error("IsRecurring mismatch")
	}
}
