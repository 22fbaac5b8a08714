package services

import (
	"testing"
	"time"
)

func TestGetDuenessChecker(t *testing.T) {
	tests := []struct {
		repeat  string
		wantErr bool
	}{
		{"Monthly", false},
		{"weekly", false},
		{"3", false},
		{"None", true},
		{"", true},
		{"fortnightly-ish", true},
		{"-2", true},
	}

	for _, tt := range tests {
		t.Run(tt.repeat, func(t *testing.T) {
			_, err := GetDuenessChecker(tt.repeat)
			if (err != nil) != tt.wantErr {
				t.Errorf("GetDuenessChecker(%q) error = %v, wantErr %v", tt.repeat, err, tt.wantErr)
			}
		})
	}
}

func TestDueOccurrences(t *testing.T) {
	monthly, _ := GetDuenessChecker("Monthly")
	weekly, _ := GetDuenessChecker("Weekly")

	tests := []struct {
		name    string
		checker DuenessChecker
		from    time.Time
		now     time.Time
		limit   int
		want    []time.Time
	}{
		{
			name:    "nothing due yet",
			checker: monthly,
			from:    day(2024, 4, 1),
			now:     day(2024, 4, 20),
			limit:   10,
			want:    nil,
		},
		{
			name:    "catches up clamped months",
			checker: monthly,
			from:    day(2024, 1, 31),
			now:     day(2024, 4, 15),
			limit:   10,
			want:    []time.Time{day(2024, 2, 29), day(2024, 3, 29)},
		},
		{
			name:    "occurrence on now is due",
			checker: weekly,
			from:    day(2024, 1, 1),
			now:     day(2024, 1, 8),
			limit:   10,
			want:    []time.Time{day(2024, 1, 8)},
		},
		{
			name:    "limit caps the result",
			checker: weekly,
			from:    day(2024, 1, 1),
			now:     day(2024, 12, 31),
			limit:   3,
			want:    []time.Time{day(2024, 1, 8), day(2024, 1, 15), day(2024, 1, 22)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DueOccurrences(tt.checker, tt.from, tt.now, tt.limit)
			if len(got) != len(tt.want) {
				t.Fatalf("DueOccurrences() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if !got[i].Equal(tt.want[i]) {
					t.Errorf("occurrence %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRollForward(t *testing.T) {
	yearly, _ := GetDuenessChecker("Yearly")
	daily, _ := GetDuenessChecker("Daily")

	got, ok := RollForward(yearly, day(2020, 2, 29), day(2023, 6, 1), 10)
	if !ok || !got.Equal(day(2024, 2, 28)) {
		t.Errorf("RollForward yearly = %v, %v; want 2024-02-28", got, ok)
	}

	got, ok = RollForward(daily, day(2024, 5, 1), day(2024, 5, 1), 10)
	if !ok || !got.Equal(day(2024, 5, 1)) {
		t.Errorf("RollForward on target = %v, %v; want the start date", got, ok)
	}

	if _, ok := RollForward(daily, day(2020, 1, 1), day(2024, 1, 1), 5); ok {
		t.Error("RollForward should give up past the step limit")
	}
}
