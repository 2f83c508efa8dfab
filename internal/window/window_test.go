package window

import (
	"errors"
	"testing"

	"spendbot/internal/core"
)

func TestResolve(t *testing.T) {
	today := core.NewDate(2025, 7, 15)

	tests := []struct {
		name      string
		kind      core.WindowKind
		wantStart core.Date
		wantEnd   core.Date
		wantDays  int
	}{
		{
			name:      "today",
			kind:      core.WindowToday,
			wantStart: core.NewDate(2025, 7, 15),
			wantEnd:   core.NewDate(2025, 7, 16),
			wantDays:  1,
		},
		{
			name:      "yesterday",
			kind:      core.WindowYesterday,
			wantStart: core.NewDate(2025, 7, 14),
			wantEnd:   core.NewDate(2025, 7, 15),
			wantDays:  1,
		},
		{
			name:      "week is trailing seven days plus today",
			kind:      core.WindowWeek,
			wantStart: core.NewDate(2025, 7, 8),
			wantEnd:   core.NewDate(2025, 7, 16),
			wantDays:  8,
		},
		{
			name:      "month to date",
			kind:      core.WindowMonth,
			wantStart: core.NewDate(2025, 7, 1),
			wantEnd:   core.NewDate(2025, 7, 16),
			wantDays:  15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.kind, today)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.kind, err)
			}
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) || got.Days != tt.wantDays {
				t.Errorf("Resolve(%q) = [%v, %v) days=%d, want [%v, %v) days=%d",
					tt.kind, got.Start, got.End, got.Days, tt.wantStart, tt.wantEnd, tt.wantDays)
			}
		})
	}
}

func TestResolveWeekAcrossMonthBoundary(t *testing.T) {
	got, err := Resolve(core.WindowWeek, core.NewDate(2025, 8, 3))
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	if !got.Start.Equal(core.NewDate(2025, 7, 27)) {
		t.Errorf("week start = %v, want 2025-07-27", got.Start)
	}
}

func TestResolveSummary(t *testing.T) {
	today := core.NewDate(2025, 7, 15)

	tests := []struct {
		name      string
		token     string
		wantStart core.Date
		wantEnd   core.Date
		wantDays  int
	}{
		{
			name:      "empty token is current month to date",
			token:     "",
			wantStart: core.NewDate(2025, 7, 1),
			wantEnd:   core.NewDate(2025, 7, 16),
			wantDays:  15,
		},
		{
			name:      "explicit month",
			token:     "0425",
			wantStart: core.NewDate(2025, 4, 1),
			wantEnd:   core.NewDate(2025, 5, 1),
			wantDays:  30,
		},
		{
			name:      "december rolls into next year",
			token:     "1225",
			wantStart: core.NewDate(2025, 12, 1),
			wantEnd:   core.NewDate(2026, 1, 1),
			wantDays:  31,
		},
		{
			name:      "leap february",
			token:     "0224",
			wantStart: core.NewDate(2024, 2, 1),
			wantEnd:   core.NewDate(2024, 3, 1),
			wantDays:  29,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSummary(tt.token, today)
			if err != nil {
				t.Fatalf("ResolveSummary(%q) error = %v", tt.token, err)
			}
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) || got.Days != tt.wantDays {
				t.Errorf("ResolveSummary(%q) = [%v, %v) days=%d, want [%v, %v) days=%d",
					tt.token, got.Start, got.End, got.Days, tt.wantStart, tt.wantEnd, tt.wantDays)
			}
		})
	}
}

func TestResolveSummaryInvalidPeriod(t *testing.T) {
	today := core.NewDate(2025, 7, 15)
	for _, token := range []string{"1325", "0025", "ab25", "125"} {
		_, err := ResolveSummary(token, today)
		if !errors.Is(err, core.ErrInvalidPeriod) {
			t.Errorf("ResolveSummary(%q) error = %v, want ErrInvalidPeriod", token, err)
		}
	}
}
