package core

import (
	"testing"
)

func TestAddMonths_Clamping(t *testing.T) {
	tests := []struct {
		name  string
		start Date
		n     int
		want  string
	}{
		{
			name:  "plain month step",
			start: NewDate(2024, 1, 15),
			n:     1,
			want:  "2024-02-15",
		},
		{
			name:  "day 31 clamps to february",
			start: NewDate(2024, 1, 31),
			n:     1,
			want:  "2024-02-29",
		},
		{
			name:  "day 31 clamps to february (non-leap)",
			start: NewDate(2023, 1, 31),
			n:     1,
			want:  "2023-02-28",
		},
		{
			name:  "anchor day restored after short month",
			start: NewDate(2024, 1, 31),
			n:     2,
			want:  "2024-03-31",
		},
		{
			name:  "year rollover",
			start: NewDate(2023, 11, 15),
			n:     2,
			want:  "2024-01-15",
		},
		{
			name:  "yearly step keeps feb 28",
			start: NewDate(2023, 2, 28),
			n:     12,
			want:  "2024-02-28",
		},
		{
			name:  "leap day clamps in non-leap year",
			start: NewDate(2024, 2, 29),
			n:     12,
			want:  "2025-02-28",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.start.AddMonths(tt.n).ISO()
			if got != tt.want {
				t.Errorf("AddMonths(%d) = %s, want %s", tt.n, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-04-15")
	if err != nil {
		t.Fatalf("ParseDate() error = %v", err)
	}
	if d.Year() != 2024 || int(d.Month()) != 4 || d.Day() != 15 {
		t.Errorf("ParseDate() = %v", d)
	}

	if _, err := ParseDate("15/04/2024"); err == nil {
		t.Error("ParseDate() expected error for non-ISO input")
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 4, 15)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(b) != `"2024-04-15"` {
		t.Errorf("MarshalJSON() = %s", b)
	}

	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("round trip = %v, want %v", back, d)
	}
}
