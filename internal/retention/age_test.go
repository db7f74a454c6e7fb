package retention

import (
	"testing"
	"time"
)

func TestAgeInDays(t *testing.T) {
	tests := []struct {
		name    string
		created time.Time
		now     time.Time
		want    int
	}{
		{
			name:    "same day",
			created: time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local),
			now:     time.Date(2024, 3, 15, 23, 59, 59, 0, time.Local),
			want:    0,
		},
		{
			name:    "two seconds across midnight",
			created: time.Date(2024, 3, 14, 23, 59, 59, 0, time.Local),
			now:     time.Date(2024, 3, 15, 0, 0, 1, 0, time.Local),
			want:    1,
		},
		{
			name:    "almost two days elapsed",
			created: time.Date(2024, 3, 13, 0, 0, 1, 0, time.Local),
			now:     time.Date(2024, 3, 14, 23, 59, 59, 0, time.Local),
			want:    1,
		},
		{
			name:    "across leap day",
			created: time.Date(2024, 2, 28, 12, 0, 0, 0, time.Local),
			now:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local),
			want:    2,
		},
		{
			name:    "across year",
			created: time.Date(2023, 12, 31, 8, 0, 0, 0, time.Local),
			now:     time.Date(2024, 1, 10, 8, 0, 0, 0, time.Local),
			want:    10,
		},
		{
			name:    "future snapshot",
			created: time.Date(2024, 3, 16, 8, 0, 0, 0, time.Local),
			now:     time.Date(2024, 3, 15, 8, 0, 0, 0, time.Local),
			want:    -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeInDays(tt.created, tt.now); got != tt.want {
				t.Errorf("AgeInDays(%v, %v) = %d, want %d", tt.created, tt.now, got, tt.want)
			}
		})
	}
}

func TestAgeInDays_DSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2024-03-10 is 23 hours long in New York.
	created := time.Date(2024, 3, 9, 12, 0, 0, 0, loc)
	now := time.Date(2024, 3, 11, 0, 30, 0, 0, loc)

	if got := AgeInDays(created, now); got != 2 {
		t.Errorf("AgeInDays() = %d, want 2", got)
	}
}

func TestExpired_StrictBoundary(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)

	for _, r := range []int{0, 1, 7, 10, 30} {
		for a := 0; a <= r+2; a++ {
			created := now.AddDate(0, 0, -a)
			want := a > r
			if got := Expired(created, now, r); got != want {
				t.Errorf("Expired(age=%d, window=%d) = %v, want %v", a, r, got, want)
			}
		}
	}
}
