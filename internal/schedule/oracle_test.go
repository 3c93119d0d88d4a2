package schedule

import (
	"testing"
	"time"

	"github.com/bobmcallan/timesup-portal/internal/config"
)

func testScheduleConfig() config.ScheduleConfig {
	return config.ScheduleConfig{
		OperatingDays:          []int{0, 3},
		HourStart:              17,
		HourEnd:                20,
		Timezone:               "America/New_York",
		TTLOperatingSeconds:    60,
		TTLMaxSeconds:          24 * 60 * 60,
		TTLStaleOnErrorSeconds: 60,
		TTLTestModeSeconds:     30,
	}
}

func newTestOracle(t *testing.T) *Oracle {
	t.Helper()
	o, err := New(testScheduleConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return o
}

// ny returns the given New York wall-clock time.
func ny(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("failed to load America/New_York: %v", err)
	}
	return time.Date(year, month, day, hour, min, 0, 0, loc)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.ScheduleConfig)
	}{
		{"no days", func(c *config.ScheduleConfig) { c.OperatingDays = nil }},
		{"bad weekday", func(c *config.ScheduleConfig) { c.OperatingDays = []int{0, 9} }},
		{"inverted hours", func(c *config.ScheduleConfig) { c.HourStart, c.HourEnd = 20, 17 }},
		{"end past midnight", func(c *config.ScheduleConfig) { c.HourEnd = 25 }},
		{"unknown zone", func(c *config.ScheduleConfig) { c.Timezone = "Nowhere/Atlantis" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testScheduleConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIsOperatingWindow(t *testing.T) {
	o := newTestOracle(t)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"sunday 18:00", ny(t, 2026, time.October, 18, 18, 0), true},
		{"sunday at start", ny(t, 2026, time.October, 18, 17, 0), true},
		{"sunday one minute before start", ny(t, 2026, time.October, 18, 16, 59), false},
		{"sunday last minute", ny(t, 2026, time.October, 18, 19, 59), true},
		{"sunday at end", ny(t, 2026, time.October, 18, 20, 0), false},
		{"wednesday 17:30", ny(t, 2026, time.October, 21, 17, 30), true},
		{"monday 18:00", ny(t, 2026, time.October, 19, 18, 0), false},
		{"saturday 18:00", ny(t, 2026, time.October, 24, 18, 0), false},
		{"winter sunday 19:00", ny(t, 2026, time.January, 11, 19, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := o.IsOperatingWindow(tt.now); got != tt.want {
				t.Errorf("IsOperatingWindow(%s) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestIsOperatingWindow_UsesConfiguredZone(t *testing.T) {
	o := newTestOracle(t)

	// 22:30 UTC on a Sunday in October is 18:30 EDT.
	now := time.Date(2026, time.October, 18, 22, 30, 0, 0, time.UTC)
	if !o.IsOperatingWindow(now) {
		t.Error("expected UTC instant to be evaluated in New York time")
	}
	// 01:00 UTC Monday is still Sunday 21:00 EDT: closed.
	now = time.Date(2026, time.October, 19, 1, 0, 0, 0, time.UTC)
	if o.IsOperatingWindow(now) {
		t.Error("expected Sunday 21:00 New York to be outside the window")
	}
}

func TestIsOperatingDayBeforeClose(t *testing.T) {
	o := newTestOracle(t)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"sunday early morning", ny(t, 2026, time.October, 18, 0, 5), true},
		{"sunday noon", ny(t, 2026, time.October, 18, 12, 0), true},
		{"sunday inside window", ny(t, 2026, time.October, 18, 19, 0), true},
		{"sunday at close", ny(t, 2026, time.October, 18, 20, 0), false},
		{"wednesday late", ny(t, 2026, time.October, 21, 23, 0), false},
		{"tuesday noon", ny(t, 2026, time.October, 20, 12, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := o.IsOperatingDayBeforeClose(tt.now); got != tt.want {
				t.Errorf("IsOperatingDayBeforeClose(%s) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestDaysUntilWindow(t *testing.T) {
	o := newTestOracle(t)

	// 2026-10-18 is a Sunday.
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"sunday before start", ny(t, 2026, time.October, 18, 10, 0), 0},
		{"sunday at start", ny(t, 2026, time.October, 18, 17, 0), 3},
		{"sunday after close", ny(t, 2026, time.October, 18, 21, 0), 3},
		{"monday", ny(t, 2026, time.October, 19, 10, 0), 2},
		{"tuesday", ny(t, 2026, time.October, 20, 23, 0), 1},
		{"wednesday before start", ny(t, 2026, time.October, 21, 16, 59), 0},
		{"wednesday at start", ny(t, 2026, time.October, 21, 17, 0), 4},
		{"wednesday after close", ny(t, 2026, time.October, 21, 22, 0), 4},
		{"thursday", ny(t, 2026, time.October, 22, 9, 0), 3},
		{"friday", ny(t, 2026, time.October, 23, 9, 0), 2},
		{"saturday", ny(t, 2026, time.October, 24, 23, 59), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := o.DaysUntilWindow(tt.now); got != tt.want {
				t.Errorf("DaysUntilWindow(%s) = %d, want %d", tt.now.Format(time.RFC1123), got, tt.want)
			}
		})
	}
}

func TestDaysUntilWindow_SingleDayWrapsAWeek(t *testing.T) {
	cfg := testScheduleConfig()
	cfg.OperatingDays = []int{5}
	o, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Friday 2026-10-23 after the start hour: next window is the following Friday.
	if got := o.DaysUntilWindow(ny(t, 2026, time.October, 23, 18, 0)); got != 7 {
		t.Errorf("expected 7 days, got %d", got)
	}
}

func TestNextWindowStart_Scenarios(t *testing.T) {
	o := newTestOracle(t)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			// Wednesday 17:00 EDT is 21:00 UTC.
			name: "monday morning during daylight time",
			now:  ny(t, 2026, time.October, 19, 10, 0),
			want: time.Date(2026, time.October, 21, 21, 0, 0, 0, time.UTC),
		},
		{
			// Wednesday 17:00 EST is 22:00 UTC.
			name: "monday morning during standard time",
			now:  ny(t, 2026, time.January, 12, 10, 0),
			want: time.Date(2026, time.January, 14, 22, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday before start stays on today",
			now:  ny(t, 2026, time.October, 18, 9, 0),
			want: time.Date(2026, time.October, 18, 21, 0, 0, 0, time.UTC),
		},
		{
			name: "wednesday after start moves to sunday",
			now:  ny(t, 2026, time.October, 21, 18, 0),
			want: time.Date(2026, time.October, 25, 21, 0, 0, 0, time.UTC),
		},
		{
			// DST ends 2026-11-01: the target Sunday is already on EST.
			name: "window across fall-back transition",
			now:  ny(t, 2026, time.October, 29, 10, 0),
			want: time.Date(2026, time.November, 1, 22, 0, 0, 0, time.UTC),
		},
		{
			// DST starts 2026-03-08: the target Sunday is already on EDT.
			name: "window across spring-forward transition",
			now:  ny(t, 2026, time.March, 5, 12, 0),
			want: time.Date(2026, time.March, 8, 21, 0, 0, 0, time.UTC),
		},
		{
			name: "saturday late crosses the year boundary",
			now:  ny(t, 2022, time.December, 31, 23, 30),
			want: time.Date(2023, time.January, 1, 22, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := o.NextWindowStart(tt.now)
			if !ok {
				t.Fatal("expected a matching window start")
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextWindowStart(%s) = %s, want %s", tt.now, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("expected UTC result, got %s", got.Location())
			}
		})
	}
}

func TestNextWindowStart_Properties(t *testing.T) {
	zones := []struct {
		zone string
		days []int
	}{
		{"America/New_York", []int{0, 3}},
		{"Europe/London", []int{1, 4}},
		{"Asia/Kolkata", []int{2, 6}},
		{"Australia/Lord_Howe", []int{0, 3}},
		{"Pacific/Chatham", []int{5}},
		{"Pacific/Kiritimati", []int{0, 3}},
		{"UTC", []int{0, 1, 2, 3, 4, 5, 6}},
	}

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	for _, z := range zones {
		t.Run(z.zone, func(t *testing.T) {
			cfg := testScheduleConfig()
			cfg.Timezone = z.zone
			cfg.OperatingDays = z.days
			o, err := New(cfg)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			for now := start; now.Before(end); now = now.Add(7*time.Hour + 13*time.Minute) {
				next, ok := o.NextWindowStart(now)
				if !ok {
					t.Fatalf("no window start found for %s", now)
				}
				if !next.After(now) {
					t.Fatalf("NextWindowStart(%s) = %s is not after now", now, next)
				}
				if !o.IsOperatingWindow(next) {
					t.Fatalf("NextWindowStart(%s) = %s is not inside a window", now, next)
				}

				// The search must agree with a direct zone lookup.
				local := next.In(o.Location())
				y, m, d := local.Date()
				direct := time.Date(y, m, d, cfg.HourStart, 0, 0, 0, o.Location())
				if !direct.Equal(next) {
					t.Fatalf("search gave %s, direct lookup gave %s", next, direct)
				}
				if next.Sub(now) > 8*24*time.Hour {
					t.Fatalf("next window %s more than a week after %s", next, now)
				}
			}
		})
	}
}

func TestNextWindowStart_SkippedHourFallsBack(t *testing.T) {
	cfg := testScheduleConfig()
	cfg.HourStart = 2
	cfg.HourEnd = 4
	o, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// 02:00 on 2026-03-08 does not exist in New York.
	now := ny(t, 2026, time.March, 8, 0, 30)
	got, ok := o.NextWindowStart(now)
	if ok {
		t.Fatalf("expected no match for a skipped hour, got %s", got)
	}
	if want := now.Add(24 * time.Hour); !got.Equal(want) {
		t.Errorf("expected fallback %s, got %s", want, got)
	}
}

func TestStatus(t *testing.T) {
	o := newTestOracle(t)
	now := ny(t, 2026, time.October, 18, 18, 0)

	s := o.Status(now)
	if !s.InOperatingWindow || !s.BeforeClose {
		t.Errorf("expected open window, got %+v", s)
	}
	if s.Timezone != "America/New_York" {
		t.Errorf("unexpected timezone %s", s.Timezone)
	}
	if want := time.Date(2026, time.October, 21, 21, 0, 0, 0, time.UTC); !s.NextWindowStart.Equal(want) {
		t.Errorf("expected next window %s, got %s", want, s.NextWindowStart)
	}
	if s.LocalTime != "Sun 2026-10-18 18:00 EDT" {
		t.Errorf("unexpected local time %q", s.LocalTime)
	}
}
