// Package schedule decides how long chart data may be cached.
//
// The chart source changes quickly during the weekly operating windows
// (for example Sunday and Wednesday 17:00-20:00 Eastern) and barely at all
// outside them. An Oracle answers, for a given instant, whether a window is
// open, when the next one starts, and when a freshly fetched payload should
// expire. All methods are pure functions of their arguments.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/bobmcallan/timesup-portal/internal/config"
)

// Oracle evaluates the weekly operating schedule in a fixed timezone.
type Oracle struct {
	days      [7]bool
	hourStart int
	hourEnd   int
	loc       *time.Location

	ttlOperating time.Duration
	ttlMax       time.Duration
	ttlTestMode  time.Duration

	// daysAhead[weekday][0] is the distance to the next window start when the
	// local hour is before hourStart, daysAhead[weekday][1] when at or after it.
	daysAhead [7][2]int
}

// New builds an Oracle from the schedule configuration.
func New(cfg config.ScheduleConfig) (*Oracle, error) {
	if len(cfg.OperatingDays) == 0 {
		return nil, errors.New("schedule: no operating days configured")
	}
	if cfg.HourStart < 0 || cfg.HourStart > 23 || cfg.HourEnd <= cfg.HourStart || cfg.HourEnd > 24 {
		return nil, fmt.Errorf("schedule: invalid operating hours %d-%d", cfg.HourStart, cfg.HourEnd)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule: failed to load timezone %q: %w", cfg.Timezone, err)
	}

	o := &Oracle{
		hourStart:    cfg.HourStart,
		hourEnd:      cfg.HourEnd,
		loc:          loc,
		ttlOperating: cfg.TTLOperating(),
		ttlMax:       cfg.TTLMax(),
		ttlTestMode:  cfg.TTLTestMode(),
	}
	for _, d := range cfg.OperatingDays {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("schedule: %d is not a weekday", d)
		}
		o.days[d] = true
	}
	o.daysAhead = buildDaysAhead(o.days)

	return o, nil
}

// buildDaysAhead fills the day-distance table. Before the start hour an
// operating day is its own next window (distance 0); from the start hour on,
// the search moves to the following operating day, wrapping into next week.
func buildDaysAhead(days [7]bool) [7][2]int {
	var table [7][2]int
	for wd := 0; wd < 7; wd++ {
		for started := 0; started < 2; started++ {
			for k := started; k <= 7; k++ {
				if days[(wd+k)%7] {
					table[wd][started] = k
					break
				}
			}
		}
	}
	return table
}

// Location returns the timezone all local computations use.
func (o *Oracle) Location() *time.Location {
	return o.loc
}

func (o *Oracle) local(now time.Time) (time.Weekday, int) {
	t := now.In(o.loc)
	return t.Weekday(), t.Hour()
}

// IsOperatingWindow reports whether now falls on an operating day inside
// [hourStart, hourEnd) local time.
func (o *Oracle) IsOperatingWindow(now time.Time) bool {
	day, hour := o.local(now)
	return o.days[day] && hour >= o.hourStart && hour < o.hourEnd
}

// IsOperatingDayBeforeClose reports whether now is on an operating day and
// before closing time, including the hours before the window opens.
func (o *Oracle) IsOperatingDayBeforeClose(now time.Time) bool {
	day, hour := o.local(now)
	return o.days[day] && hour < o.hourEnd
}

// DaysUntilWindow returns how many calendar days ahead of now (local date)
// the next window start lies.
func (o *Oracle) DaysUntilWindow(now time.Time) int {
	day, hour := o.local(now)
	started := 0
	if hour >= o.hourStart {
		started = 1
	}
	return o.daysAhead[day][started]
}

// Candidate UTC offsets span -14h..+14h, which covers every offset a real
// zone uses, probed in quarter hours to cover zones such as
// Asia/Kolkata, Asia/Kathmandu and Australia/Lord_Howe.
const (
	maxZoneOffset = 14 * time.Hour
	offsetStep    = 15 * time.Minute
)

// NextWindowStart returns the next instant, in UTC, at which local time is
// hourStart:00 on an operating day. The zone offset on the target date is not
// computed; instead candidate UTC instants are probed until one renders as the
// wanted local wall-clock time. When no candidate matches (the start hour is
// skipped by a DST transition) it returns now+ttlMax and ok=false.
func (o *Oracle) NextWindowStart(now time.Time) (next time.Time, ok bool) {
	local := now.In(o.loc)
	y, m, d := local.Date()

	// Normalise the target calendar date; time.Date carries day overflow.
	target := time.Date(y, m, d+o.DaysUntilWindow(now), 0, 0, 0, 0, time.UTC)
	ty, tm, td := target.Date()
	wallClock := time.Date(ty, tm, td, o.hourStart, 0, 0, 0, time.UTC)

	// Largest offset first yields the earliest instant, which settles the
	// repeated hour on a DST fall-back day.
	for offset := maxZoneOffset; offset >= -maxZoneOffset; offset -= offsetStep {
		candidate := wallClock.Add(-offset)
		if o.rendersAs(candidate, ty, tm, td, o.hourStart) {
			return candidate, true
		}
	}

	return now.Add(o.ttlMax).UTC(), false
}

func (o *Oracle) rendersAs(t time.Time, y int, m time.Month, d, hour int) bool {
	l := t.In(o.loc)
	ly, lm, ld := l.Date()
	return ly == y && lm == m && ld == d && l.Hour() == hour && l.Minute() == 0
}

// Status is a point-in-time view of the schedule.
type Status struct {
	Now               time.Time `json:"now"`
	LocalTime         string    `json:"local_time"`
	Timezone          string    `json:"timezone"`
	InOperatingWindow bool      `json:"in_operating_window"`
	BeforeClose       bool      `json:"operating_day_before_close"`
	NextWindowStart   time.Time `json:"next_window_start"`
}

// Status evaluates every schedule predicate at now.
func (o *Oracle) Status(now time.Time) Status {
	next, _ := o.NextWindowStart(now)
	return Status{
		Now:               now.UTC(),
		LocalTime:         now.In(o.loc).Format("Mon 2006-01-02 15:04 MST"),
		Timezone:          o.loc.String(),
		InOperatingWindow: o.IsOperatingWindow(now),
		BeforeClose:       o.IsOperatingDayBeforeClose(now),
		NextWindowStart:   next,
	}
}
