package schedule

import (
	"testing"
	"time"
)

func TestExpirationFor(t *testing.T) {
	o := newTestOracle(t)
	announcement := []byte(`[{"Param":"announcement","Value":"true"}]`)

	tests := []struct {
		name       string
		now        time.Time
		payload    []byte
		force      bool
		wantOffset time.Duration
		wantAt     time.Time
		wantReason Reason
	}{
		{
			name:       "inside sunday window",
			now:        ny(t, 2026, time.October, 18, 18, 0),
			wantOffset: time.Minute,
			wantReason: ReasonOperatingDay,
		},
		{
			name:       "operating day morning before open",
			now:        ny(t, 2026, time.October, 21, 8, 0),
			wantOffset: time.Minute,
			wantReason: ReasonOperatingDay,
		},
		{
			name:       "announcement outside window",
			now:        ny(t, 2026, time.October, 19, 10, 0),
			payload:    announcement,
			wantOffset: time.Minute,
			wantReason: ReasonAnnouncement,
		},
		{
			name:       "monday capped by max ttl",
			now:        ny(t, 2026, time.October, 19, 10, 0),
			wantOffset: 24 * time.Hour,
			wantReason: ReasonMaxTTL,
		},
		{
			name:       "tuesday evening capped by next window",
			now:        ny(t, 2026, time.October, 20, 20, 0),
			wantAt:     time.Date(2026, time.October, 21, 21, 0, 0, 0, time.UTC),
			wantReason: ReasonNextWindow,
		},
		{
			name:       "sunday after close",
			now:        ny(t, 2026, time.October, 18, 20, 30),
			wantOffset: 24 * time.Hour,
			wantReason: ReasonMaxTTL,
		},
		{
			name:       "forced test mode",
			now:        ny(t, 2026, time.October, 19, 10, 0),
			force:      true,
			wantOffset: 30 * time.Second,
			wantReason: ReasonTestMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := o.ExpirationFor(tt.now, tt.payload, tt.force)
			want := tt.wantAt
			if want.IsZero() {
				want = tt.now.Add(tt.wantOffset)
			}
			if !got.Equal(want) {
				t.Errorf("ExpirationFor(%s) = %s, want %s", tt.now, got, want)
			}
			if reason != tt.wantReason {
				t.Errorf("expected reason %s, got %s", tt.wantReason, reason)
			}
		})
	}
}

func TestExpirationFor_NeverPastNextWindow(t *testing.T) {
	o := newTestOracle(t)
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	for now := start; now.Before(start.AddDate(0, 3, 0)); now = now.Add(97 * time.Minute) {
		exp, reason := o.ExpirationFor(now, nil, false)
		if !exp.After(now) {
			t.Fatalf("expiration %s not after %s", exp, now)
		}
		if reason == ReasonOperatingDay {
			continue
		}
		next, _ := o.NextWindowStart(now)
		if exp.After(next) {
			t.Fatalf("expiration %s is past the next window %s", exp, next)
		}
	}
}

func TestHasActiveOverride(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    bool
	}{
		{"string true", `[{"Param":"announcement","Value":"true"}]`, true},
		{"any non-empty string", `[{"Param":"announcement","Value":"Closed early today"}]`, true},
		{"string false is still truthy", `[{"Param":"announcement","Value":"false"}]`, true},
		{"boolean true", `[{"Param":"announcement","Value":true}]`, true},
		{"non-zero number", `[{"Param":"announcement","Value":1}]`, true},
		{"object value", `[{"Param":"announcement","Value":{}}]`, true},
		{"later record", `[{"Param":"total","Value":12},{"Param":"announcement","Value":"yes"}]`, true},
		{"mixed array", `[5,null,"x",{"Param":"announcement","Value":"on"}]`, true},
		{"empty string", `[{"Param":"announcement","Value":""}]`, false},
		{"boolean false", `[{"Param":"announcement","Value":false}]`, false},
		{"zero", `[{"Param":"announcement","Value":0}]`, false},
		{"null value", `[{"Param":"announcement","Value":null}]`, false},
		{"missing value", `[{"Param":"announcement"}]`, false},
		{"other param", `[{"Param":"banner","Value":"true"}]`, false},
		{"param is case sensitive", `[{"Param":"Announcement","Value":"true"}]`, false},
		{"field is case sensitive", `[{"param":"announcement","value":"true"}]`, false},
		{"object payload", `{"Param":"announcement","Value":"true"}`, false},
		{"empty array", `[]`, false},
		{"malformed", `[{"Param":`, false},
		{"empty", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasActiveOverride([]byte(tt.payload)); got != tt.want {
				t.Errorf("HasActiveOverride(%s) = %v, want %v", tt.payload, got, tt.want)
			}
		})
	}
}
