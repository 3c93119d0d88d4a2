package schedule

import (
	"time"

	"github.com/goccy/go-json"
)

// Reason explains which rule produced an expiration.
type Reason string

const (
	ReasonTestMode     Reason = "test_mode"
	ReasonOperatingDay Reason = "operating_day"
	ReasonAnnouncement Reason = "announcement"
	ReasonNextWindow   Reason = "next_window"
	ReasonMaxTTL       Reason = "max_ttl"
	ReasonFallback     Reason = "schedule_fallback"
)

// ExpirationFor returns when a payload fetched at now should expire.
//
// Operating days up to closing time, and payloads carrying an active
// announcement, get the short operating TTL. Otherwise the entry lives for
// ttlMax but never past the start of the next window. force applies the
// test-mode TTL regardless of the schedule.
func (o *Oracle) ExpirationFor(now time.Time, payload []byte, force bool) (time.Time, Reason) {
	if force {
		return now.Add(o.ttlTestMode), ReasonTestMode
	}
	if o.IsOperatingDayBeforeClose(now) {
		return now.Add(o.ttlOperating), ReasonOperatingDay
	}
	if HasActiveOverride(payload) {
		return now.Add(o.ttlOperating), ReasonAnnouncement
	}

	capped := now.Add(o.ttlMax)
	next, ok := o.NextWindowStart(now)
	if !ok {
		return capped, ReasonFallback
	}
	if next.Before(capped) {
		return next, ReasonNextWindow
	}
	return capped, ReasonMaxTTL
}

// announcementParam is the record Param that marks an announcement row.
const announcementParam = "announcement"

// HasActiveOverride reports whether payload is a JSON array holding a record
// with Param "announcement" and a truthy Value. Anything that is not an array
// of objects is treated as carrying no override.
func HasActiveOverride(payload []byte) bool {
	if len(payload) == 0 {
		return false
	}

	var records []json.RawMessage
	if err := json.Unmarshal(payload, &records); err != nil {
		return false
	}

	for _, raw := range records {
		var rec map[string]any
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if param, _ := rec["Param"].(string); param == announcementParam && truthy(rec["Value"]) {
			return true
		}
	}
	return false
}

// truthy follows JavaScript truthiness for decoded JSON values: null, false,
// 0 and "" are false, everything else (including "false" and "0") is true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case json.Number:
		f, err := val.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}
