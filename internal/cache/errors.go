package cache

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamFetch marks a failed fetch from the chart data source.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrStorageRead marks a persisted slot that could not be read or decoded.
	// The gateway treats it as a cache miss.
	ErrStorageRead = errors.New("cache storage read failed")
)

// FetchError is returned by Refresh when the upstream fetch fails. Previous
// holds whatever slot was resident at the time, possibly empty.
type FetchError struct {
	Err      error
	Previous Slot
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%v: %v", ErrUpstreamFetch, e.Err)
}

// Unwrap exposes both ErrUpstreamFetch and the underlying cause to errors.Is.
func (e *FetchError) Unwrap() []error {
	return []error{ErrUpstreamFetch, e.Err}
}

// HasPrevious reports whether a previously fetched payload can be served stale.
func (e *FetchError) HasPrevious() bool {
	return !e.Previous.Empty()
}
