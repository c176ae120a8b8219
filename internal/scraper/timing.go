package scraper

import (
	"math/rand/v2"
	"time"
)

// Timing holds every wait the adapters perform. The zero value waits for
// nothing, which tests rely on.
type Timing struct {
	// Navigation bounds page loads on the main tab.
	Navigation time.Duration
	// TabNavigation bounds loads of Maps listing tabs.
	TabNavigation time.Duration
	// LoadState bounds the wait after clicking a next-page control.
	LoadState time.Duration
	// TabLoad bounds the DOMContentLoaded wait in listing tabs.
	TabLoad time.Duration

	// DorkGrace and MapsGrace follow a failed initial navigation.
	DorkGrace time.Duration
	MapsGrace time.Duration

	Settle    time.Duration
	Iteration time.Duration
	TabSettle time.Duration

	// Directory waits are stretched by up to their own length again.
	DirectorySettle    time.Duration
	DirectoryIteration time.Duration

	ScrollPauses []time.Duration
	ScrollBack   time.Duration
}

// DefaultTiming returns the production waits.
func DefaultTiming() Timing {
	return Timing{
		Navigation:    60 * time.Second,
		TabNavigation: 30 * time.Second,
		LoadState:     30 * time.Second,
		TabLoad:       5 * time.Second,

		DorkGrace: 10 * time.Second,
		MapsGrace: 5 * time.Second,

		Settle:    3 * time.Second,
		Iteration: 2 * time.Second,
		TabSettle: 2 * time.Second,

		DirectorySettle:    2 * time.Second,
		DirectoryIteration: time.Second,

		ScrollPauses: []time.Duration{
			300 * time.Millisecond,
			500 * time.Millisecond,
			800 * time.Millisecond,
			400 * time.Millisecond,
			600 * time.Millisecond,
			700 * time.Millisecond,
			300 * time.Millisecond,
			500 * time.Millisecond,
			900 * time.Millisecond,
		},
		ScrollBack: 200 * time.Millisecond,
	}
}

// stretch returns a random duration in [d, 2d).
func stretch(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + rand.N(d)
}
