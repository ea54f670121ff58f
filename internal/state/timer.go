// Package state holds the client-side stores and controllers of the feed:
// the video list, the login session, scroll-driven playback, the quiz modal
// and the generation wizard. Each is an explicit object with mutation
// methods and a Subscribe observer; none of them render anything.
package state

import "time"

// Stopper cancels a scheduled callback.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d. Controllers take one so tests
// can drive time by hand.
type AfterFunc func(d time.Duration, f func()) Stopper

func realAfter(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}
