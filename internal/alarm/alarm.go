// Package alarm arms keyed one-shot timers. Arming a key that is already armed
// replaces the pending timer, so each key has at most one outstanding fire.
package alarm

import (
	"context"
	"errors"
	"time"
)

var ErrStopped = errors.New("alarm: facility stopped")

// Job runs when a timer fires.
type Job func(ctx context.Context)

// Facility is the timer service the scheduler arms and cancels against.
// Fire times are best effort: late firing is tolerated, early firing never happens.
type Facility interface {
	// Arm replaces any timer under key with one firing at at.
	Arm(key string, at time.Time, job Job) error
	// ArmIfAbsent arms only when nothing is pending under key and reports whether it did.
	ArmIfAbsent(key string, at time.Time, job Job) (bool, error)
	// Cancel removes the timer under key. Cancelling an unknown key is not an error.
	Cancel(key string) error
	// Pending reports the fire instant armed under key.
	Pending(key string) (time.Time, bool)
}
