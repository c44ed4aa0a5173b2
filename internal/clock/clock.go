// Package clock allows injecting time into services so that
// date-sensitive rules, such as the cancellation deadline, can be
// tested against a fixed instant.
package clock

import "time"

// Clock yields the current time.
type Clock interface {
    Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now in UTC.
func NewSystem() Clock {
    return systemClock{}
}

func (systemClock) Now() time.Time {
    return time.Now().UTC()
}

type fixedClock struct {
    now time.Time
}

// NewFixed returns a clock that always reports the same instant.
func NewFixed(t time.Time) Clock {
    return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
    return f.now
}
