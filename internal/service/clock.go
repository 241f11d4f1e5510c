package service

import "time"

// Clock supplies the current time for overdue derivation and timestamps.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a function to Clock; tests use it to pin time.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
