// Package sla is the grievance SLA and classification engine: due-date
// resolution, urgency classification, list projection, and the escalation
// transition rules. Everything here is a pure function of its inputs —
// callers inject "now" so identical inputs always classify identically.
package sla

import "time"

// Clock supplies the current time. Production code uses SystemClock;
// tests substitute a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the ambient wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
