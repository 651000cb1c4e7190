package domain

import "time"

type ReadinessState int

const (
	StateUninitialized ReadinessState = iota
	StateReady
	StateFailed
)

func (s ReadinessState) String() string {
	switch s {
	case StateUninitialized:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Readiness describes the permanent stream as seen by request handlers.
// Stream is set only in StateReady, Reason only in StateFailed.
type Readiness struct {
	State     ReadinessState
	Stream    *LiveStream
	Reason    string
	ChangedAt time.Time
}

func (r Readiness) IsReady() bool {
	return r.State == StateReady && r.Stream != nil
}
