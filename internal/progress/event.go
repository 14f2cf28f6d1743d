// Package progress defines the lifecycle events emitted by the scheduler and
// the hub that fans them out to sinks.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes which scheduling milestone an Event represents.
type Stage string

// Supported stages. One cycle emits exactly one of SKIP, ERROR or DISPATCH;
// a dispatched cycle later emits SESSION_DONE on a completed fetch or
// FETCH_ERROR on a transport failure.
const (
	StageCycleSkip     Stage = "CYCLE_SKIP"
	StageCycleDispatch Stage = "CYCLE_DISPATCH"
	StageCycleError    Stage = "CYCLE_ERROR"
	StageFetchError    Stage = "FETCH_ERROR"
	StageSessionDone   Stage = "SESSION_DONE"
)

// StatusClass is a coarse HTTP response grouping.
type StatusClass string

// Status classes tracked for completed sessions.
const (
	Status2xx   StatusClass = "2xx"
	Status3xx   StatusClass = "3xx"
	Status4xx   StatusClass = "4xx"
	Status5xx   StatusClass = "5xx"
	StatusOther StatusClass = "other"
)

// Event captures a single scheduling or session milestone.
type Event struct {
	// CycleID correlates all events of one scheduling cycle.
	CycleID uuid.UUID
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes the milestone.
	Stage Stage
	// Site scopes session events to a host label.
	Site string
	// URL is the selected URL, when one was selected.
	URL string
	// StatusClass groups the HTTP response code for SESSION_DONE events.
	StatusClass StatusClass
	// Dur is the fetch latency for SESSION_DONE events.
	Dur time.Duration
	// Note carries low-volume context such as skip reasons or error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.CycleID == uuid.Nil {
		return errors.New("cycle id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageCycleSkip, StageCycleDispatch, StageCycleError, StageFetchError:
	case StageSessionDone:
		if e.StatusClass == "" {
			return errors.New("session done requires status class")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// ClassifyStatus groups HTTP status codes for session events.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= 200 && code < 300:
		return Status2xx
	case code >= 300 && code < 400:
		return Status3xx
	case code >= 400 && code < 500:
		return Status4xx
	case code >= 500 && code < 600:
		return Status5xx
	default:
		return StatusOther
	}
}
