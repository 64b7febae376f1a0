// Package motion turns a stream of body poses into lateral agility metrics.
//
// A Session collects one MovementRecord per usable frame while recording and
// computes a single AgilitySummary when it is stopped. Sessions are
// independent values owned by their caller; several may run at once.
package motion

import "github.com/7ipolito/goals-vision/internal/pose"

const (
	// MinRecords is the smallest number of records a session needs before a
	// summary is produced.
	MinRecords = 10

	// VisibilityThreshold gates a frame: hips and shoulders must all be
	// strictly above it.
	VisibilityThreshold = 0.5

	// LateralThreshold is the frame-to-frame hip displacement, in normalised
	// units, that counts as one lateral movement.
	LateralThreshold = 0.05
)

// MovementRecord is the per-frame sample the metrics are computed from.
type MovementRecord struct {
	TimestampMs    int64
	HipCenter      pose.Point
	ShoulderCenter pose.Point
}

// AgilitySummary is the outcome of a finalised session.
type AgilitySummary struct {
	LateralMovementCount int     `json:"lateral_movement_count"`
	CoordinationScore    float64 `json:"coordination_score"`
	AgilityScore         float64 `json:"agility_score"`
	AverageLateralSpeed  float64 `json:"average_lateral_speed"`
	TotalDurationSeconds int     `json:"total_duration_seconds"`
}

// Result is what Stop returns. When Inconclusive is set the session held
// fewer than MinRecords records and Summary is the zero value.
type Result struct {
	Summary      AgilitySummary
	Inconclusive bool
	Records      int
}

// Conclusive reports whether Summary carries real metrics.
func (r Result) Conclusive() bool {
	return !r.Inconclusive
}

// Counters describe what happened to the frames fed into a session.
type Counters struct {
	FramesSeen        int `json:"frames_seen"`
	FramesWithoutPose int `json:"frames_without_pose"`
	FramesDropped     int `json:"frames_dropped"`
	Records           int `json:"records"`
}

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}
