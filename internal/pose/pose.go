// Package pose defines body pose samples as produced by an external pose
// estimator, and the pull-based stream that turns decoded video frames into
// pose samples.
package pose

import "math"

// NumLandmarks is the size of a full-body pose as emitted by the estimator.
const NumLandmarks = 33

// Landmark indices used by the agility metrics.
const (
	LeftShoulder  = 11
	RightShoulder = 12
	LeftHip       = 23
	RightHip      = 24
	LeftKnee      = 25
	RightKnee     = 26
	LeftAnkle     = 27
	RightAnkle    = 28
)

// Landmark is one tracked body joint. X and Y are normalised to [0,1]
// relative to frame width and height; Visibility is the detector's
// confidence that the joint is visible.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Finite reports whether all coordinates are real numbers.
func (l Landmark) Finite() bool {
	return isFinite(l.X) && isFinite(l.Y) && isFinite(l.Z) && isFinite(l.Visibility)
}

// Pose is the full set of landmarks detected for one person in one frame.
type Pose [NumLandmarks]Landmark

// Point is a normalised 2D position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Midpoint returns the 2D midpoint of two landmarks.
func Midpoint(a, b Landmark) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Sample is one analysed frame. Pose is nil when no person was detected.
type Sample struct {
	TimestampMs int64
	Pose        *Pose
}

// Frame identifies a decoded video frame handed to a Detector.
type Frame struct {
	Index       int
	TimestampMs int64
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
