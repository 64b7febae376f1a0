package motion

import (
	"errors"
	"sync"

	"github.com/7ipolito/goals-vision/internal/pose"
)

// ErrSessionFinalized is returned by Start on a session that has been stopped
// and not yet reset.
var ErrSessionFinalized = errors.New("motion: session finalized, reset before starting again")

// Option configures a Session.
type Option func(*Session)

// WithClock makes the session stamp each record with clock() (milliseconds)
// instead of the sample's own timestamp.
func WithClock(clock func() int64) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// Session accumulates movement records for one analysis.
//
// Ingest and Stop serialise on the same lock, so once Stop has begun no
// further frame can change the record log.
type Session struct {
	mu       sync.Mutex
	state    State
	records  []MovementRecord
	counters Counters
	result   *Result
	clock    func() int64
}

// NewSession returns an idle session.
func NewSession(opts ...Option) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start clears any previous records and begins recording.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateFinalized {
		return ErrSessionFinalized
	}
	s.clearLocked()
	s.state = StateRecording
	return nil
}

// Ingest offers one frame to the session and reports whether it produced a
// record. Frames without a pose, frames whose hips or shoulders are not
// confidently visible, and frames arriving outside the recording state are
// ignored.
func (s *Session) Ingest(sample pose.Sample) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return false
	}

	s.counters.FramesSeen++
	if sample.Pose == nil {
		s.counters.FramesWithoutPose++
		return false
	}

	rec, ok := recordFrom(sample.Pose)
	if !ok {
		s.counters.FramesDropped++
		return false
	}

	rec.TimestampMs = sample.TimestampMs
	if s.clock != nil {
		rec.TimestampMs = s.clock()
	}

	s.records = append(s.records, rec)
	s.counters.Records++
	return true
}

// Stop finalises the session and returns its result. The result is computed
// once; later calls return the same value until Reset.
func (s *Session) Stop() Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result != nil {
		return *s.result
	}

	s.state = StateFinalized
	res := Result{Records: len(s.records)}
	summary, ok := Summarize(s.records)
	if ok {
		res.Summary = summary
	} else {
		res.Inconclusive = true
	}
	s.result = &res
	return res
}

// Reset discards all records and returns the session to idle.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clearLocked()
	s.state = StateIdle
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Counters returns a snapshot of the frame counters.
func (s *Session) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

// Records returns a copy of the record log.
func (s *Session) Records() []MovementRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]MovementRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *Session) clearLocked() {
	s.records = nil
	s.counters = Counters{}
	s.result = nil
}

// recordFrom applies the visibility gate and derives hip and shoulder
// centres. Timestamp is left for the caller.
func recordFrom(p *pose.Pose) (MovementRecord, bool) {
	lh, rh := p[pose.LeftHip], p[pose.RightHip]
	ls, rs := p[pose.LeftShoulder], p[pose.RightShoulder]

	for _, l := range []pose.Landmark{lh, rh, ls, rs} {
		if !l.Finite() || l.Visibility <= VisibilityThreshold {
			return MovementRecord{}, false
		}
	}

	return MovementRecord{
		HipCenter:      pose.Midpoint(lh, rh),
		ShoulderCenter: pose.Midpoint(ls, rs),
	}, true
}
