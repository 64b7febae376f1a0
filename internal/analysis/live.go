package analysis

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/7ipolito/goals-vision/internal/motion"
	"github.com/7ipolito/goals-vision/internal/pose"
)

// Message types exchanged with a live client.
const (
	MsgStart   = "start"
	MsgFrame   = "frame"
	MsgStop    = "stop"
	MsgReset   = "reset"
	MsgStarted = "started"
	MsgAck     = "ack"
	MsgResult  = "result"
	MsgError   = "error"
)

// LiveMessage is a client message. Landmarks is nil when the client's
// estimator found no person in the frame. A frame without TimestampMs is
// stamped with the server's monotonic time since start.
type LiveMessage struct {
	Type        string          `json:"type"`
	TimestampMs *int64          `json:"timestamp_ms,omitempty"`
	Landmarks   []pose.Landmark `json:"landmarks,omitempty"`
}

// LiveReply is sent back for every client message.
type LiveReply struct {
	Type         string                 `json:"type"`
	SessionID    string                 `json:"session_id,omitempty"`
	Accepted     bool                   `json:"accepted,omitempty"`
	Records      int                    `json:"records,omitempty"`
	Summary      *motion.AgilitySummary `json:"summary,omitempty"`
	Inconclusive bool                   `json:"inconclusive,omitempty"`
	Counters     *motion.Counters       `json:"counters,omitempty"`
	AnalysisID   string                 `json:"analysis_id,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

// LiveSession drives one motion session from client messages. It is owned by
// a single connection.
type LiveSession struct {
	ID        string
	StartedAt time.Time

	session *motion.Session
	last    *motion.Result
	now     func() time.Time
}

// NewLiveSession returns an idle live session.
func NewLiveSession(opts ...motion.Option) *LiveSession {
	return &LiveSession{
		ID:      uuid.NewString(),
		session: motion.NewSession(opts...),
		now:     time.Now,
	}
}

// Handle applies msg to the session and returns the reply to send.
func (l *LiveSession) Handle(msg LiveMessage) LiveReply {
	switch msg.Type {
	case MsgStart:
		if err := l.session.Start(); err != nil {
			return LiveReply{Type: MsgError, Error: err.Error()}
		}
		l.StartedAt = l.now()
		l.last = nil
		return LiveReply{Type: MsgStarted, SessionID: l.ID}

	case MsgFrame:
		var sample pose.Sample
		if msg.TimestampMs != nil {
			sample.TimestampMs = *msg.TimestampMs
		} else {
			sample.TimestampMs = l.now().Sub(l.StartedAt).Milliseconds()
		}
		// A payload of the wrong size is treated as a frame without a person.
		if len(msg.Landmarks) == pose.NumLandmarks {
			var p pose.Pose
			copy(p[:], msg.Landmarks)
			sample.Pose = &p
		}
		accepted := l.session.Ingest(sample)
		return LiveReply{Type: MsgAck, Accepted: accepted, Records: l.session.Counters().Records}

	case MsgStop:
		res := l.session.Stop()
		l.last = &res
		counters := l.session.Counters()
		reply := LiveReply{
			Type:         MsgResult,
			SessionID:    l.ID,
			Records:      res.Records,
			Inconclusive: res.Inconclusive,
			Counters:     &counters,
		}
		if res.Conclusive() {
			summary := res.Summary
			reply.Summary = &summary
		}
		return reply

	case MsgReset:
		l.session.Reset()
		l.last = nil
		return LiveReply{Type: MsgReset, SessionID: l.ID}

	default:
		return LiveReply{Type: MsgError, Error: fmt.Sprintf("unknown message type %q", msg.Type)}
	}
}

// Result returns the result of the most recent stop, if any.
func (l *LiveSession) Result() (motion.Result, bool) {
	if l.last == nil {
		return motion.Result{}, false
	}
	return *l.last, true
}

// Counters returns the session's frame counters.
func (l *LiveSession) Counters() motion.Counters {
	return l.session.Counters()
}
