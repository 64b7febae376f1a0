package pose

import (
	"context"
	"iter"
)

// Detector is the pose estimator. It returns a nil pose when no person is
// found in the frame.
type Detector interface {
	Detect(ctx context.Context, f Frame) (*Pose, error)
}

// Transport delivers decoded frames in playback order. The sequence ends at
// end of stream; iteration may be abandoned early by the caller.
type Transport interface {
	Frames(ctx context.Context) iter.Seq2[Frame, error]
}

// Stream pairs every frame from t with the pose d detects in it. A detector
// failure on a single frame yields an absent sample rather than an error;
// transport errors and context cancellation end the sequence with a non-nil
// error.
func Stream(ctx context.Context, t Transport, d Detector) iter.Seq2[Sample, error] {
	return func(yield func(Sample, error) bool) {
		for f, err := range t.Frames(ctx) {
			if err != nil {
				yield(Sample{}, err)
				return
			}
			if err := ctx.Err(); err != nil {
				yield(Sample{}, err)
				return
			}

			p, err := d.Detect(ctx, f)
			if err != nil {
				p = nil
			}
			if !yield(Sample{TimestampMs: f.TimestampMs, Pose: p}, nil) {
				return
			}
		}
	}
}
