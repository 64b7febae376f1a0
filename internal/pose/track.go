package pose

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"os"
)

// Track is a pose track written by the pose pipeline: one entry per decoded
// frame, with the landmarks found in it (if any). A Track serves both as the
// Transport and the Detector for offline analysis of a video file.
type Track struct {
	SchemaVersion   string
	PipelineVersion string
	ModelVersion    string
	VideoID         string
	FPS             float64
	Entries         []TrackFrame

	// MalformedFrames counts entries whose landmark payload could not be
	// decoded. They are kept as frames without a pose.
	MalformedFrames int

	byIndex map[int]*Pose
}

// TrackFrame is a single frame of a Track.
type TrackFrame struct {
	Index       int
	TimestampMs int64
	Pose        *Pose
}

type trackFile struct {
	SchemaVersion   string           `json:"schema_version"`
	PipelineVersion string           `json:"pipeline_version"`
	ModelVersion    string           `json:"model_version"`
	VideoID         string           `json:"video_id"`
	FPS             float64          `json:"fps"`
	Frames          []trackFileFrame `json:"frames"`
}

type trackFileFrame struct {
	Index       int         `json:"index"`
	TimestampMs int64       `json:"timestamp_ms"`
	Landmarks   [][]float64 `json:"landmarks"`
}

// LoadTrack reads and decodes a pose track file.
func LoadTrack(path string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pose track: %w", err)
	}
	return ParseTrack(data)
}

// ParseTrack decodes a pose track from its JSON encoding.
func ParseTrack(data []byte) (*Track, error) {
	var tf trackFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse pose track: %w", err)
	}

	t := &Track{
		SchemaVersion:   tf.SchemaVersion,
		PipelineVersion: tf.PipelineVersion,
		ModelVersion:    tf.ModelVersion,
		VideoID:         tf.VideoID,
		FPS:             tf.FPS,
		Entries:         make([]TrackFrame, 0, len(tf.Frames)),
		byIndex:         make(map[int]*Pose, len(tf.Frames)),
	}

	for _, f := range tf.Frames {
		frame := TrackFrame{Index: f.Index, TimestampMs: f.TimestampMs}
		if f.Landmarks != nil {
			p, ok := decodeLandmarks(f.Landmarks)
			if ok {
				frame.Pose = p
				t.byIndex[f.Index] = p
			} else {
				t.MalformedFrames++
			}
		}
		t.Entries = append(t.Entries, frame)
	}

	return t, nil
}

// decodeLandmarks expects exactly NumLandmarks entries of [x, y, z, visibility].
func decodeLandmarks(raw [][]float64) (*Pose, bool) {
	if len(raw) != NumLandmarks {
		return nil, false
	}
	var p Pose
	for i, v := range raw {
		if len(v) != 4 {
			return nil, false
		}
		p[i] = Landmark{X: v[0], Y: v[1], Z: v[2], Visibility: v[3]}
	}
	return &p, true
}

// DetectedFrames returns the number of frames that carry a pose.
func (t *Track) DetectedFrames() int {
	return len(t.byIndex)
}

// Frames implements Transport.
func (t *Track) Frames(ctx context.Context) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for _, f := range t.Entries {
			if err := ctx.Err(); err != nil {
				yield(Frame{}, err)
				return
			}
			if !yield(Frame{Index: f.Index, TimestampMs: f.TimestampMs}, nil) {
				return
			}
		}
	}
}

// Detect implements Detector by looking the frame up in the track.
func (t *Track) Detect(_ context.Context, f Frame) (*Pose, error) {
	return t.byIndex[f.Index], nil
}
