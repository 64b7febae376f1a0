package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// MaxOpenRange caps the bytes served for an open-ended "bytes=N-" request.
// Video elements issue those while seeking and only read the head of it.
const MaxOpenRange int64 = 8 << 20

// Range is an inclusive byte span of a video file.
type Range struct {
	Start int64
	End   int64
}

func (r Range) ContentLength() int64 {
	return r.End - r.Start + 1
}

func (r Range) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRange parses a single-range Range header against a file of size bytes.
// An empty header yields a nil range. Only the first range of a multi-range
// request is honoured.
func ParseRange(header string, size int64) (*Range, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrInvalidRange
	}
	spec, _, _ = strings.Cut(spec, ",")

	first, last, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return nil, ErrInvalidRange
	}

	var r Range
	switch {
	case first == "":
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return nil, ErrInvalidRange
		}
		if size == 0 {
			return nil, ErrUnsatisfiable
		}
		r = Range{Start: max(size-n, 0), End: size - 1}

	default:
		start, err := strconv.ParseInt(first, 10, 64)
		if err != nil || start < 0 {
			return nil, ErrInvalidRange
		}
		end := int64(-1)
		if last != "" {
			if end, err = strconv.ParseInt(last, 10, 64); err != nil {
				return nil, ErrInvalidRange
			}
			if end < start {
				return nil, ErrUnsatisfiable
			}
		}
		if start >= size {
			return nil, ErrUnsatisfiable
		}
		if end < 0 {
			end = min(size-1, start+MaxOpenRange-1)
		}
		r = Range{Start: start, End: min(end, size-1)}
	}

	return &r, nil
}
