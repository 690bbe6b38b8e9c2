// Package camera samples scene brightness from a video capture device.
//
// The receiver only consumes a brightness scalar per tick, so the whole
// camera boundary collapses to: grab a frame, reduce it to its mean gray
// value in [0,255].
package camera

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var ErrNoFrame = errors.New("no frame from capture device")

// Source reads frames from a capture device and reduces each one to its
// mean gray brightness. It implements sampler.Source.
type Source struct {
	capture *gocv.VideoCapture
	frame   gocv.Mat
	gray    gocv.Mat
}

// Open opens the capture device with the given id (0 is the default camera).
func Open(deviceID int) (*Source, error) {
	capture, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("open capture device %d: %w", deviceID, err)
	}

	return &Source{
		capture: capture,
		frame:   gocv.NewMat(),
		gray:    gocv.NewMat(),
	}, nil
}

// Sample grabs one frame and returns its mean gray value in [0,255].
func (s *Source) Sample() (float64, error) {
	if ok := s.capture.Read(&s.frame); !ok || s.frame.Empty() {
		return 0, ErrNoFrame
	}

	gocv.CvtColor(s.frame, &s.gray, gocv.ColorBGRToGray)
	return s.gray.Mean().Val1, nil
}

// Close releases the capture device and the frame buffers.
func (s *Source) Close() error {
	err := s.capture.Close()
	if e := s.frame.Close(); err == nil {
		err = e
	}
	if e := s.gray.Close(); err == nil {
		err = e
	}
	return err
}
