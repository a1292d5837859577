package ydlidar

import (
	"errors"
	"io"
	"sync"
	"time"
)

// idleWait mimics a serial read timeout while the replayed device is idle.
const idleWait = 10 * time.Millisecond

var errPortClosed = errors.New("replay port closed")

// ReplayPort is a Port that plays back a raw capture of the device's answer
// to the start scan command: the 7 byte response header followed by scan
// packets. The packets loop forever once scanning has started. Health and
// device info commands get canned healthy answers for the given model.
type ReplayPort struct {
	mu       sync.Mutex
	capture  []byte
	model    Model
	pace     time.Duration
	off      int
	scanning bool
	pending  []byte
	closed   bool
}

// NewReplayPort returns a ReplayPort over capture. pace is slept on every
// Read so playback runs near device speed.
func NewReplayPort(capture []byte, m Model, pace time.Duration) (*ReplayPort, error) {
	if len(capture) <= responseHeaderSize || capture[0] != 0xA5 || capture[1] != 0x5A {
		return nil, ErrBadHeader
	}
	return &ReplayPort{capture: capture, model: m, pace: pace}, nil
}

// Write interprets the command and queues the reply.
func (r *ReplayPort) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, errPortClosed
	}
	if len(p) < 2 || p[0] != preCommand {
		return len(p), nil
	}

	switch p[1] {
	case startScanning:
		r.scanning = true
		r.off = 0
	case stopScanning:
		r.scanning = false
		r.pending = nil
	case healthStatus:
		r.pending = append(r.pending, 0xA5, 0x5A, healthInfoSize, 0, 0, 0, HealthTypeCode, 0, 0, 0)
	case deviceInfo:
		r.pending = append(r.pending, 0xA5, 0x5A, deviceInfoSize, 0, 0, 0, InfoTypeCode, r.model.Code, 1, 0, 1)
		r.pending = append(r.pending, make([]byte, 16)...)
	}
	return len(p), nil
}

// Read serves queued replies first, then the capture while scanning.
func (r *ReplayPort) Read(p []byte) (int, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return 0, io.EOF
	}

	if len(r.pending) > 0 {
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		r.mu.Unlock()
		return n, nil
	}

	if !r.scanning {
		r.mu.Unlock()
		time.Sleep(idleWait)
		return 0, nil
	}

	if r.off >= len(r.capture) {
		// Loop back past the response header.
		r.off = responseHeaderSize
	}
	n := copy(p, r.capture[r.off:])
	r.off += n
	r.mu.Unlock()

	if r.pace > 0 {
		time.Sleep(r.pace)
	}
	return n, nil
}

// SetDTR is a no-op.
func (r *ReplayPort) SetDTR(bool) error {
	return nil
}

// ResetInputBuffer drops queued replies.
func (r *ReplayPort) ResetInputBuffer() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
	return nil
}

// Close makes further reads return io.EOF.
func (r *ReplayPort) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
