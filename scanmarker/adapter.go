package scanmarker

import (
	"github.com/akio/rosgo/ros"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/deepakkamesh/scanmarker/msgs/sensor_msgs"
)

//go:generate mockgen -destination=mocks/mock_publisher.go -package=mocks github.com/deepakkamesh/scanmarker/scanmarker Publisher

// Publisher is the part of ros.Publisher the adapter needs.
type Publisher interface {
	Publish(msg ros.Message)
}

// Adapter turns every received scan into exactly one published marker.
type Adapter struct {
	pub     Publisher
	clock   clock.Clock
	frameID string
	log     *zap.SugaredLogger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock sets the clock used to stamp markers.
func WithClock(c clock.Clock) Option {
	return func(a *Adapter) {
		a.clock = c
	}
}

// WithFrameID overrides DefaultFrameID.
func WithFrameID(id string) Option {
	return func(a *Adapter) {
		if id != "" {
			a.frameID = id
		}
	}
}

// WithLogger sets the logger for per-scan debug output.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAdapter returns an Adapter publishing on pub.
func NewAdapter(pub Publisher, opts ...Option) *Adapter {
	a := &Adapter{
		pub:     pub,
		clock:   clock.New(),
		frameID: DefaultFrameID,
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// OnScanReceived is the subscriber callback for the scan topic.
func (a *Adapter) OnScanReceived(scan *sensor_msgs.LaserScan) {
	points := Convert(scan)
	marker := BuildMarker(points, rosTime(a.clock), a.frameID)
	a.pub.Publish(marker)

	if scan != nil {
		a.log.Debugw("published marker", "points", len(points), "skipped", len(scan.Ranges)-len(points))
	}
}

func rosTime(c clock.Clock) ros.Time {
	now := c.Now()
	return ros.NewTime(uint32(now.Unix()), uint32(now.Nanosecond()))
}
