package ydlidar

import (
	"math"

	"github.com/akio/rosgo/ros"
	"github.com/benbjohnson/clock"

	"github.com/deepakkamesh/scanmarker/msgs/sensor_msgs"
	"github.com/deepakkamesh/scanmarker/msgs/std_msgs"
)

const deg2Rad = math.Pi / 180

// ScanAssembler collects the packets of one revolution into a LaserScan.
type ScanAssembler struct {
	frameID            string
	model              Model
	rangeMin, rangeMax float32
	clock              clock.Clock

	seq         uint32
	frequency   float64
	minAngle    float64
	maxAngle    float64
	ranges      []float32
	intensities []float32
}

// NewScanAssembler returns an assembler stamping scans in frameID.
// A nil clock uses the wall clock.
func NewScanAssembler(frameID string, m Model, rangeMin, rangeMax float32, c clock.Clock) *ScanAssembler {
	if c == nil {
		c = clock.New()
	}
	a := &ScanAssembler{
		frameID:  frameID,
		model:    m,
		rangeMin: rangeMin,
		rangeMax: rangeMax,
		clock:    c,
	}
	a.reset()
	return a
}

// Add feeds one packet. It returns the finished scan when p starts a new
// revolution and the previous one had samples, nil otherwise.
func (a *ScanAssembler) Add(p Packet) *sensor_msgs.LaserScan {
	if p.Type == ZeroPacket {
		if p.FrequencyHz > 0 {
			a.frequency = p.FrequencyHz
		}
		return a.flush()
	}

	// Ignore transitions from 360 -> 0. eg. first: 340 last: 4.
	if len(p.Samples) == 0 || p.FirstAngle >= p.LastAngle {
		return nil
	}

	a.minAngle = math.Min(a.minAngle, p.FirstAngle)
	a.maxAngle = math.Max(a.maxAngle, p.LastAngle)
	for _, s := range p.Samples {
		a.ranges = append(a.ranges, toMeters(s.Distance))
		if a.model.HasIntensity() {
			a.intensities = append(a.intensities, float32(s.Intensity))
		}
	}
	return nil
}

func (a *ScanAssembler) flush() *sensor_msgs.LaserScan {
	if len(a.ranges) == 0 {
		a.reset()
		return nil
	}

	n := len(a.ranges)
	var increment float64
	if n > 1 {
		increment = (a.maxAngle - a.minAngle) / float64(n-1)
	}
	var scanTime float64
	if a.frequency > 0 {
		scanTime = 1 / a.frequency
	}

	now := a.clock.Now()
	scan := &sensor_msgs.LaserScan{
		Header: std_msgs.Header{
			Seq:     a.seq,
			Stamp:   ros.NewTime(uint32(now.Unix()), uint32(now.Nanosecond())),
			FrameId: a.frameID,
		},
		AngleMin:       float32(a.minAngle * deg2Rad),
		AngleMax:       float32(a.maxAngle * deg2Rad),
		AngleIncrement: float32(increment * deg2Rad),
		TimeIncrement:  float32(scanTime / float64(n)),
		ScanTime:       float32(scanTime),
		RangeMin:       a.rangeMin,
		RangeMax:       a.rangeMax,
		Ranges:         a.ranges,
		Intensities:    a.intensities,
	}
	a.seq++
	a.reset()
	return scan
}

func (a *ScanAssembler) reset() {
	a.minAngle = 360
	a.maxAngle = 0
	a.ranges = []float32{}
	a.intensities = []float32{}
}

// toMeters converts mm to m. A zero distance means no return and becomes +Inf.
func toMeters(mm float64) float32 {
	if mm == 0 {
		return float32(math.Inf(1))
	}
	return float32(mm / 1000)
}
