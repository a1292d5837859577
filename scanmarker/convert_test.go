package scanmarker

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"

	"github.com/deepakkamesh/scanmarker/msgs/geometry_msgs"
	"github.com/deepakkamesh/scanmarker/msgs/sensor_msgs"
)

var approx = cmpopts.EquateApprox(0, 1e-6)

func nan() float32 { return float32(math.NaN()) }
func inf() float32 { return float32(math.Inf(1)) }

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		scan *sensor_msgs.LaserScan
		want []geometry_msgs.Point
	}{
		{
			name: "quarter turns with invalid readings",
			scan: &sensor_msgs.LaserScan{
				AngleMin:       0,
				AngleIncrement: math.Pi / 2,
				Ranges:         []float32{1.0, nan(), 2.0, inf()},
			},
			// The NaN still consumes a quarter turn, so 2.0 lands at pi.
			want: []geometry_msgs.Point{{X: 1}, {X: -2}},
		},
		{
			name: "empty ranges",
			scan: &sensor_msgs.LaserScan{AngleIncrement: 0.1, Ranges: []float32{}},
			want: []geometry_msgs.Point{},
		},
		{
			name: "negative infinity skipped",
			scan: &sensor_msgs.LaserScan{
				AngleIncrement: math.Pi,
				Ranges:         []float32{float32(math.Inf(-1)), 3},
			},
			want: []geometry_msgs.Point{{X: -3}},
		},
		{
			name: "clockwise scan",
			scan: &sensor_msgs.LaserScan{
				AngleMin:       math.Pi / 2,
				AngleIncrement: -math.Pi / 2,
				Ranges:         []float32{1, 1, 1},
			},
			want: []geometry_msgs.Point{{Y: 1}, {X: 1}, {Y: -1}},
		},
		{
			name: "negative distance passes through",
			scan: &sensor_msgs.LaserScan{
				AngleIncrement: 0,
				Ranges:         []float32{-2},
			},
			want: []geometry_msgs.Point{{X: -2}},
		},
		{
			name: "zero increment keeps bearing",
			scan: &sensor_msgs.LaserScan{
				AngleMin: math.Pi / 2,
				Ranges:   []float32{1, 2},
			},
			want: []geometry_msgs.Point{{Y: 1}, {Y: 2}},
		},
		{
			name: "nil scan",
			scan: nil,
			want: []geometry_msgs.Point{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Convert(tc.scan)
			if diff := cmp.Diff(tc.want, got, approx); diff != "" {
				t.Errorf("Convert() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConvertAllNaN(t *testing.T) {
	ranges := make([]float32, 360)
	for i := range ranges {
		ranges[i] = nan()
	}
	scan := &sensor_msgs.LaserScan{
		AngleMin:       -math.Pi,
		AngleIncrement: 2 * math.Pi / 360,
		Ranges:         ranges,
	}

	got := Convert(scan)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// scanWithGaps builds a 360 sample scan where every seventh reading is
// invalid.
func scanWithGaps() (*sensor_msgs.LaserScan, []int) {
	scan := &sensor_msgs.LaserScan{
		AngleMin:       -math.Pi,
		AngleIncrement: float32(2 * math.Pi / 360),
		Ranges:         make([]float32, 360),
	}
	var valid []int
	for i := range scan.Ranges {
		switch {
		case i%14 == 0:
			scan.Ranges[i] = nan()
		case i%7 == 0:
			scan.Ranges[i] = inf()
		default:
			scan.Ranges[i] = 0.5 + float32(i)/100
			valid = append(valid, i)
		}
	}
	return scan, valid
}

func TestConvertLengthAndOrder(t *testing.T) {
	scan, valid := scanWithGaps()

	got := Convert(scan)
	assert.Len(t, got, len(valid))
	assert.LessOrEqual(t, len(got), len(scan.Ranges))

	for j, idx := range valid {
		d := float64(scan.Ranges[idx])
		a := float64(scan.AngleMin) + float64(idx)*float64(scan.AngleIncrement)

		assert.InDelta(t, d*math.Cos(a), got[j].X, 1e-4, "x of point %d", j)
		assert.InDelta(t, d*math.Sin(a), got[j].Y, 1e-4, "y of point %d", j)
		assert.Zero(t, got[j].Z)
		// Bearing and distance recover the source reading.
		assert.InDelta(t, d, math.Hypot(got[j].X, got[j].Y), 1e-4)
	}
}

func TestConvertAllFinite(t *testing.T) {
	scan := &sensor_msgs.LaserScan{
		AngleMin:       -1,
		AngleIncrement: 0.01,
		Ranges:         make([]float32, 200),
	}
	for i := range scan.Ranges {
		scan.Ranges[i] = float32(i) / 10
	}

	assert.Len(t, Convert(scan), len(scan.Ranges))
}

func TestConvertIdempotent(t *testing.T) {
	scan, _ := scanWithGaps()

	first := Convert(scan)
	second := Convert(scan)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second Convert() differs (-first +second):\n%s", diff)
	}
}
