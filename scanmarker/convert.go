// Package scanmarker converts planar laser scans into rviz point markers.
package scanmarker

import (
	"math"

	"github.com/deepakkamesh/scanmarker/msgs/geometry_msgs"
	"github.com/deepakkamesh/scanmarker/msgs/sensor_msgs"
)

// Convert returns the Cartesian position of every usable range in scan, in
// scan order. NaN and infinite ranges are dropped but still consume an angle
// step, so the bearing of each kept point is angle_min + i*angle_increment
// where i is its index in scan.Ranges.
func Convert(scan *sensor_msgs.LaserScan) []geometry_msgs.Point {
	if scan == nil {
		return []geometry_msgs.Point{}
	}

	points := make([]geometry_msgs.Point, 0, len(scan.Ranges))
	angle := float64(scan.AngleMin)
	for _, r := range scan.Ranges {
		dist := float64(r)
		if math.IsNaN(dist) || math.IsInf(dist, 0) {
			angle += float64(scan.AngleIncrement)
			continue
		}
		points = append(points, geometry_msgs.Point{
			X: dist * math.Cos(angle),
			Y: dist * math.Sin(angle),
			Z: 0,
		})
		angle += float64(scan.AngleIncrement)
	}
	return points
}
