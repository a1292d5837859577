package scanmarker

import (
	"github.com/akio/rosgo/ros"

	"github.com/deepakkamesh/scanmarker/msgs/geometry_msgs"
	"github.com/deepakkamesh/scanmarker/msgs/std_msgs"
	"github.com/deepakkamesh/scanmarker/msgs/visualization_msgs"
)

const (
	// DefaultFrameID is the frame the scan points are expressed in.
	DefaultFrameID = "laser_link"

	// PointScale is the rendered size of each point on every axis [m].
	PointScale = 0.02

	// MarkerLifetimeSec is how long rviz keeps a marker without a refresh.
	MarkerLifetimeSec = 2
)

// BuildMarker wraps points in a POINTS marker stamped at stamp.
// Every marker shares ns "" and id 0, so each publish replaces the last one
// in rviz.
func BuildMarker(points []geometry_msgs.Point, stamp ros.Time, frameID string) *visualization_msgs.Marker {
	if frameID == "" {
		frameID = DefaultFrameID
	}
	if points == nil {
		points = []geometry_msgs.Point{}
	}
	return &visualization_msgs.Marker{
		Header: std_msgs.Header{
			Stamp:   stamp,
			FrameId: frameID,
		},
		Ns:     "",
		Id:     0,
		Type_:  int32(visualization_msgs.MarkerPOINTS),
		Action: int32(visualization_msgs.MarkerADD),
		Pose: geometry_msgs.Pose{
			Orientation: geometry_msgs.Quaternion{W: 1},
		},
		Scale:    geometry_msgs.Vector3{X: PointScale, Y: PointScale, Z: PointScale},
		Color:    std_msgs.ColorRGBA{R: 1, G: 1, B: 1, A: 1},
		Points:   points,
		Colors:   []std_msgs.ColorRGBA{},
		Lifetime: ros.NewDuration(MarkerLifetimeSec, 0),
	}
}
