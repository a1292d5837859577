// Package markers runs the node that turns laser scans into rviz point
// markers.
package markers

import (
	"context"
	"errors"

	"github.com/deepakkamesh/scanmarker/internal/config"
	"github.com/deepakkamesh/scanmarker/internal/logger"
	"github.com/deepakkamesh/scanmarker/internal/rosnode"
	"github.com/deepakkamesh/scanmarker/msgs/sensor_msgs"
	"github.com/deepakkamesh/scanmarker/msgs/visualization_msgs"
	"github.com/deepakkamesh/scanmarker/scanmarker"
)

var errNoTopic = errors.New("scan and marker topics are required")

// Run subscribes to cfg.ScanTopic and republishes every scan as a marker on
// cfg.MarkerTopic until ctx is done or the node shuts down.
func Run(ctx context.Context, node rosnode.Node, cfg config.Markers, opts ...scanmarker.Option) error {
	if cfg.ScanTopic == "" || cfg.MarkerTopic == "" {
		return errNoTopic
	}

	ctx = logger.WithKV(logger.WithName(ctx, "markers"), "scan_topic", cfg.ScanTopic)

	pub := node.NewPublisher(cfg.MarkerTopic, visualization_msgs.MsgMarker)
	defer pub.Shutdown()

	opts = append([]scanmarker.Option{
		scanmarker.WithFrameID(cfg.FrameID),
		scanmarker.WithLogger(logger.FromContext(ctx)),
	}, opts...)
	adapter := scanmarker.NewAdapter(pub, opts...)

	sub := node.NewSubscriber(cfg.ScanTopic, sensor_msgs.MsgLaserScan, func(msg *sensor_msgs.LaserScan) {
		adapter.OnScanReceived(msg)
	})
	defer sub.Shutdown()

	logger.InfoKV(ctx, "converting scans", "marker_topic", cfg.MarkerTopic, "frame_id", cfg.FrameID)
	rosnode.Spin(ctx, node)
	logger.Infof(ctx, "stopped")
	return nil
}
