// Package scanner publishes the revolutions of a YDLidar as LaserScan
// messages.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/deepakkamesh/scanmarker/internal/config"
	"github.com/deepakkamesh/scanmarker/internal/logger"
	"github.com/deepakkamesh/scanmarker/internal/rosnode"
	"github.com/deepakkamesh/scanmarker/msgs/sensor_msgs"
	"github.com/deepakkamesh/scanmarker/ydlidar"
)

// Lidar is the driver surface the service needs. *ydlidar.YDLidar implements it.
type Lidar interface {
	Model() ydlidar.Model
	Health(ctx context.Context) error
	Scan(ctx context.Context, packets chan<- ydlidar.Packet) error
	StopScan() error
}

// okInterval is how often Run polls the node while the device is silent.
const okInterval = 500 * time.Millisecond

// Run scans until ctx is done, the node shuts down or the device fails.
// A nil clock stamps scans with the wall clock.
func Run(ctx context.Context, node rosnode.Node, lidar Lidar, cfg config.Lidar, c clock.Clock) error {
	if c == nil {
		c = clock.New()
	}
	model := lidar.Model()
	ctx = logger.WithKV(logger.WithName(ctx, "scanner"), "model", model.Name)

	if err := lidar.Health(ctx); err != nil {
		logger.WarnKV(ctx, "lidar health check failed", "error", err)
	}

	pub := node.NewPublisher(cfg.ScanTopic, sensor_msgs.MsgLaserScan)
	defer pub.Shutdown()

	assembler := ydlidar.NewScanAssembler(cfg.FrameID, model, cfg.RangeMin, cfg.RangeMax, c)

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// packets is closed once Scan returns, so every decoded packet is
	// assembled before the scan error is looked at.
	packets := make(chan ydlidar.Packet, 16)
	errc := make(chan error, 1)
	go func() {
		err := lidar.Scan(scanCtx, packets)
		close(packets)
		errc <- err
	}()
	defer func() {
		if err := lidar.StopScan(); err != nil {
			logger.WarnKV(ctx, "failed to stop lidar", "error", err)
		}
	}()

	ticker := c.Ticker(okInterval)
	defer ticker.Stop()

	// stop cancels the scan and discards what is still in flight.
	stop := func() {
		cancel()
		for range packets {
		}
		<-errc
	}

	logger.InfoKV(ctx, "scanning", "topic", cfg.ScanTopic, "frame_id", cfg.FrameID)
	for {
		select {
		case <-ctx.Done():
			stop()
			logger.Infof(ctx, "stopped")
			return nil

		case <-ticker.C:
			if !node.OK() {
				stop()
				logger.Infof(ctx, "node shut down")
				return nil
			}

		case p, ok := <-packets:
			if !ok {
				if err := <-errc; err != nil {
					return fmt.Errorf("scan: %w", err)
				}
				return nil
			}
			if !node.OK() {
				stop()
				return nil
			}
			if scan := assembler.Add(p); scan != nil {
				pub.Publish(scan)
				logger.DebugKV(ctx, "published scan", "seq", scan.Header.Seq, "ranges", len(scan.Ranges))
			}
		}
	}
}
