// Package rosnode creates rosgo nodes and drives their event loop.
package rosnode

import (
	"context"
	"fmt"

	"github.com/akio/rosgo/ros"
	"go.uber.org/zap/zapcore"

	"github.com/deepakkamesh/scanmarker/internal/logger"
)

// Node is the part of ros.Node the services use.
type Node interface {
	NewPublisher(topic string, msgType ros.MessageType) ros.Publisher
	NewSubscriber(topic string, msgType ros.MessageType, callback interface{}) ros.Subscriber
	OK() bool
	SpinOnce()
	Shutdown()
	Logger() ros.Logger
}

// New starts a ROS node called name. args are the process arguments; rosgo
// picks the remapping ones (__name:=, __master:=, topic:=...) out of them.
func New(name string, args []string, level zapcore.Level) (ros.Node, error) {
	node, err := ros.NewNode(name, args)
	if err != nil {
		return nil, fmt.Errorf("create node %s: %w", name, err)
	}
	node.Logger().SetSeverity(logger.RosSeverity(level))
	return node, nil
}

// Spin dispatches callbacks until ctx is done or the node stops.
// Callbacks run one at a time on the calling goroutine.
func Spin(ctx context.Context, node Node) {
	for node.OK() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		node.SpinOnce()
	}
}
