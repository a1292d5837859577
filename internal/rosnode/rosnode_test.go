package rosnode

import (
	"context"
	"testing"

	"github.com/akio/rosgo/ros"
	"github.com/stretchr/testify/assert"
)

type countingNode struct {
	ros.Node
	spins int
	limit int
}

func (n *countingNode) OK() bool { return n.spins < n.limit }
func (n *countingNode) SpinOnce() { n.spins++ }

func TestSpinStopsWithNode(t *testing.T) {
	node := &countingNode{limit: 5}
	Spin(context.Background(), node)
	assert.Equal(t, 5, node.spins)
}

func TestSpinStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	node := &countingNode{limit: 5}
	Spin(ctx, node)
	assert.Zero(t, node.spins)
}
