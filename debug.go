package pane

import (
	"fmt"
	"io"
	"os"
	"time"
)

// debugOut is where debug output goes. Tests swap it.
var debugOut io.Writer = os.Stderr

// frameStats holds per-frame timing and draw metrics.
// Only populated when Scene.debug is true.
type frameStats struct {
	drawTime  time.Duration
	flushes   int
	drawCalls int
	masked    int
	liveRTs   int
}

// debugLog prints frame stats to debugOut.
func (s *Scene) debugLog(stats frameStats) {
	if !s.debug {
		return
	}
	_, _ = fmt.Fprintf(debugOut,
		"[pane] draw: %v | flushes: %d | draw calls: %d | masked windows: %d | live RTs: %d\n",
		stats.drawTime, stats.flushes, stats.drawCalls, stats.masked, stats.liveRTs)
}

// countMasked sums LastMasked over every visible window layer in the tree.
func countMasked(n *Node) int {
	if !n.Visible {
		return 0
	}
	total := 0
	if n.layer != nil {
		total += n.layer.lastMasked
	}
	for _, child := range n.children {
		total += countMasked(child)
	}
	return total
}

// debugCheckDisposed panics when a disposed node is used in a tree
// operation. Only called in debug mode.
func debugCheckDisposed(n *Node, op string) {
	if n.disposed {
		panic(fmt.Sprintf("pane debug: %s on disposed node %q", op, n.Name))
	}
}

const debugMaxTreeDepth = 32

// debugCheckTreeDepth warns if tree depth exceeds debugMaxTreeDepth.
func debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		_, _ = fmt.Fprintf(debugOut, "[pane] warning: tree depth %d exceeds %d (node %q)\n",
			depth, debugMaxTreeDepth, n.Name)
	}
}

const debugMaxChildCount = 1000

// debugCheckChildCount warns if a node has more than debugMaxChildCount children.
func debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		_, _ = fmt.Fprintf(debugOut, "[pane] warning: node %q has %d children (threshold %d)\n",
			n.Name, len(n.children), debugMaxChildCount)
	}
}
