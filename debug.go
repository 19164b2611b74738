package moonquake

import (
	"time"
)

// debugStats holds per-frame timing and draw-call metrics.
// Only populated when Scene.debug is true.
type debugStats struct {
	traverseTime  time.Duration
	sortTime      time.Duration
	submitTime    time.Duration
	commandCount  int
	batchCount    int
	drawCallCount int
}

// debugLog emits timing and draw-call stats as one debug event.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	total := stats.traverseTime + stats.sortTime + stats.submitTime
	s.log.Debug().
		Dur("traverse", stats.traverseTime).
		Dur("sort", stats.sortTime).
		Dur("submit", stats.submitTime).
		Dur("total", total).
		Int("commands", stats.commandCount).
		Int("batches", stats.batchCount).
		Int("draw_calls", stats.drawCallCount).
		Msg("frame")
}

// debugMaxTreeDepth is the depth above which AddChild warns in debug mode.
const debugMaxTreeDepth = 32

func (g *Graph) debugCheckTreeDepth(n *Node) {
	depth := 0
	for p := n.ID; p != None; p = g.nodes[p].parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		g.log.Warn().Str("node", n.Name).Int("depth", depth).Int("threshold", debugMaxTreeDepth).
			Msg("tree depth exceeds threshold")
	}
}

// debugMaxChildCount is the child count above which AddChild warns in debug mode.
const debugMaxChildCount = 1000

func (g *Graph) debugCheckChildCount(n *Node) {
	if len(n.children) > debugMaxChildCount {
		g.log.Warn().Str("node", n.Name).Int("children", len(n.children)).Int("threshold", debugMaxChildCount).
			Msg("node child count exceeds threshold")
	}
}

// countBatches counts contiguous groups of commands sharing the same batchKey.
func countBatches(commands []RenderCommand) int {
	if len(commands) == 0 {
		return 0
	}
	count := 1
	prev := commandBatchKey(&commands[0])
	for i := 1; i < len(commands); i++ {
		cur := commandBatchKey(&commands[i])
		if cur != prev {
			count++
			prev = cur
		}
	}
	return count
}

// countDrawCalls counts the DrawTriangles32 calls submitBatches issues: one
// per batch plus one relief pass for batches that carry a relief map.
func countDrawCalls(commands []RenderCommand) int {
	if len(commands) == 0 {
		return 0
	}
	count := 0
	for i := range commands {
		if i > 0 && commandBatchKey(&commands[i]) == commandBatchKey(&commands[i-1]) {
			continue
		}
		count++
		if commands[i].Relief != nil {
			count++
		}
	}
	return count
}
