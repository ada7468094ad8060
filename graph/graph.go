// Package graph is the scheduler (spec §4.2): a single-threaded,
// cooperative, stepped dataflow graph of height-ordered nodes. Nothing
// here is specific to any container kind — package container supplies
// the command algebras, package reactive composes them with graph into
// the Reactive[T] wrapper, and package ops builds the named incremental
// operators on top of both.
package graph

import (
	"container/heap"

	"github.com/nmxmxh/ivm/internal/support"
)

// Node is the scheduler's view of a graph member: a height, a step
// function, and the dependent edges the scheduler propagates dirtiness
// along (spec §4.2.1). Unexported methods mean every Node this package
// schedules is also constructed by this package.
type Node interface {
	Height() int
	step()
	addDependent(n Node)
	removeDependent(n Node)
	dependents() []Node
	seqNum() uint64
}

// Config configures a Graph.
type Config struct {
	Logger *support.Logger
}

// Graph owns the dirty set and runs the step cycle.
type Graph struct {
	logger  *support.Logger
	nextSeq uint64
	dirty   map[Node]struct{}
}

// New builds an empty Graph.
func New(cfg Config) *Graph {
	if cfg.Logger == nil {
		cfg.Logger = support.NewNopLogger()
	}
	return &Graph{
		logger: cfg.Logger.Component("graph"),
		dirty:  make(map[Node]struct{}),
	}
}

// Logger returns the graph's configured logger, scoped to "graph" — ops
// built on top of this graph reuse it via Component so tracing from the
// scheduler and from an operator's own diagnostics share one sink and
// one level.
func (g *Graph) Logger() *support.Logger {
	return g.logger
}

func (g *Graph) nextSeqNum() uint64 {
	g.nextSeq++
	return g.nextSeq
}

// MarkDirtyNextStep schedules n for the next call to Step (spec
// §4.2.2: "via mark_dirty_next_step during the previous cycle").
func (g *Graph) MarkDirtyNextStep(n Node) {
	g.dirty[n] = struct{}{}
}

// nodeHeap orders pending nodes by (height, seq) so that Step processes
// strictly ascending height, and ties break by construction order
// (spec §5, "equal height ... processed in insertion order").
type nodeHeap []Node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].Height() != h[j].Height() {
		return h[i].Height() < h[j].Height()
	}
	return h[i].seqNum() < h[j].seqNum()
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x any)   { *h = append(*h, x.(Node)) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Step runs one full level-ordered pass: every node marked dirty since
// the previous Step, plus every dependent a stepped node propagates to
// within this same cycle (spec §4.2.2). A node's step may only ever
// dirty higher-height descendants; the height invariant (every node's
// height strictly exceeds its inputs') is what makes that safe without
// re-checking order at propagation time.
func (g *Graph) Step() {
	if len(g.dirty) == 0 {
		return
	}
	scheduled := g.dirty
	g.dirty = make(map[Node]struct{})

	h := make(nodeHeap, 0, len(scheduled))
	for n := range scheduled {
		h = append(h, n)
	}
	heap.Init(&h)

	stepped := 0
	for h.Len() > 0 {
		n := heap.Pop(&h).(Node)
		n.step()
		stepped++
		for _, dep := range n.dependents() {
			if _, ok := scheduled[dep]; ok {
				continue
			}
			scheduled[dep] = struct{}{}
			heap.Push(&h, dep)
		}
	}
	g.logger.Debug("step complete", support.Int("nodes_stepped", stepped))
}
