package ops

import (
	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
	"github.com/nmxmxh/ivm/reactive"
)

// buildPerKeyChild constructs one key's own input substream by
// deriving, on every step, the merge of that key's update commands out
// of a shared map-change cell — never by pushing into a separate
// graph.ChangeInput — so the substream is linked and stepped through
// ordinary height propagation from the moment it is built (spec
// §4.3.4's "ensure children exist" requirement, met here by computing
// every combinator's initial value synchronously at construction
// instead of deferring it to a future Step).
func buildPerKeyChild[K comparable, X, ICX, Y, ICY any](
	g *graph.Graph,
	elemOpsX container.Ops[X, ICX],
	mapChanges graph.Cell[container.MapBatch[K, X, ICX]],
	key K,
	initX X,
	f func(*graph.Graph, reactive.Reactive[X, ICX]) reactive.Reactive[Y, ICY],
) reactive.Reactive[Y, ICY] {
	innerChanges := graph.Map(g, mapChanges, func(batch container.MapBatch[K, X, ICX]) ICX {
		acc := elemOpsX.Empty()
		has := false
		for _, cmd := range batch {
			if cmd.Op == container.MapUpdate && cmd.Key == key {
				if has {
					acc = elemOpsX.Merge(acc, cmd.Inner)
				} else {
					acc, has = cmd.Inner, true
				}
			}
		}
		return acc
	})
	childX := reactive.New(g, elemOpsX, innerChanges, initX)
	return f(g, childX)
}
