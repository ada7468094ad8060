package graph

// Accumulate is a stateful fold over an input's stepped values (spec
// §4.2.3): state0 = init, statei = f(statei-1, inputi). It steps every
// cycle its input steps, including cycles where input carries the
// algebra's identity command — f must be the container's own Apply so
// that an identity command is a true no-op.
func Accumulate[S, C any](g *Graph, changes Cell[C], init S, apply func(S, C) S) Cell[S] {
	state := init
	out := newCell(g, changes.Height()+1, init, func() S {
		state = apply(state, changes.Value())
		return state
	})
	link(changes, out.n)
	return out
}

// Delay is a one-step shift (spec §4.2.3): the first value observed is
// init; every subsequent value is whatever in held just before the
// current step. Because Delay's height exceeds in's, in has always
// already stepped this cycle by the time Delay reads it, so the
// "previous" value captured here is exactly last cycle's value.
func Delay[T any](g *Graph, in Cell[T], init T) Cell[T] {
	prev := init
	out := newCell(g, in.Height()+1, init, func() T {
		v := prev
		prev = in.Value()
		return v
	})
	link(in, out.n)
	return out
}

// Map applies a pure function to every stepped value of in.
func Map[A, B any](g *Graph, in Cell[A], f func(A) B) Cell[B] {
	out := newCell(g, in.Height()+1, f(in.Value()), func() B {
		return f(in.Value())
	})
	link(in, out.n)
	return out
}

// Zip combines two inputs pointwise. Height is one past the taller
// input so both are guaranteed stepped first.
func Zip[A, B, C any](g *Graph, a Cell[A], b Cell[B], f func(A, B) C) Cell[C] {
	height := max(a.Height(), b.Height()) + 1
	out := newCell(g, height, f(a.Value(), b.Value()), func() C {
		return f(a.Value(), b.Value())
	})
	link(a, out.n)
	link(b, out.n)
	return out
}

func Zip3[A, B, C, D any](g *Graph, a Cell[A], b Cell[B], c Cell[C], f func(A, B, C) D) Cell[D] {
	height := max(a.Height(), max(b.Height(), c.Height())) + 1
	out := newCell(g, height, f(a.Value(), b.Value(), c.Value()), func() D {
		return f(a.Value(), b.Value(), c.Value())
	})
	link(a, out.n)
	link(b, out.n)
	link(c, out.n)
	return out
}

func Zip4[A, B, C, D, E any](g *Graph, a Cell[A], b Cell[B], c Cell[C], d Cell[D], f func(A, B, C, D) E) Cell[E] {
	height := max(max(a.Height(), b.Height()), max(c.Height(), d.Height())) + 1
	out := newCell(g, height, f(a.Value(), b.Value(), c.Value(), d.Value()), func() E {
		return f(a.Value(), b.Value(), c.Value(), d.Value())
	})
	link(a, out.n)
	link(b, out.n)
	link(c, out.n)
	link(d, out.n)
	return out
}

// flattenState holds the mutable re-wiring state behind NewFlatten's
// returned Cell: which inner Cell is currently linked as an input, so
// the link can move when outer's value switches to a different inner
// cell.
type flattenState[T any] struct {
	g            *Graph
	outer        Cell[Cell[T]]
	currentInner Cell[T]
	self         Node
}

// Flatten collapses a reactive-of-reactive into the plain reactive it
// currently points at (spec §4.2.3, "join of nested reactives"). The
// dynamic re-link on an inner-cell switch assigns the new height before
// the switch is observed by any later Step, preserving the height
// invariant of spec §4.2.1 across dynamic construction.
func Flatten[T any](g *Graph, outer Cell[Cell[T]]) Cell[T] {
	inner := outer.Value()
	fs := &flattenState[T]{g: g, outer: outer, currentInner: inner}
	height := max(outer.Height(), inner.Height()) + 1
	out := newCell(g, height, inner.Value(), fs.step)
	fs.self = out.n
	link(outer, out.n)
	link(inner, out.n)
	return out
}

func (fs *flattenState[T]) step() T {
	newInner := fs.outer.Value()
	if newInner.n != fs.currentInner.n {
		unlink(fs.currentInner, fs.self)
		fs.currentInner = newInner
		link(newInner, fs.self)
		if h := max(fs.outer.Height(), newInner.Height()) + 1; h > fs.self.(*node[T]).height {
			fs.self.(*node[T]).height = h
		}
	}
	return fs.currentInner.Value()
}

// Bind is Map followed by Flatten: dynamic switching driven by a
// function of the outer input's value (spec §4.2.3, "dynamic
// switching").
func Bind[A, B any](g *Graph, in Cell[A], f func(A) Cell[B]) Cell[B] {
	outer := Map(g, in, f)
	return Flatten(g, outer)
}
