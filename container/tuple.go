package container

// Tuple2 is a fixed-arity 2-tuple (spec §3.1, §3.5).
type Tuple2[A, B any] struct {
	A A
	B B
}

// Tuple2Cmd carries an optional per-slot inner command; any subset may
// be empty (spec §3.1).
type Tuple2Cmd[CA, CB any] struct {
	HasA bool
	A    CA
	HasB bool
	B    CB
}

// Tuple2Ops builds the command algebra for a 2-tuple from its slots'
// own algebras.
func Tuple2Ops[A, B any, CA, CB any](opsA Ops[A, CA], opsB Ops[B, CB]) Ops[Tuple2[A, B], Tuple2Cmd[CA, CB]] {
	apply := func(s Tuple2[A, B], c Tuple2Cmd[CA, CB]) Tuple2[A, B] {
		out := s
		if c.HasA {
			out.A = opsA.Apply(s.A, c.A)
		}
		if c.HasB {
			out.B = opsB.Apply(s.B, c.B)
		}
		return out
	}
	merge := func(x, y Tuple2Cmd[CA, CB]) Tuple2Cmd[CA, CB] {
		out := x
		if y.HasA {
			if out.HasA {
				out.A = opsA.Merge(out.A, y.A)
			} else {
				out.HasA, out.A = true, y.A
			}
		}
		if y.HasB {
			if out.HasB {
				out.B = opsB.Merge(out.B, y.B)
			} else {
				out.HasB, out.B = true, y.B
			}
		}
		return out
	}
	empty := func() Tuple2Cmd[CA, CB] { return Tuple2Cmd[CA, CB]{} }
	isEmpty := func(c Tuple2Cmd[CA, CB]) bool { return !c.HasA && !c.HasB }
	replace := func(cur, target Tuple2[A, B]) Tuple2Cmd[CA, CB] {
		return Tuple2Cmd[CA, CB]{
			HasA: true, A: opsA.Replace(cur.A, target.A),
			HasB: true, B: opsB.Replace(cur.B, target.B),
		}
	}
	return Ops[Tuple2[A, B], Tuple2Cmd[CA, CB]]{Apply: apply, Merge: merge, Empty: empty, IsEmpty: isEmpty, Replace: replace}
}

// Tuple3 is a fixed-arity 3-tuple, mirroring graph.Zip3's arity (spec
// §3.5).
type Tuple3[A, B, C any] struct {
	A A
	B B
	C C
}

// Tuple3Cmd carries an optional per-slot inner command.
type Tuple3Cmd[CA, CB, CC any] struct {
	HasA bool
	A    CA
	HasB bool
	B    CB
	HasC bool
	C    CC
}

// Tuple3Ops builds the command algebra for a 3-tuple from its slots'
// own algebras.
func Tuple3Ops[A, B, C any, CA, CB, CC any](opsA Ops[A, CA], opsB Ops[B, CB], opsC Ops[C, CC]) Ops[Tuple3[A, B, C], Tuple3Cmd[CA, CB, CC]] {
	apply := func(s Tuple3[A, B, C], c Tuple3Cmd[CA, CB, CC]) Tuple3[A, B, C] {
		out := s
		if c.HasA {
			out.A = opsA.Apply(s.A, c.A)
		}
		if c.HasB {
			out.B = opsB.Apply(s.B, c.B)
		}
		if c.HasC {
			out.C = opsC.Apply(s.C, c.C)
		}
		return out
	}
	merge := func(x, y Tuple3Cmd[CA, CB, CC]) Tuple3Cmd[CA, CB, CC] {
		out := x
		if y.HasA {
			if out.HasA {
				out.A = opsA.Merge(out.A, y.A)
			} else {
				out.HasA, out.A = true, y.A
			}
		}
		if y.HasB {
			if out.HasB {
				out.B = opsB.Merge(out.B, y.B)
			} else {
				out.HasB, out.B = true, y.B
			}
		}
		if y.HasC {
			if out.HasC {
				out.C = opsC.Merge(out.C, y.C)
			} else {
				out.HasC, out.C = true, y.C
			}
		}
		return out
	}
	empty := func() Tuple3Cmd[CA, CB, CC] { return Tuple3Cmd[CA, CB, CC]{} }
	isEmpty := func(c Tuple3Cmd[CA, CB, CC]) bool { return !c.HasA && !c.HasB && !c.HasC }
	replace := func(cur, target Tuple3[A, B, C]) Tuple3Cmd[CA, CB, CC] {
		return Tuple3Cmd[CA, CB, CC]{
			HasA: true, A: opsA.Replace(cur.A, target.A),
			HasB: true, B: opsB.Replace(cur.B, target.B),
			HasC: true, C: opsC.Replace(cur.C, target.C),
		}
	}
	return Ops[Tuple3[A, B, C], Tuple3Cmd[CA, CB, CC]]{Apply: apply, Merge: merge, Empty: empty, IsEmpty: isEmpty, Replace: replace}
}

// Tuple4 is a fixed-arity 4-tuple, mirroring graph.Zip4's arity (spec
// §3.5).
type Tuple4[A, B, C, D any] struct {
	A A
	B B
	C C
	D D
}

// Tuple4Cmd carries an optional per-slot inner command.
type Tuple4Cmd[CA, CB, CC, CD any] struct {
	HasA bool
	A    CA
	HasB bool
	B    CB
	HasC bool
	C    CC
	HasD bool
	D    CD
}

// Tuple4Ops builds the command algebra for a 4-tuple from its slots'
// own algebras.
func Tuple4Ops[A, B, C, D any, CA, CB, CC, CD any](opsA Ops[A, CA], opsB Ops[B, CB], opsC Ops[C, CC], opsD Ops[D, CD]) Ops[Tuple4[A, B, C, D], Tuple4Cmd[CA, CB, CC, CD]] {
	apply := func(s Tuple4[A, B, C, D], c Tuple4Cmd[CA, CB, CC, CD]) Tuple4[A, B, C, D] {
		out := s
		if c.HasA {
			out.A = opsA.Apply(s.A, c.A)
		}
		if c.HasB {
			out.B = opsB.Apply(s.B, c.B)
		}
		if c.HasC {
			out.C = opsC.Apply(s.C, c.C)
		}
		if c.HasD {
			out.D = opsD.Apply(s.D, c.D)
		}
		return out
	}
	merge := func(x, y Tuple4Cmd[CA, CB, CC, CD]) Tuple4Cmd[CA, CB, CC, CD] {
		out := x
		if y.HasA {
			if out.HasA {
				out.A = opsA.Merge(out.A, y.A)
			} else {
				out.HasA, out.A = true, y.A
			}
		}
		if y.HasB {
			if out.HasB {
				out.B = opsB.Merge(out.B, y.B)
			} else {
				out.HasB, out.B = true, y.B
			}
		}
		if y.HasC {
			if out.HasC {
				out.C = opsC.Merge(out.C, y.C)
			} else {
				out.HasC, out.C = true, y.C
			}
		}
		if y.HasD {
			if out.HasD {
				out.D = opsD.Merge(out.D, y.D)
			} else {
				out.HasD, out.D = true, y.D
			}
		}
		return out
	}
	empty := func() Tuple4Cmd[CA, CB, CC, CD] { return Tuple4Cmd[CA, CB, CC, CD]{} }
	isEmpty := func(c Tuple4Cmd[CA, CB, CC, CD]) bool { return !c.HasA && !c.HasB && !c.HasC && !c.HasD }
	replace := func(cur, target Tuple4[A, B, C, D]) Tuple4Cmd[CA, CB, CC, CD] {
		return Tuple4Cmd[CA, CB, CC, CD]{
			HasA: true, A: opsA.Replace(cur.A, target.A),
			HasB: true, B: opsB.Replace(cur.B, target.B),
			HasC: true, C: opsC.Replace(cur.C, target.C),
			HasD: true, D: opsD.Replace(cur.D, target.D),
		}
	}
	return Ops[Tuple4[A, B, C, D], Tuple4Cmd[CA, CB, CC, CD]]{Apply: apply, Merge: merge, Empty: empty, IsEmpty: isEmpty, Replace: replace}
}

// TupleN is a variable-arity tuple backed by a slice, used by
// ops.ProjectTuple when arity is not known until construction time.
type TupleN[T any] []T

// TupleNCmd carries an optional inner command per slot.
type TupleNCmd[C any] struct {
	Slots []OptionalCmd[C]
}

// OptionalCmd marks whether a per-slot command is present.
type OptionalCmd[C any] struct {
	Present bool
	Cmd     C
}

// TupleNOps builds the command algebra for a fixed-length N-ary tuple
// whose slots all share the same element algebra.
func TupleNOps[T any, C any](elem Ops[T, C]) Ops[TupleN[T], TupleNCmd[C]] {
	apply := func(s TupleN[T], c TupleNCmd[C]) TupleN[T] {
		out := append(TupleN[T](nil), s...)
		for i, slot := range c.Slots {
			if slot.Present && i < len(out) {
				out[i] = elem.Apply(out[i], slot.Cmd)
			}
		}
		return out
	}
	merge := func(a, b TupleNCmd[C]) TupleNCmd[C] {
		n := len(a.Slots)
		if len(b.Slots) > n {
			n = len(b.Slots)
		}
		out := make([]OptionalCmd[C], n)
		copy(out, a.Slots)
		for i, slot := range b.Slots {
			if !slot.Present {
				continue
			}
			if out[i].Present {
				out[i] = OptionalCmd[C]{Present: true, Cmd: elem.Merge(out[i].Cmd, slot.Cmd)}
			} else {
				out[i] = slot
			}
		}
		return TupleNCmd[C]{Slots: out}
	}
	empty := func() TupleNCmd[C] { return TupleNCmd[C]{} }
	isEmpty := func(c TupleNCmd[C]) bool {
		for _, slot := range c.Slots {
			if slot.Present {
				return false
			}
		}
		return true
	}
	replace := func(cur, target TupleN[T]) TupleNCmd[C] {
		slots := make([]OptionalCmd[C], len(target))
		for i, v := range target {
			var c T
			if i < len(cur) {
				c = cur[i]
			}
			slots[i] = OptionalCmd[C]{Present: true, Cmd: elem.Replace(c, v)}
		}
		return TupleNCmd[C]{Slots: slots}
	}
	return Ops[TupleN[T], TupleNCmd[C]]{Apply: apply, Merge: merge, Empty: empty, IsEmpty: isEmpty, Replace: replace}
}
