package container

// SeqOp enumerates the sequence command variants (spec §3.1).
type SeqOp int

const (
	SeqInsert SeqOp = iota
	SeqUpdate
	SeqRemove
	SeqMove
	SeqClear
)

// SeqCmd is one primitive sequence command. Index/To/Value/Inner are
// interpreted per Op: Insert uses Index+Value, Update uses Index+Inner,
// Remove uses Index, Move uses Index (from) and To, Clear uses none.
type SeqCmd[T any, IC any] struct {
	Op    SeqOp
	Index int
	To    int
	Value T
	Inner IC
}

// SeqBatch is a finite ordered sequence of SeqCmd; later commands'
// indices refer to the state after all earlier commands in the batch
// (spec §4.1, "sequence-level command order matters").
type SeqBatch[T any, IC any] []SeqCmd[T, IC]

func Ins[T any, IC any](i int, v T) SeqCmd[T, IC] { return SeqCmd[T, IC]{Op: SeqInsert, Index: i, Value: v} }
func Upd[T any, IC any](i int, c IC) SeqCmd[T, IC] {
	return SeqCmd[T, IC]{Op: SeqUpdate, Index: i, Inner: c}
}
func Rem[T any, IC any](i int) SeqCmd[T, IC] { return SeqCmd[T, IC]{Op: SeqRemove, Index: i} }
func Mv[T any, IC any](from, to int) SeqCmd[T, IC] {
	return SeqCmd[T, IC]{Op: SeqMove, Index: from, To: to}
}
func SeqClr[T any, IC any]() SeqCmd[T, IC] { return SeqCmd[T, IC]{Op: SeqClear} }

// SequenceOps builds the command algebra for a 0-indexed sequence of T,
// given the algebra for T's own in-place updates.
func SequenceOps[T any, IC any](elem Ops[T, IC]) Ops[[]T, SeqBatch[T, IC]] {
	apply := func(state []T, batch SeqBatch[T, IC]) []T {
		s := append([]T(nil), state...)
		for _, cmd := range batch {
			switch cmd.Op {
			case SeqInsert:
				s = insertAt(s, cmd.Index, cmd.Value)
			case SeqUpdate:
				s[cmd.Index] = elem.Apply(s[cmd.Index], cmd.Inner)
			case SeqRemove:
				s = removeAt(s, cmd.Index)
			case SeqMove:
				s = moveAt(s, cmd.Index, cmd.To)
			case SeqClear:
				s = nil
			}
		}
		return s
	}
	merge := func(a, b SeqBatch[T, IC]) SeqBatch[T, IC] {
		if len(a) == 0 {
			return b
		}
		if len(b) == 0 {
			return a
		}
		out := make(SeqBatch[T, IC], 0, len(a)+len(b))
		out = append(out, a...)
		out = append(out, b...)
		return out
	}
	empty := func() SeqBatch[T, IC] { return nil }
	isEmpty := func(b SeqBatch[T, IC]) bool { return len(b) == 0 }
	replace := func(_ []T, target []T) SeqBatch[T, IC] {
		out := make(SeqBatch[T, IC], 0, len(target)+1)
		out = append(out, SeqClr[T, IC]())
		for i, v := range target {
			out = append(out, Ins[T, IC](i, v))
		}
		return out
	}
	return Ops[[]T, SeqBatch[T, IC]]{Apply: apply, Merge: merge, Empty: empty, IsEmpty: isEmpty, Replace: replace}
}

func insertAt[T any](s []T, i int, v T) []T {
	s = append(s, v)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeAt[T any](s []T, i int) []T {
	return append(s[:i], s[i+1:]...)
}

func moveAt[T any](s []T, from, to int) []T {
	v := s[from]
	s = removeAt(s, from)
	return insertAt(s, to, v)
}
