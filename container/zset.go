package container

// ZSet is a multiset with signed integer weights (spec §3.1). Entries
// with weight 0 are never stored (spec §3.2, weight normalization).
type ZSet[T comparable] map[T]int64

// ZSetCmd is "another Z-set to union" (spec §3.1): a weighted delta
// that composes with the prior state (and with other deltas) by
// summing weights and dropping zeroes.
type ZSetCmd[T comparable] map[T]int64

// ZSetOps builds the command algebra for a Z-set. This is the out-of-
// scope Z-set algebra's minimal presence as one instance of the
// command algebra (spec §1, §4.5) — union/apply/merge/replace only, no
// join or group-by-on-weights.
func ZSetOps[T comparable]() Ops[ZSet[T], ZSetCmd[T]] {
	apply := func(s ZSet[T], c ZSetCmd[T]) ZSet[T] {
		out := make(ZSet[T], len(s)+len(c))
		for k, w := range s {
			out[k] = w
		}
		for k, dw := range c {
			nw := out[k] + dw
			if nw == 0 {
				delete(out, k)
			} else {
				out[k] = nw
			}
		}
		return out
	}
	merge := func(a, b ZSetCmd[T]) ZSetCmd[T] {
		out := make(ZSetCmd[T], len(a)+len(b))
		for k, w := range a {
			out[k] += w
		}
		for k, w := range b {
			out[k] += w
		}
		for k, w := range out {
			if w == 0 {
				delete(out, k)
			}
		}
		return out
	}
	empty := func() ZSetCmd[T] { return ZSetCmd[T]{} }
	isEmpty := func(c ZSetCmd[T]) bool { return len(c) == 0 }
	replace := func(current, target ZSet[T]) ZSetCmd[T] { return zsetDiff(current, target) }
	return Ops[ZSet[T], ZSetCmd[T]]{Apply: apply, Merge: merge, Empty: empty, IsEmpty: isEmpty, Replace: replace}
}

// zsetDiff computes the delta that, unioned onto current, yields
// target: spec §4.1, "difference from current, union with target".
func zsetDiff[T comparable](current, target ZSet[T]) ZSetCmd[T] {
	out := make(ZSetCmd[T])
	for k, w := range target {
		if cw, ok := current[k]; ok {
			if d := w - cw; d != 0 {
				out[k] = d
			}
		} else if w != 0 {
			out[k] = w
		}
	}
	for k, cw := range current {
		if _, ok := target[k]; !ok && cw != 0 {
			out[k] = -cw
		}
	}
	return out
}
