package container

// ZMap is a mapping from K to a Z-set of V (spec §3.1). Rows that
// reduce to an empty Z-set are absent (spec §3.2).
type ZMap[K comparable, V comparable] map[K]ZSet[V]

// ZMapCmd unions row-by-row (spec §3.1: "another Z-map to union").
type ZMapCmd[K comparable, V comparable] map[K]ZSetCmd[V]

// ZMapOps builds the command algebra for a Z-map.
func ZMapOps[K comparable, V comparable]() Ops[ZMap[K, V], ZMapCmd[K, V]] {
	row := ZSetOps[V]()
	apply := func(s ZMap[K, V], c ZMapCmd[K, V]) ZMap[K, V] {
		out := make(ZMap[K, V], len(s)+len(c))
		for k, v := range s {
			out[k] = v
		}
		for k, delta := range c {
			next := row.Apply(out[k], delta)
			if len(next) == 0 {
				delete(out, k)
			} else {
				out[k] = next
			}
		}
		return out
	}
	merge := func(a, b ZMapCmd[K, V]) ZMapCmd[K, V] {
		out := make(ZMapCmd[K, V], len(a)+len(b))
		for k, d := range a {
			out[k] = row.Merge(out[k], d)
		}
		for k, d := range b {
			out[k] = row.Merge(out[k], d)
		}
		for k, d := range out {
			if len(d) == 0 {
				delete(out, k)
			}
		}
		return out
	}
	empty := func() ZMapCmd[K, V] { return ZMapCmd[K, V]{} }
	isEmpty := func(c ZMapCmd[K, V]) bool { return len(c) == 0 }
	replace := func(current, target ZMap[K, V]) ZMapCmd[K, V] {
		out := make(ZMapCmd[K, V])
		for k, tv := range target {
			if d := zsetDiff(current[k], tv); len(d) > 0 {
				out[k] = d
			}
		}
		for k, cv := range current {
			if _, ok := target[k]; !ok {
				if d := zsetDiff(cv, nil); len(d) > 0 {
					out[k] = d
				}
			}
		}
		return out
	}
	return Ops[ZMap[K, V], ZMapCmd[K, V]]{Apply: apply, Merge: merge, Empty: empty, IsEmpty: isEmpty, Replace: replace}
}
