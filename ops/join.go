package ops

import (
	"github.com/nmxmxh/ivm/container"
	"github.com/nmxmxh/ivm/graph"
	"github.com/nmxmxh/ivm/reactive"
)

type joinPairID[ID1, ID2 comparable] = container.Tuple2[ID1, ID2]
type joinPairVal[V1, V2 any] = container.Tuple2[V1, V2]
type joinPairCmd[IC1, IC2 any] = container.Tuple2Cmd[IC1, IC2]

func fullProduct[ID1, ID2 comparable, V1, V2 any](left map[ID1]V1, right map[ID2]V2) map[joinPairID[ID1, ID2]]joinPairVal[V1, V2] {
	out := make(map[joinPairID[ID1, ID2]]joinPairVal[V1, V2], len(left)*len(right))
	for id1, v1 := range left {
		for id2, v2 := range right {
			out[joinPairID[ID1, ID2]{A: id1, B: id2}] = joinPairVal[V1, V2]{A: v1, B: v2}
		}
	}
	return out
}

// productDeltaForKey computes the matched-both-before-and-after inner
// delta for one outer key via the three-case decomposition of spec
// §4.3.7. Case 3 is implemented for the Add×Add sub-case (a pair
// neither side had before this batch, both sides contributing it in
// the same step); other delta×delta combinations are already covered
// exactly once by cases 1 and 2 under sequential MapBatch apply.
func productDeltaForKey[ID1, ID2 comparable, V1, V2, IC1, IC2 any](
	deltaL container.MapBatch[ID1, V1, IC1],
	deltaR container.MapBatch[ID2, V2, IC2],
	prevL map[ID1]V1,
	prevR map[ID2]V2,
) container.MapBatch[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]] {
	var out container.MapBatch[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]]
	pair := func(a ID1, b ID2) joinPairID[ID1, ID2] { return joinPairID[ID1, ID2]{A: a, B: b} }

	leftCleared, rightCleared := false, false
	for _, c := range deltaL {
		if c.Op == container.MapClear {
			leftCleared = true
		}
	}
	for _, c := range deltaR {
		if c.Op == container.MapClear {
			rightCleared = true
		}
	}
	if leftCleared || rightCleared {
		out = append(out, container.MapClr[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]]())
		return out
	}

	for _, c := range deltaL {
		switch c.Op {
		case container.MapAdd:
			for id2, v2 := range prevR {
				out = append(out, container.Add[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]](
					pair(c.Key, id2), joinPairVal[V1, V2]{A: c.Value, B: v2}))
			}
		case container.MapUpdate:
			for id2 := range prevR {
				out = append(out, container.UpdKey[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]](
					pair(c.Key, id2), joinPairCmd[IC1, IC2]{HasA: true, A: c.Inner}))
			}
		case container.MapDelete:
			for id2 := range prevR {
				out = append(out, container.Del[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]](pair(c.Key, id2)))
			}
		}
	}

	for _, c := range deltaR {
		switch c.Op {
		case container.MapAdd:
			for id1, v1 := range prevL {
				out = append(out, container.Add[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]](
					pair(id1, c.Key), joinPairVal[V1, V2]{A: v1, B: c.Value}))
			}
		case container.MapUpdate:
			for id1 := range prevL {
				out = append(out, container.UpdKey[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]](
					pair(id1, c.Key), joinPairCmd[IC1, IC2]{HasB: true, B: c.Inner}))
			}
		case container.MapDelete:
			for id1 := range prevL {
				out = append(out, container.Del[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]](pair(id1, c.Key)))
			}
		}
	}

	for _, cl := range deltaL {
		if cl.Op != container.MapAdd {
			continue
		}
		for _, cr := range deltaR {
			if cr.Op != container.MapAdd {
				continue
			}
			out = append(out, container.Add[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]](
				pair(cl.Key, cr.Key), joinPairVal[V1, V2]{A: cl.Value, B: cr.Value}))
		}
	}
	return out
}

// joinState holds everything joinDelta needs in one place; graph.Zip's
// arity tops out at 4 cells so the six upstream cells this operator
// reads are assembled pairwise first.
type joinState[K comparable, ID1, ID2 comparable, V1, V2, IC1, IC2 any] struct {
	leftBatch  container.MapBatch[K, map[ID1]V1, container.MapBatch[ID1, V1, IC1]]
	rightBatch container.MapBatch[K, map[ID2]V2, container.MapBatch[ID2, V2, IC2]]
	leftPrev   map[K]map[ID1]V1
	rightPrev  map[K]map[ID2]V2
	leftCur    map[K]map[ID1]V1
	rightCur   map[K]map[ID2]V2
}

func joinDelta[K comparable, ID1, ID2 comparable, V1, V2, IC1, IC2 any](
	s joinState[K, ID1, ID2, V1, V2, IC1, IC2],
) container.MapBatch[K, map[joinPairID[ID1, ID2]]joinPairVal[V1, V2], container.MapBatch[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]]] {
	var out container.MapBatch[K, map[joinPairID[ID1, ID2]]joinPairVal[V1, V2], container.MapBatch[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]]]

	affected := make(map[K]struct{})
	leftOuter := make(map[K]container.MapCmd[K, map[ID1]V1, container.MapBatch[ID1, V1, IC1]])
	rightOuter := make(map[K]container.MapCmd[K, map[ID2]V2, container.MapBatch[ID2, V2, IC2]])
	leftClear, rightClear := false, false

	for _, c := range s.leftBatch {
		if c.Op == container.MapClear {
			leftClear = true
			continue
		}
		affected[c.Key] = struct{}{}
		leftOuter[c.Key] = c
	}
	for _, c := range s.rightBatch {
		if c.Op == container.MapClear {
			rightClear = true
			continue
		}
		affected[c.Key] = struct{}{}
		rightOuter[c.Key] = c
	}

	effPrevL, effPrevR := s.leftPrev, s.rightPrev
	if leftClear || rightClear {
		for k := range s.leftPrev {
			if _, ok := s.rightPrev[k]; ok {
				out = append(out, container.Del[K, map[joinPairID[ID1, ID2]]joinPairVal[V1, V2], container.MapBatch[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]]](k))
			}
		}
		effPrevL = map[K]map[ID1]V1{}
		effPrevR = map[K]map[ID2]V2{}
		for k := range s.leftCur {
			affected[k] = struct{}{}
		}
		for k := range s.rightCur {
			affected[k] = struct{}{}
		}
	}

	for k := range affected {
		_, beforeL := effPrevL[k]
		_, beforeR := effPrevR[k]
		matchedBefore := beforeL && beforeR
		curL, afterL := s.leftCur[k]
		curR, afterR := s.rightCur[k]
		matchedAfter := afterL && afterR

		switch {
		case !matchedBefore && !matchedAfter:
		case !matchedBefore && matchedAfter:
			out = append(out, container.Add[K, map[joinPairID[ID1, ID2]]joinPairVal[V1, V2], container.MapBatch[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]]](
				k, fullProduct(curL, curR)))
		case matchedBefore && !matchedAfter:
			out = append(out, container.Del[K, map[joinPairID[ID1, ID2]]joinPairVal[V1, V2], container.MapBatch[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]]](k))
		default:
			var dl container.MapBatch[ID1, V1, IC1]
			if cmd, ok := leftOuter[k]; ok && cmd.Op == container.MapUpdate {
				dl = cmd.Inner
			}
			var dr container.MapBatch[ID2, V2, IC2]
			if cmd, ok := rightOuter[k]; ok && cmd.Op == container.MapUpdate {
				dr = cmd.Inner
			}
			inner := productDeltaForKey(dl, dr, effPrevL[k], effPrevR[k])
			if len(inner) > 0 {
				out = append(out, container.UpdKey[K, map[joinPairID[ID1, ID2]]joinPairVal[V1, V2], container.MapBatch[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]]](k, inner))
			}
		}
	}
	return out
}

// JoinMap inner-joins two K-indexed mappings-of-mappings on their outer
// key, producing the Cartesian product of each matched key's two inner
// mappings (spec §4.3.7). Only keys present on both sides appear in the
// output.
func JoinMap[K comparable, ID1, ID2 comparable, V1, V2, IC1, IC2 any](
	g *graph.Graph,
	opsV1 container.Ops[V1, IC1],
	opsV2 container.Ops[V2, IC2],
	left reactive.Reactive[map[K]map[ID1]V1, container.MapBatch[K, map[ID1]V1, container.MapBatch[ID1, V1, IC1]]],
	right reactive.Reactive[map[K]map[ID2]V2, container.MapBatch[K, map[ID2]V2, container.MapBatch[ID2, V2, IC2]]],
) reactive.Reactive[map[K]map[joinPairID[ID1, ID2]]joinPairVal[V1, V2], container.MapBatch[K, map[joinPairID[ID1, ID2]]joinPairVal[V1, V2], container.MapBatch[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]]]] {
	type batchPair struct {
		l container.MapBatch[K, map[ID1]V1, container.MapBatch[ID1, V1, IC1]]
		r container.MapBatch[K, map[ID2]V2, container.MapBatch[ID2, V2, IC2]]
	}
	type prevPair struct {
		l map[K]map[ID1]V1
		r map[K]map[ID2]V2
	}
	type curPair struct {
		l map[K]map[ID1]V1
		r map[K]map[ID2]V2
	}

	batches := graph.Zip(g, left.Changes, right.Changes, func(l container.MapBatch[K, map[ID1]V1, container.MapBatch[ID1, V1, IC1]], r container.MapBatch[K, map[ID2]V2, container.MapBatch[ID2, V2, IC2]]) batchPair {
		return batchPair{l: l, r: r}
	})
	prevs := graph.Zip(g, left.PreviousMaterialized, right.PreviousMaterialized, func(l map[K]map[ID1]V1, r map[K]map[ID2]V2) prevPair {
		return prevPair{l: l, r: r}
	})
	curs := graph.Zip(g, left.Materialized, right.Materialized, func(l map[K]map[ID1]V1, r map[K]map[ID2]V2) curPair {
		return curPair{l: l, r: r}
	})

	changes := graph.Zip3(g, batches, prevs, curs, func(b batchPair, p prevPair, c curPair) container.MapBatch[K, map[joinPairID[ID1, ID2]]joinPairVal[V1, V2], container.MapBatch[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]]] {
		return joinDelta(joinState[K, ID1, ID2, V1, V2, IC1, IC2]{
			leftBatch: b.l, rightBatch: b.r,
			leftPrev: p.l, rightPrev: p.r,
			leftCur: c.l, rightCur: c.r,
		})
	})

	innerOps := container.Tuple2Ops[V1, V2, IC1, IC2](opsV1, opsV2)
	pairMapOps := container.MappingOps[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]](innerOps)
	outOps := container.MappingOps[K, map[joinPairID[ID1, ID2]]joinPairVal[V1, V2], container.MapBatch[joinPairID[ID1, ID2], joinPairVal[V1, V2], joinPairCmd[IC1, IC2]]](pairMapOps)

	initOut := make(map[K]map[joinPairID[ID1, ID2]]joinPairVal[V1, V2])
	leftInit := left.Materialized.Value()
	rightInit := right.Materialized.Value()
	for k, lm := range leftInit {
		if rm, ok := rightInit[k]; ok {
			initOut[k] = fullProduct(lm, rm)
		}
	}

	return reactive.New(g, outOps, changes, initOut)
}
