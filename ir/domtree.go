package ir

// DominatorTree records, for each reachable block in a Function, its
// immediate dominator. Block 0 (the entry) has no immediate dominator
// and is its own root.
//
// Building this is explicitly out of scope for the lowering pass
// (spec.md §1): a real toolchain computes it once, upstream, over the
// whole CFG and attaches it to Function.Dominators. BuildDominatorTree
// is provided as the reference algorithm (the standard iterative
// Cooper/Harvey/Kennedy fixpoint over reverse postorder) so this
// package is independently testable without a full front end.
type DominatorTree struct {
	idom []BlockHandle // idom[b] == b for the entry block
	has  []bool
}

// Dominates reports whether a dominates b (reflexively: a block always
// dominates itself).
func (d *DominatorTree) Dominates(a, b BlockHandle) bool {
	for {
		if a == b {
			return true
		}
		if !d.has[b] || d.idom[b] == b {
			return b == a
		}
		b = d.idom[b]
	}
}

// ImmediateDominator returns b's immediate dominator, or b itself if b
// is the entry block or unreachable.
func (d *DominatorTree) ImmediateDominator(b BlockHandle) BlockHandle {
	if !d.has[b] {
		return b
	}
	return d.idom[b]
}

// BuildDominatorTree computes the dominator tree of f's CFG.
func BuildDominatorTree(f *Function) *DominatorTree {
	n := len(f.Blocks)
	preds := blockPredecessors(f)
	order, index := reversePostorder(f)

	idom := make([]BlockHandle, n)
	has := make([]bool, n)
	entry := f.Entry()
	idom[entry] = entry
	has[entry] = true

	changed := true
	for changed {
		changed = false
		for _, b := range order {
			if b == entry {
				continue
			}
			var newIdom BlockHandle
			found := false
			for _, p := range preds[b] {
				if !has[p] {
					continue
				}
				if !found {
					newIdom = p
					found = true
					continue
				}
				newIdom = intersect(idom, index, p, newIdom)
			}
			if !found {
				continue
			}
			if !has[b] || idom[b] != newIdom {
				idom[b] = newIdom
				has[b] = true
				changed = true
			}
		}
	}

	return &DominatorTree{idom: idom, has: has}
}

func intersect(idom []BlockHandle, rpoIndex map[BlockHandle]int, a, b BlockHandle) BlockHandle {
	for a != b {
		for rpoIndex[a] > rpoIndex[b] {
			a = idom[a]
		}
		for rpoIndex[b] > rpoIndex[a] {
			b = idom[b]
		}
	}
	return a
}

// blockSuccessors returns the 0-2 blocks term can transfer control to.
func blockSuccessors(term Terminator) []BlockHandle {
	switch t := term.(type) {
	case Br:
		return []BlockHandle{t.Target}
	case CondBr:
		return []BlockHandle{t.True, t.False}
	case Switch:
		out := make([]BlockHandle, 0, len(t.Cases)+1)
		out = append(out, t.Default)
		for _, c := range t.Cases {
			out = append(out, c.Target)
		}
		return out
	case IndirectBr:
		return t.Targets
	default:
		return nil
	}
}

func blockPredecessors(f *Function) [][]BlockHandle {
	preds := make([][]BlockHandle, len(f.Blocks))
	for i := range f.Blocks {
		for _, s := range blockSuccessors(f.Blocks[i].Terminator) {
			preds[s] = append(preds[s], BlockHandle(i))
		}
	}
	return preds
}

func reversePostorder(f *Function) ([]BlockHandle, map[BlockHandle]int) {
	visited := make([]bool, len(f.Blocks))
	var post []BlockHandle

	var visit func(b BlockHandle)
	visit = func(b BlockHandle) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range blockSuccessors(f.Blocks[b].Terminator) {
			visit(s)
		}
		post = append(post, b)
	}
	visit(f.Entry())

	order := make([]BlockHandle, len(post))
	for i, b := range post {
		order[len(post)-1-i] = b
	}
	index := make(map[BlockHandle]int, len(order))
	for i, b := range order {
		index[b] = i
	}
	return order, index
}
