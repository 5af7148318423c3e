package ir

// Loop is one natural loop: a Header block dominating every block in
// the loop body, discovered from a back edge Latch->Header.
type Loop struct {
	Header BlockHandle
	Latch  BlockHandle
	Body   map[BlockHandle]bool
}

// Contains reports whether b is part of the loop body (including the
// header and latch).
func (l *Loop) Contains(b BlockHandle) bool {
	return l.Body[b]
}

// UniqueExit returns the loop's single block lying outside Body that a
// loop-body block branches to, or ok=false if the loop has zero or
// more than one such block (spec.md §4.7: "fatal if multi-exit").
func (l *Loop) UniqueExit(f *Function) (BlockHandle, bool) {
	var exit BlockHandle
	found := false
	for b := range l.Body {
		for _, s := range blockSuccessors(f.Blocks[b].Terminator) {
			if l.Body[s] {
				continue
			}
			if found && s != exit {
				return 0, false
			}
			exit = s
			found = true
		}
	}
	return exit, found
}

// ContinueTarget returns the block OpLoopMerge should name as the loop
// continue target: the header itself when the header is also the latch,
// else the unique in-loop block that dominates the latch (spec.md
// §4.7). ok is false if no such block exists.
func (l *Loop) ContinueTarget(f *Function, dom *DominatorTree) (BlockHandle, bool) {
	if l.Header == l.Latch {
		return l.Latch, true
	}
	var candidate BlockHandle
	found := false
	for b := range l.Body {
		if b == l.Header {
			continue
		}
		if !dom.Dominates(b, l.Latch) {
			continue
		}
		if found && b != candidate {
			// Prefer the more specific (deeper-dominating) candidate;
			// a block dominating another in-loop dominator of the
			// latch is not itself the continue target.
			if dom.Dominates(candidate, b) {
				candidate = b
			}
			continue
		}
		candidate = b
		found = true
	}
	return candidate, found
}

// LoopInfo attaches the set of natural loops discovered in a Function
// to their header blocks. Like DominatorTree, building this is out of
// scope for the lowering pass proper (spec.md §1); BuildLoopInfo is the
// reference algorithm used by this package's own tests and by any
// driver that has not already computed loop structure upstream.
type LoopInfo struct {
	byHeader map[BlockHandle]*Loop
}

// LoopHeader returns the loop headed at b, or nil if b is not a loop
// header.
func (li *LoopInfo) LoopHeader(b BlockHandle) *Loop {
	return li.byHeader[b]
}

// IsHeader reports whether b heads a natural loop.
func (li *LoopInfo) IsHeader(b BlockHandle) bool {
	_, ok := li.byHeader[b]
	return ok
}

// BuildLoopInfo discovers every natural loop in f's CFG using its
// dominator tree: a back edge n->h exists whenever h dominates n, and
// the loop body is every block that can reach n without passing
// through h.
func BuildLoopInfo(f *Function, dom *DominatorTree) *LoopInfo {
	preds := blockPredecessors(f)
	byHeader := make(map[BlockHandle]*Loop)

	for n := range f.Blocks {
		nb := BlockHandle(n)
		for _, s := range blockSuccessors(f.Blocks[n].Terminator) {
			h := s
			if !dom.Dominates(h, nb) {
				continue // not a back edge
			}
			loop, ok := byHeader[h]
			if !ok {
				loop = &Loop{Header: h, Latch: nb, Body: map[BlockHandle]bool{h: true}}
				byHeader[h] = loop
			}
			growLoopBody(loop, nb, preds)
		}
	}

	return &LoopInfo{byHeader: byHeader}
}

// growLoopBody adds latch and every block that reaches it without
// passing through the header, via a backward walk over predecessors.
func growLoopBody(loop *Loop, latch BlockHandle, preds [][]BlockHandle)  {
	if loop.Body[latch] {
		return
	}
	worklist := []BlockHandle{latch}
	loop.Body[latch] = true
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, p := range preds[b] {
			if loop.Body[p] {
				continue
			}
			loop.Body[p] = true
			worklist = append(worklist, p)
		}
	}
}
