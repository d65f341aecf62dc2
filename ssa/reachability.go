package ssa

// pruneUnreachable removes blocks control can never reach: DFS from
// blocks[0] marking reachable blocks; for each unreached
// block, remove it from each of its successors' predecessor lists,
// dropping the positionally corresponding edge from every Phi in that
// successor; then compact the block list. Idempotent: running it
// again on an already-pruned procedure is a no-op, because every
// surviving block is still reachable from blocks[0] and
// every surviving predecessor list already excludes dead blocks.
func pruneUnreachable(f *Proc) {
	if len(f.Blocks) == 0 {
		return
	}
	reachable := make(map[*Block]bool, len(f.Blocks))
	var stack []*Block
	stack = append(stack, f.Blocks[0])
	reachable[f.Blocks[0]] = true
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range b.Succs {
			if !reachable[s] {
				reachable[s] = true
				stack = append(stack, s)
			}
		}
	}

	for _, b := range f.Blocks {
		if reachable[b] {
			continue
		}
		for _, succ := range b.Succs {
			if reachable[succ] {
				removePred(succ, b)
			}
		}
	}

	kept := f.Blocks[:0]
	for _, b := range f.Blocks {
		if reachable[b] {
			kept = append(kept, b)
		}
	}
	f.Blocks = kept
}

// removePred removes dead from succ.Preds, and drops the positionally
// corresponding edge from every Phi at the front of succ's instruction
// list.
func removePred(succ, dead *Block) {
	idx := succ.predIndex(dead)
	if idx < 0 {
		return
	}
	succ.Preds = append(succ.Preds[:idx], succ.Preds[idx+1:]...)
	for _, instr := range succ.instrs {
		phi, ok := instr.(*Phi)
		if !ok {
			break // Phis occupy only a prefix of the instruction list (invariant 5)
		}
		if idx < len(phi.Edges) {
			phi.Edges = append(phi.Edges[:idx], phi.Edges[idx+1:]...)
		}
	}
}
