package ssa

// EndProcedureBody is the end-of-body pipeline, run
// once package build has finished emitting a procedure: close
// DeclBlock with an unconditional branch into EntryBlock (invariant 6,
// "the decl block always falls through to the entry block"), then run
// reachability pruning, block fusion, referrer propagation, dominator
// tree construction, and register numbering, in that order.
func EndProcedureBody(f *Proc) {
	closeDeclBlock(f)
	pruneUnreachable(f)
	fuseBlocks(f)
	propagateReferrers(f)
	buildDomTree(f)
	numberRegisters(f)
}

// closeDeclBlock appends the decl_block -> entry_block edge if the
// decl block has not already been terminated (a procedure with no
// local declarations still needs this edge to reach its first real
// block).
func closeDeclBlock(f *Proc) {
	if f.DeclBlock == nil || f.EntryBlock == nil {
		return
	}
	if f.DeclBlock.Terminator() != nil {
		return
	}
	br := &Br{Targets: []*Block{f.EntryBlock}}
	br.idx = -1
	f.DeclBlock.append(br)
	AddEdge(f.DeclBlock, f.EntryBlock)
}
