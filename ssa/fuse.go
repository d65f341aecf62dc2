package ssa

// fuseBlocks merges trivial block chains: repeatedly, for
// any block a with exactly one successor b, where b has exactly one
// predecessor and contains no phi, concatenate a and b. Iterates until
// a full pass makes no changes, then compacts the block list — so
// running it a second time on an already-fused procedure is a no-op:
// no remaining block pair satisfies the
// fusion precondition, or fusion would already have merged them.
func fuseBlocks(f *Proc) {
	for {
		changed := false
		for _, a := range f.Blocks {
			if a == nil || a.fused || len(a.Succs) != 1 {
				continue
			}
			b := a.Succs[0]
			if b == a || b.fused || len(b.Preds) != 1 || hasPhi(b) {
				continue
			}
			fuseOne(a, b)
			changed = true
		}
		if !changed {
			break
		}
	}
	compactBlocks(f)
}

func hasPhi(b *Block) bool {
	for _, instr := range b.instrs {
		if _, ok := instr.(*Phi); ok {
			return true
		}
	}
	return false
}

// fuseOne merges b into a: drop a's terminator, append b's
// instructions (reparented to a), replace a.Succs with b.Succs, and
// fix up every successor's Preds to point at a instead of b. b is left
// in place, marked fused, so compactBlocks can drop its slot.
func fuseOne(a, b *Block) {
	if term := a.Terminator(); term != nil {
		a.instrs = a.instrs[:len(a.instrs)-1]
	}
	for _, instr := range b.instrs {
		instr.setBlock(a)
	}
	a.instrs = append(a.instrs, b.instrs...)
	if len(a.locals) > 0 || len(b.locals) > 0 {
		a.locals = append(a.locals, b.locals...)
	}

	a.Succs = b.Succs
	for _, c := range a.Succs {
		for i, p := range c.Preds {
			if p == b {
				c.Preds[i] = a
			}
		}
	}

	b.fused = true
}

// compactBlocks removes fused-out block slots and renumbers the
// remaining blocks' indices.
func compactBlocks(f *Proc) {
	kept := f.Blocks[:0]
	for _, b := range f.Blocks {
		if !b.fused {
			kept = append(kept, b)
		}
	}
	f.Blocks = kept
	for i, b := range f.Blocks {
		b.index = i
	}
}
