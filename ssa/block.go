package ssa

// domNode is the dominator-tree annotation a Block carries.
// pre/post support the O(1) ancestor query:
// a dominates b iff a.pre <= b.pre && b.post <= a.post.
type domNode struct {
	idom     *Block
	children []*Block
	pre      int
	post     int
}

// Idom returns b's immediate dominator, or nil for the entry block.
func (b *Block) Idom() *Block { return b.dom.idom }

// DomChildren returns the blocks b immediately dominates.
func (b *Block) DomChildren() []*Block { return b.dom.children }

// Dominates reports whether b dominates other, using the dominator
// tree's pre/post numbering.
func (b *Block) Dominates(other *Block) bool {
	return b.dom.pre <= other.dom.pre && other.dom.post <= b.dom.post
}

// Block is a basic block: straight-line code with one entry and at
// most one terminator.
type Block struct {
	index    int // reassigned by post-processing
	Label    string
	Parent   *Proc
	AstNode  any // the originating AST node, or nil
	ScopeRef any // the lexical scope this block was opened in
	ScopeAt  int // scope depth at which the block was opened

	dom domNode

	instrs []Instruction
	// locals is the subset of instrs that are *Local, kept densely
	// indexed for decl_block bookkeeping.
	locals []Instruction

	Preds []*Block
	Succs []*Block

	// fused marks a block that fuseBlocks folded into its predecessor;
	// compactBlocks drops it from Proc.Blocks on the next pass.
	fused bool
}

func (b *Block) Index() int { return b.index }

// Instrs returns the block's instruction list, in emission order.
func (b *Block) Instrs() []Instruction { return b.instrs }

// Locals returns the Local instructions this block introduced (only
// ever non-empty for Proc.DeclBlock).
func (b *Block) Locals() []Instruction { return b.locals }

// Terminator returns the block's terminating instruction, or nil if
// the block is not yet (or never) closed.
func (b *Block) Terminator() Instruction {
	if len(b.instrs) == 0 {
		return nil
	}
	last := b.instrs[len(b.instrs)-1]
	if IsTerminator(last) {
		return last
	}
	return nil
}

// append adds instr as the block's newest instruction. Callers
// (package build's emission cursor) are responsible for the "silently
// dropped after a terminator" discipline; append itself only tracks
// the Local bookkeeping.
func (b *Block) append(instr Instruction) {
	instr.setBlock(b)
	b.instrs = append(b.instrs, instr)
	if l, ok := instr.(*Local); ok {
		b.locals = append(b.locals, l)
	}
}

// Append adds instr as the block's newest instruction (exported entry
// point for package build's emission cursor; see append for the
// Local bookkeeping it performs).
func (b *Block) Append(instr Instruction) { b.append(instr) }

// predIndex returns the position of pred within b.Preds, used to
// positionally align a Phi edge with the predecessor it corresponds to.
func (b *Block) predIndex(pred *Block) int {
	for i, p := range b.Preds {
		if p == pred {
			return i
		}
	}
	return -1
}

func (b *Block) String() string {
	if b.Label != "" {
		return b.Label
	}
	return "block"
}
