package ssa

// CloneInstr returns a fresh, block-less shallow copy of instr, used by
// defer unrolling's instruction-template replay: every unrolled copy
// must be its own instruction so invariant 1 ("every instruction
// belongs to exactly one block") holds and referrer lists stay owned by
// the clone's block.
func CloneInstr(instr Instruction) Instruction {
	var c Instruction
	switch i := instr.(type) {
	case *Comment:
		c = &Comment{Text: i.Text}
	case *ZeroInit:
		c = &ZeroInit{Addr: i.Addr}
	case *Store:
		c = &Store{Addr: i.Addr, Val: i.Val}
	case *Load:
		c = &Load{Addr: i.Addr, Typ: i.Typ}
	case *GetElementPtr:
		c = &GetElementPtr{Base: i.Base, Indices: append([]Value(nil), i.Indices...), Typ: i.Typ}
	case *ExtractValue:
		c = &ExtractValue{Agg: i.Agg, Index: i.Index, Typ: i.Typ}
	case *InsertValue:
		c = &InsertValue{Agg: i.Agg, Elem: i.Elem, Index: i.Index}
	case *Conv:
		c = &Conv{Sub: i.Sub, X: i.X, Typ: i.Typ}
	case *Select:
		c = &Select{Cond: i.Cond, T: i.T, F: i.F, Typ: i.Typ}
	case *BinaryOp:
		c = &BinaryOp{Op: i.Op, X: i.X, Y: i.Y, Typ: i.Typ}
	case *Call:
		c = &Call{Callee: i.Callee, Args: append([]Value(nil), i.Args...), Typ: i.Typ}
	case *NoOp:
		c = &NoOp{}
	default:
		// Terminators, Phi, Local, and vector ops are never legal defer
		// payloads; a template of one is a builder bug upstream.
		c = &NoOp{}
	}
	c.SetIndexUnset()
	return c
}
