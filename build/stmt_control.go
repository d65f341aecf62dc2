package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

// buildIf lowers an if/else chain via buildCond's condition-walker:
// optional if.init work runs in its own block, the two
// arms are if.then and if.else, and both join at if.done. With no else
// clause the false edge targets if.done directly.
func (b *Builder) buildIf(n *ast.IfStmt) {
	b.OpenScope()
	if n.Init != nil {
		initB := b.Proc.NewBlock("if.init")
		b.jump(initB)
		b.startBlock(initB)
		b.buildStmt(n.Init)
	}

	thenB := b.Proc.NewBlock("if.then")
	doneB := b.Proc.NewBlock("if.done")
	elseB := doneB
	if n.Else != nil {
		elseB = b.Proc.NewBlock("if.else")
	}
	b.buildCond(n.Cond, thenB, elseB)

	b.startBlock(thenB)
	b.buildStmt(n.Body)
	b.jump(doneB)

	if n.Else != nil {
		b.startBlock(elseB)
		b.buildStmt(n.Else)
		b.jump(doneB)
	}

	b.startBlock(doneB)
	b.CloseScope(ExitDefault)
}

// buildFor lowers a C-style for loop: blocks
// for.init (if present), for.loop (if a condition is present —
// otherwise the body is the loop head), for.body, for.post (if
// present), for.done. Target list at body entry: break=done,
// continue=post-or-loop, fallthrough=nil.
func (b *Builder) buildFor(n *ast.ForStmt) {
	b.OpenScope()
	if n.Init != nil {
		initB := b.Proc.NewBlock("for.init")
		b.jump(initB)
		b.startBlock(initB)
		b.buildStmt(n.Init)
	}

	body := b.Proc.NewBlock("for.body")
	done := b.Proc.NewBlock("for.done")

	head := body
	if n.Cond != nil {
		head = b.Proc.NewBlock("for.loop")
	}
	var post *ssa.Block
	backEdge := head
	if n.Post != nil {
		post = b.Proc.NewBlock("for.post")
		backEdge = post
	}

	b.jump(head)
	if n.Cond != nil {
		b.startBlock(head)
		b.buildCond(n.Cond, body, done)
	}

	b.Proc.PushTargets(done, backEdge, nil)
	b.startBlock(body)
	b.buildStmt(n.Body)
	b.jump(backEdge)
	b.Proc.PopTargets()

	if post != nil {
		b.startBlock(post)
		b.buildStmt(n.Post)
		b.jump(head)
	}

	b.startBlock(done)
	b.CloseScope(ExitDefault)
}

// buildValueMatch lowers a value match: the tag is
// evaluated once, the cases form a linear chain of test blocks each
// comparing with CmpEq, the default case (if any) is dispatched last,
// and fallthrough targets the next clause's body in source order.
func (b *Builder) buildValueMatch(n *ast.MatchStmt) {
	b.OpenScope()
	tag := b.BuildExpr(n.Tag)
	tagType := b.exprType(n.Tag)

	exit := b.Proc.NewBlock("match.done")
	bodies := make([]*ssa.Block, len(n.Cases))
	for i := range n.Cases {
		bodies[i] = b.Proc.NewBlock("match.case")
	}

	defaultIdx := -1
	tests := make([]int, 0, len(n.Cases))
	for i, c := range n.Cases {
		if len(c.Values) == 0 {
			defaultIdx = i
		} else {
			tests = append(tests, i)
		}
	}
	// Where the chain falls when no case value matched: the default
	// body, or straight out.
	noMatch := exit
	if defaultIdx >= 0 {
		noMatch = bodies[defaultIdx]
	}

	for k, i := range tests {
		c := n.Cases[i]
		nextTest := noMatch
		if k+1 < len(tests) {
			nextTest = b.Proc.NewBlock("match.test")
		}
		var matched ssa.Value
		for _, v := range c.Values {
			val := b.BuildExpr(v)
			val = b.emitConv(v, val, b.exprType(v), tagType)
			eq := &ssa.BinaryOp{Op: ssa.OpCmpEq, X: tag, Y: val, Typ: boolType}
			b.emit(eq)
			if matched == nil {
				matched = eq
			} else {
				or := &ssa.BinaryOp{Op: ssa.OpOr, X: matched, Y: eq, Typ: boolType}
				b.emit(or)
				matched = or
			}
		}
		b.condJump(matched, bodies[i], nextTest)
		b.startBlock(nextTest)
	}
	if len(tests) == 0 {
		b.jump(noMatch)
	}

	for i, c := range n.Cases {
		fallTo := exit
		if i+1 < len(n.Cases) {
			fallTo = bodies[i+1]
		}
		b.Proc.PushTargets(exit, nil, fallTo)
		b.startBlock(bodies[i])
		b.buildStmtList(c.Body)
		b.jump(exit)
		b.Proc.PopTargets()
	}

	b.startBlock(exit)
	b.CloseScope(ExitDefault)
}

// buildTypeMatch lowers a type match over a tagged union:
// read the union's tag word once, chain per-case tag comparisons the
// same way a value match chains value comparisons, and in each case
// body bind the case name to the union's payload pointer reinterpreted
// at the case's variant type.
func (b *Builder) buildTypeMatch(n *ast.MatchStmt) {
	b.OpenScope()
	tagAddr := b.BuildAddr(n.Tag)
	union, ok := types.Underlying(tagAddr.Elem).(*types.Union)
	if !ok {
		b.ice(n, "type match subject is not a union")
	}

	tagField := &ssa.GetElementPtr{Base: tagAddr.Addr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(1)}, Typ: &types.Pointer{Elem: i64Type}}
	b.emit(tagField)
	tagVal := &ssa.Load{Addr: tagField, Typ: i64Type}
	b.emit(tagVal)

	exit := b.Proc.NewBlock("tmatch.done")
	bodies := make([]*ssa.Block, len(n.Cases))
	for i := range n.Cases {
		bodies[i] = b.Proc.NewBlock("tmatch.case")
	}

	defaultIdx := -1
	tests := make([]int, 0, len(n.Cases))
	for i, c := range n.Cases {
		if len(c.Values) == 0 {
			defaultIdx = i
		} else {
			tests = append(tests, i)
		}
	}
	noMatch := exit
	if defaultIdx >= 0 {
		noMatch = bodies[defaultIdx]
	}

	for k, i := range tests {
		c := n.Cases[i]
		nextTest := noMatch
		if k+1 < len(tests) {
			nextTest = b.Proc.NewBlock("tmatch.test")
		}
		var matched ssa.Value
		for _, v := range c.Values {
			te, ok := v.(*ast.TypeExpr)
			if !ok {
				b.ice(v, "type match case label must name a type")
			}
			variantType := b.resolveTypeExpr(te)
			tagIdx := union.TagIndex(variantType)
			if tagIdx < 0 {
				b.ice(v, "type %s is not a variant of %s", variantType.String(), union.Name)
			}
			eq := &ssa.BinaryOp{Op: ssa.OpCmpEq, X: tagVal, Y: b.intConst(int64(tagIdx)), Typ: boolType}
			b.emit(eq)
			if matched == nil {
				matched = eq
			} else {
				or := &ssa.BinaryOp{Op: ssa.OpOr, X: matched, Y: eq, Typ: boolType}
				b.emit(or)
				matched = or
			}
		}
		b.condJump(matched, bodies[i], nextTest)
		b.startBlock(nextTest)
	}
	if len(tests) == 0 {
		b.jump(noMatch)
	}

	for i, c := range n.Cases {
		b.Proc.PushTargets(exit, nil, nil)
		b.startBlock(bodies[i])
		if c.BindName != "" && len(c.Values) > 0 {
			if te, ok := c.Values[0].(*ast.TypeExpr); ok {
				variantType := b.resolveTypeExpr(te)
				payload := &ssa.GetElementPtr{Base: tagAddr.Addr, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: variantType}}
				b.emit(payload)
				local := b.NewLocal(c.BindName, &types.Pointer{Elem: variantType})
				st := &ssa.Store{Addr: local, Val: payload}
				b.emit(st)
			}
		}
		b.buildStmtList(c.Body)
		b.jump(exit)
		b.Proc.PopTargets()
	}

	b.startBlock(exit)
	b.CloseScope(ExitDefault)
}
