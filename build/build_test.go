package build

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/checker"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

// ---- test doubles for the external checker ----

type fakeEntity struct {
	name string
	typ  types.Type
}

func (e *fakeEntity) Name() string     { return e.name }
func (e *fakeEntity) Type() types.Type { return e.typ }
func (e *fakeEntity) Mangled() string  { return e.name }

type fakeTables struct {
	infos  map[ast.Expr]checker.ExprInfo
	uses   map[ast.Node]checker.Entity
	defs   map[ast.Node]checker.Entity
	target *types.TargetInfo
}

func newFakeTables() *fakeTables {
	return &fakeTables{
		infos:  make(map[ast.Expr]checker.ExprInfo),
		uses:   make(map[ast.Node]checker.Entity),
		defs:   make(map[ast.Node]checker.Entity),
		target: &types.TargetInfo{PointerSize: 8, MaxAlign: 8, LittleEndian: true},
	}
}

func (t *fakeTables) Definitions(n ast.Node) (checker.Entity, bool) {
	e, ok := t.defs[n]
	return e, ok
}

func (t *fakeTables) Uses(n ast.Node) (checker.Entity, bool) {
	e, ok := t.uses[n]
	return e, ok
}

func (t *fakeTables) TypeOf(n ast.Expr) checker.ExprInfo { return t.infos[n] }

func (t *fakeTables) ScopeOf(n ast.Node) checker.Scope { return nil }

func (t *fakeTables) TypeInfoIndex(types.Type) (checker.TypeInfoIndex, bool) { return 0, true }

func (t *fakeTables) File(string) (checker.File, bool) { return checker.File{}, false }

func (t *fakeTables) Target() *types.TargetInfo { return t.target }

// value annotates e as an ordinary runtime value of type tt.
func (t *fakeTables) value(e ast.Expr, tt types.Type) ast.Expr {
	t.infos[e] = checker.ExprInfo{Type: tt, Mode: checker.ModeValue}
	return e
}

// intConstExpr annotates e as a folded integer constant.
func (t *fakeTables) intConstExpr(e ast.Expr, tt types.Type, v int64) ast.Expr {
	t.infos[e] = checker.ExprInfo{
		Type:  tt,
		Mode:  checker.ModeConstant,
		Exact: &checker.ExactValue{Kind: checker.ExactInt, Int: v},
	}
	return e
}

// localVar wires up an identifier use plus (optionally) a declaration
// site for a local variable named name.
func (t *fakeTables) localVar(name string, tt types.Type) (*fakeEntity, func() *ast.Ident) {
	ent := &fakeEntity{name: name, typ: tt}
	mk := func() *ast.Ident {
		id := &ast.Ident{Name: name}
		t.uses[id] = ent
		t.infos[id] = checker.ExprInfo{Type: tt, Mode: checker.ModeVariable}
		return id
	}
	return ent, mk
}

var (
	tInt  = types.NewBasic(types.Int64, "int64")
	tBool = types.NewBasic(types.Bool, "bool")
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestBuilder(tables *fakeTables) (*Builder, *ssa.Module) {
	mod := ssa.NewModule(tables.target, false)
	b := NewBuilder(mod, tables, Options{
		Target:      tables.target,
		BoundsCheck: true,
		Logger:      quietLogger(),
	})
	return b, mod
}

func lower(tables *fakeTables, sig *types.Proc, stmts ...ast.Stmt) *ssa.Proc {
	b, mod := newTestBuilder(tables)
	proc := mod.NewProc("test", sig, nil)
	b.BuildProcedure(proc, nil, &ast.BlockStmt{List: stmts})
	return proc
}

func allInstrs(p *ssa.Proc) []ssa.Instruction {
	var out []ssa.Instruction
	for _, blk := range p.Blocks {
		out = append(out, blk.Instrs()...)
	}
	return out
}

func findBlock(p *ssa.Proc, label string) *ssa.Block {
	for _, blk := range p.Blocks {
		if blk.Label == label {
			return blk
		}
	}
	return nil
}

// checkWellFormed asserts the structural invariants every finalized
// procedure shares: one final terminator per block, consistent
// pred/succ edges, and phi edge counts matching predecessor counts.
func checkWellFormed(t *testing.T, p *ssa.Proc) {
	t.Helper()
	for _, blk := range p.Blocks {
		term := blk.Terminator()
		require.NotNil(t, term, "block %s has no terminator", blk)
		for _, instr := range blk.Instrs() {
			if ssa.IsTerminator(instr) {
				assert.Same(t, term, instr, "block %s has a non-final terminator", blk)
			}
		}
		for _, s := range blk.Succs {
			found := false
			for _, pp := range s.Preds {
				if pp == blk {
					found = true
				}
			}
			assert.True(t, found, "succ/pred edge mismatch at %s -> %s", blk, s)
		}
		for _, instr := range blk.Instrs() {
			if phi, ok := instr.(*ssa.Phi); ok {
				assert.Len(t, phi.Edges, len(blk.Preds), "phi edge count in %s", blk)
			}
		}
	}
}

// S1: `x := 3 + 4` — the checker folds the expression, so the lowered
// body is just Local(x), ZeroInit, Store(x, 7), Ret, all fused into one
// block.
func TestScenarioConstantFold(t *testing.T) {
	tb := newFakeTables()
	sum := tb.intConstExpr(&ast.BinaryExpr{Op: ast.OpAdd}, tInt, 7)
	decl := &ast.DeclStmt{Names: []string{"x"}, Inits: []ast.Expr{sum}}

	p := lower(tb, &types.Proc{}, decl)
	checkWellFormed(t, p)

	require.Len(t, p.Blocks, 1, "constant-fold body fuses to a single block")
	var locals, zeros, stores, binops int
	for _, instr := range allInstrs(p) {
		switch i := instr.(type) {
		case *ssa.Local:
			locals++
		case *ssa.ZeroInit:
			zeros++
		case *ssa.Store:
			stores++
			c, ok := i.Val.(*ssa.Const)
			require.True(t, ok, "stored value must be the folded constant")
			assert.Equal(t, int64(7), c.Exact.Int)
		case *ssa.BinaryOp:
			binops++
		}
	}
	assert.Equal(t, 1, locals)
	assert.Equal(t, 1, zeros)
	assert.Equal(t, 1, stores)
	assert.Zero(t, binops, "no runtime arithmetic for a folded expression")
}

// S2: `if a < b { c = 1 } else { c = 2 }` — four blocks after
// finalization (fused entry, if.then, if.else, if.done); the entry ends
// in a conditional Br and the join holds no phi.
func TestScenarioIfElse(t *testing.T) {
	tb := newFakeTables()
	entA, mkA := tb.localVar("a", tInt)
	entB, mkB := tb.localVar("b", tInt)
	entC, mkC := tb.localVar("c", tInt)

	declA := &ast.DeclStmt{Names: []string{"a"}, Type: &ast.TypeExpr{Name: "int64"}}
	declB := &ast.DeclStmt{Names: []string{"b"}, Type: &ast.TypeExpr{Name: "int64"}}
	declC := &ast.DeclStmt{Names: []string{"c"}, Type: &ast.TypeExpr{Name: "int64"}}
	tb.defs[declA] = entA
	tb.defs[declB] = entB
	tb.defs[declC] = entC
	typeExpr := func(te *ast.TypeExpr) {
		tb.infos[te] = checker.ExprInfo{Type: tInt, Mode: checker.ModeType}
	}
	typeExpr(declA.Type)
	typeExpr(declB.Type)
	typeExpr(declC.Type)

	cond := tb.value(&ast.BinaryExpr{Op: ast.OpLt, X: mkA(), Y: mkB()}, tBool)
	one := tb.intConstExpr(&ast.BasicLit{Raw: "1"}, tInt, 1)
	two := tb.intConstExpr(&ast.BasicLit{Raw: "2"}, tInt, 2)
	ifStmt := &ast.IfStmt{
		Cond: cond,
		Body: &ast.BlockStmt{List: []ast.Stmt{
			&ast.AssignStmt{Lhs: []ast.Expr{mkC()}, Op: ast.Assign, Rhs: []ast.Expr{one}},
		}},
		Else: &ast.BlockStmt{List: []ast.Stmt{
			&ast.AssignStmt{Lhs: []ast.Expr{mkC()}, Op: ast.Assign, Rhs: []ast.Expr{two}},
		}},
	}

	p := lower(tb, &types.Proc{}, declA, declB, declC, ifStmt)
	checkWellFormed(t, p)

	require.Len(t, p.Blocks, 4)
	entry := p.Blocks[0]
	br, ok := entry.Terminator().(*ssa.Br)
	require.True(t, ok)
	require.NotNil(t, br.Cond, "entry must end in a conditional branch")
	assert.Len(t, br.Targets, 2)

	done := findBlock(p, "if.done")
	require.NotNil(t, done)
	assert.Len(t, done.Preds, 2)
	for _, instr := range done.Instrs() {
		_, isPhi := instr.(*ssa.Phi)
		assert.False(t, isPhi, "stores into a local need no phi at the join")
	}
}

// S3: `for i := 0; i < n; i = i+1 {}` — for.loop, for.body (fused with
// for.post), for.done survive; the body's back edge re-enters for.loop
// and for.loop dispatches to body and done.
func TestScenarioForLoop(t *testing.T) {
	tb := newFakeTables()
	entI, mkI := tb.localVar("i", tInt)
	entN, mkN := tb.localVar("n", tInt)

	declN := &ast.DeclStmt{Names: []string{"n"}, Type: &ast.TypeExpr{Name: "int64"}}
	tb.defs[declN] = entN
	tb.infos[declN.Type] = checker.ExprInfo{Type: tInt, Mode: checker.ModeType}

	zero := tb.intConstExpr(&ast.BasicLit{Raw: "0"}, tInt, 0)
	declI := &ast.DeclStmt{Names: []string{"i"}, Inits: []ast.Expr{zero}}
	tb.defs[declI] = entI

	cond := tb.value(&ast.BinaryExpr{Op: ast.OpLt, X: mkI(), Y: mkN()}, tBool)
	one := tb.intConstExpr(&ast.BasicLit{Raw: "1"}, tInt, 1)
	inc := tb.value(&ast.BinaryExpr{Op: ast.OpAdd, X: mkI(), Y: one}, tInt)
	post := &ast.AssignStmt{Lhs: []ast.Expr{mkI()}, Op: ast.Assign, Rhs: []ast.Expr{inc}}

	loop := &ast.ForStmt{
		Init: declI,
		Cond: cond,
		Post: post,
		Body: &ast.BlockStmt{},
	}

	p := lower(tb, &types.Proc{}, declN, loop)
	checkWellFormed(t, p)

	head := findBlock(p, "for.loop")
	body := findBlock(p, "for.body")
	done := findBlock(p, "for.done")
	require.NotNil(t, head)
	require.NotNil(t, body)
	require.NotNil(t, done)

	br, ok := head.Terminator().(*ssa.Br)
	require.True(t, ok)
	require.NotNil(t, br.Cond)
	assert.ElementsMatch(t, []*ssa.Block{body, done}, br.Targets)

	// The empty body fuses with for.post; its back edge targets the head.
	assert.Contains(t, body.Succs, head)
	assert.Contains(t, head.Preds, body)
}

// S4: `x := a && b` — the join block's phi has one edge per
// predecessor, merging the true and false constants of the sc.true and
// sc.false blocks.
func TestScenarioShortCircuitValue(t *testing.T) {
	tb := newFakeTables()
	entA, mkA := tb.localVar("a", tBool)
	entB, mkB := tb.localVar("b", tBool)

	declA := &ast.DeclStmt{Names: []string{"a"}, Type: &ast.TypeExpr{Name: "bool"}}
	declB := &ast.DeclStmt{Names: []string{"b"}, Type: &ast.TypeExpr{Name: "bool"}}
	tb.defs[declA] = entA
	tb.defs[declB] = entB
	tb.infos[declA.Type] = checker.ExprInfo{Type: tBool, Mode: checker.ModeType}
	tb.infos[declB.Type] = checker.ExprInfo{Type: tBool, Mode: checker.ModeType}

	andExpr := tb.value(&ast.BinaryExpr{Op: ast.OpLAnd, X: mkA(), Y: mkB()}, tBool)
	declX := &ast.DeclStmt{Names: []string{"x"}, Inits: []ast.Expr{andExpr}}

	p := lower(tb, &types.Proc{}, declA, declB, declX)
	checkWellFormed(t, p)

	var phis []*ssa.Phi
	for _, instr := range allInstrs(p) {
		if phi, ok := instr.(*ssa.Phi); ok {
			phis = append(phis, phi)
		}
	}
	require.Len(t, phis, 1)
	phi := phis[0]
	assert.Len(t, phi.Edges, len(phi.Block().Preds))
	assert.Len(t, phi.Edges, 2)
}

// S5: `x, y := f()` — one tuple-typed Call, two ExtractValues (indices
// 0 and 1), and a Store into each freshly declared local.
func TestScenarioMultiReturnDestructure(t *testing.T) {
	tb := newFakeTables()
	sig := &types.Proc{Results: []types.Type{tInt, tBool}}
	entF := &fakeEntity{name: "f", typ: sig}

	b, mod := newTestBuilder(tb)
	procF := mod.NewProc("f", sig, entF)
	mod.SetValueOf(entF, procF)

	fun := &ast.Ident{Name: "f"}
	tb.uses[fun] = entF
	tb.infos[fun] = checker.ExprInfo{Type: sig, Mode: checker.ModeValue}
	call := &ast.CallExpr{Fun: fun}
	tb.infos[call] = checker.ExprInfo{Type: &types.Tuple{Elems: sig.Results}, Mode: checker.ModeValue}

	decl := &ast.DeclStmt{Names: []string{"x", "y"}, Inits: []ast.Expr{call}}

	proc := mod.NewProc("test", &types.Proc{}, nil)
	b.BuildProcedure(proc, nil, &ast.BlockStmt{List: []ast.Stmt{decl}})
	checkWellFormed(t, proc)

	var calls []*ssa.Call
	var extracts []*ssa.ExtractValue
	var stores []*ssa.Store
	for _, instr := range allInstrs(proc) {
		switch i := instr.(type) {
		case *ssa.Call:
			calls = append(calls, i)
		case *ssa.ExtractValue:
			extracts = append(extracts, i)
		case *ssa.Store:
			stores = append(stores, i)
		}
	}
	require.Len(t, calls, 1)
	_, isTuple := calls[0].Type().(*types.Tuple)
	assert.True(t, isTuple, "multi-result call carries a tuple type")

	require.Len(t, extracts, 2)
	assert.Equal(t, 0, extracts[0].Index)
	assert.Equal(t, 1, extracts[1].Index)

	require.Len(t, stores, 2)
	for i, st := range stores {
		assert.Same(t, extracts[i], st.Val)
		local, ok := st.Addr.(*ssa.Local)
		require.True(t, ok)
		assert.Equal(t, proc.DeclBlock, local.Block(), "locals live in the decl block")
	}
}

// S6: `print(1, 2, 3)` against `proc(args: ...int)` — a fresh
// three-element array local, three element stores, a synthesized slice
// header, and a single Call whose final argument is the loaded slice.
func TestScenarioVariadicPacking(t *testing.T) {
	tb := newFakeTables()
	sig := &types.Proc{Params: []types.Type{&types.Slice{Elem: tInt}}, Variadic: true}
	entPrint := &fakeEntity{name: "print", typ: sig}

	b, mod := newTestBuilder(tb)
	procPrint := mod.NewProc("print", sig, entPrint)
	mod.SetValueOf(entPrint, procPrint)

	fun := &ast.Ident{Name: "print"}
	tb.uses[fun] = entPrint
	tb.infos[fun] = checker.ExprInfo{Type: sig, Mode: checker.ModeValue}

	args := []ast.Expr{
		tb.intConstExpr(&ast.BasicLit{Raw: "1"}, tInt, 1),
		tb.intConstExpr(&ast.BasicLit{Raw: "2"}, tInt, 2),
		tb.intConstExpr(&ast.BasicLit{Raw: "3"}, tInt, 3),
	}
	call := &ast.CallExpr{Fun: fun, Args: args}
	tb.infos[call] = checker.ExprInfo{Type: types.Void{}, Mode: checker.ModeValue}

	proc := mod.NewProc("test", &types.Proc{}, nil)
	b.BuildProcedure(proc, nil, &ast.BlockStmt{List: []ast.Stmt{&ast.ExprStmt{X: call}}})
	checkWellFormed(t, proc)

	var arrayLocal *ssa.Local
	for _, instr := range proc.DeclBlock.Locals() {
		l := instr.(*ssa.Local)
		if arr, ok := l.Typ.Elem.(*types.Array); ok {
			arrayLocal = l
			assert.Equal(t, int64(3), arr.Len)
		}
	}
	require.NotNil(t, arrayLocal, "variadic packing synthesizes a backing array local")

	elemStores := 0
	for _, instr := range allInstrs(proc) {
		st, ok := instr.(*ssa.Store)
		if !ok {
			continue
		}
		if gep, ok := st.Addr.(*ssa.GetElementPtr); ok && gep.Base == ssa.Value(arrayLocal) {
			elemStores++
		}
	}
	assert.Equal(t, 3, elemStores)

	var calls []*ssa.Call
	for _, instr := range allInstrs(proc) {
		if c, ok := instr.(*ssa.Call); ok {
			calls = append(calls, c)
		}
	}
	require.Len(t, calls, 1)
	require.Len(t, calls[0].Args, 1)
	_, isSlice := calls[0].Args[0].Type().(*types.Slice)
	assert.True(t, isSlice, "the packed argument is a slice header, not the raw array")
}

// A procedure-level defer drains exactly once, at the return site: the
// deferred call lands immediately before the Ret.
func TestDeferDrainsAtReturn(t *testing.T) {
	tb := newFakeTables()
	sig := &types.Proc{}
	entF := &fakeEntity{name: "cleanup", typ: sig}

	b, mod := newTestBuilder(tb)
	procF := mod.NewProc("cleanup", sig, entF)
	mod.SetValueOf(entF, procF)

	fun := &ast.Ident{Name: "cleanup"}
	tb.uses[fun] = entF
	tb.infos[fun] = checker.ExprInfo{Type: sig, Mode: checker.ModeValue}
	call := &ast.CallExpr{Fun: fun}
	tb.infos[call] = checker.ExprInfo{Type: types.Void{}, Mode: checker.ModeValue}

	proc := mod.NewProc("test", &types.Proc{}, nil)
	b.BuildProcedure(proc, nil, &ast.BlockStmt{List: []ast.Stmt{
		&ast.DeferStmt{Call: call},
		&ast.ReturnStmt{},
	}})
	checkWellFormed(t, proc)

	instrs := allInstrs(proc)
	require.GreaterOrEqual(t, len(instrs), 2)
	last := instrs[len(instrs)-1]
	_, isRet := last.(*ssa.Ret)
	require.True(t, isRet)
	deferredCall, isCall := instrs[len(instrs)-2].(*ssa.Call)
	require.True(t, isCall, "the deferred call replays right before the Ret")
	assert.Same(t, ssa.Value(procF), deferredCall.Callee)
}

// A break as the loop body's first statement kills the back edge
// entirely: nothing loops, so fusion collapses the procedure to a
// single straight-line block ending in the implicit return.
func TestBreakTargetsLoopDone(t *testing.T) {
	tb := newFakeTables()
	loop := &ast.ForStmt{
		Body: &ast.BlockStmt{List: []ast.Stmt{
			&ast.BranchStmt{Kind: ast.Break},
		}},
	}

	p := lower(tb, &types.Proc{}, loop)
	checkWellFormed(t, p)

	require.Len(t, p.Blocks, 1)
	_, isRet := p.Blocks[0].Terminator().(*ssa.Ret)
	assert.True(t, isRet)
}
