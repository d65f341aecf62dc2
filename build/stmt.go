package build

import (
	"github.com/ssalang/ssacore/ast"
	"github.com/ssalang/ssacore/ssa"
	"github.com/ssalang/ssacore/types"
)

// buildStmtList lowers a statement sequence, stopping early (the rest
// become genuinely dead code) once a statement closes the current
// block with a terminator.
func (b *Builder) buildStmtList(list []ast.Stmt) {
	for _, s := range list {
		b.buildStmt(s)
		if b.Proc.CurrBlock == nil || b.Proc.CurrBlock.Terminator() != nil {
			return
		}
	}
}

// buildStmt is package build's top-level statement dispatch, grounded on cmd/internal/gc/ssa.go's `(*ssaState).stmt`
// switch.
func (b *Builder) buildStmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.BlockStmt:
		b.OpenScope()
		b.buildStmtList(n.List)
		b.CloseScope(ExitDefault)
	case *ast.ExprStmt:
		b.BuildExpr(n.X)
	case *ast.DeclStmt:
		b.buildDecl(n)
	case *ast.AssignStmt:
		b.buildAssign(n)
	case *ast.IfStmt:
		b.buildIf(n)
	case *ast.ForStmt:
		b.buildFor(n)
	case *ast.MatchStmt:
		if n.IsType {
			b.buildTypeMatch(n)
		} else {
			b.buildValueMatch(n)
		}
	case *ast.ReturnStmt:
		b.buildReturn(n)
	case *ast.DeferStmt:
		b.buildDefer(n)
	case *ast.BranchStmt:
		b.buildBranch(n)
	case *ast.PushAllocatorStmt:
		b.buildPushAllocator(n)
	case *ast.PushContextStmt:
		b.buildPushContext(n)
	case *ast.LabeledStmt:
		b.buildStmt(n.Stmt)
	default:
		b.ice(s, "unsupported statement shape")
	}
}

// buildDecl lowers `name[, name...] [: T] [= init...]`:
// one Local per name, zero-initialized by NewLocal, then an optional
// per-name Store if an initializer was supplied. A multi-name
// declaration against one tuple-returning call destructures the call
// result positionally.
func (b *Builder) buildDecl(n *ast.DeclStmt) {
	if len(n.Names) > 1 && len(n.Inits) == 1 {
		b.buildDestructureDecl(n)
		return
	}
	for i, name := range n.Names {
		if name == "_" || name == "" {
			continue
		}
		t := b.declType(n, i)
		local := b.NewLocal(name, t)
		if len(n.Names) == 1 {
			if ent, ok := b.Tables.Definitions(n); ok {
				b.bindVar(ent, local)
			}
		}
		if i < len(n.Inits) {
			val := b.BuildExpr(n.Inits[i])
			val = b.emitConv(n.Inits[i], val, b.exprType(n.Inits[i]), t)
			st := &ssa.Store{Addr: local, Val: val}
			b.emit(st)
		}
	}
}

// buildDestructureDecl lowers `x, y := f()` where f returns a tuple:
// one Call, one ExtractValue per tuple field, and a fresh local plus
// Store per non-blank name. A declared-name count shorter than the
// tuple arity implicitly discards the trailing results (the extracts
// are still emitted, just never stored).
func (b *Builder) buildDestructureDecl(n *ast.DeclStmt) {
	agg := b.BuildExpr(n.Inits[0])
	tup, ok := types.Underlying(b.exprType(n.Inits[0])).(*types.Tuple)
	if !ok {
		b.ice(n, "multi-name declaration initializer is not a tuple-valued call")
	}
	if len(n.Names) > len(tup.Elems) {
		b.ice(n, "declaration names exceed tuple arity")
	}
	for i, elemType := range tup.Elems {
		ev := &ssa.ExtractValue{Agg: agg, Index: i, Typ: elemType}
		b.emit(ev)
		if i >= len(n.Names) {
			continue
		}
		name := n.Names[i]
		if name == "_" || name == "" {
			continue
		}
		local := b.NewLocal(name, elemType)
		st := &ssa.Store{Addr: local, Val: ev}
		b.emit(st)
	}
}

// declType resolves the static type for the i'th declared name: the
// explicit type annotation if present, else the i'th initializer's
// inferred type.
func (b *Builder) declType(n *ast.DeclStmt, i int) types.Type {
	if n.Type != nil {
		return b.resolveTypeExpr(n.Type)
	}
	if i < len(n.Inits) {
		return b.exprType(n.Inits[i])
	}
	b.ice(n, "declaration has no type and no initializer")
	return nil
}

func (b *Builder) resolveTypeExpr(te *ast.TypeExpr) types.Type {
	return b.Tables.TypeOf(te).Type
}

// contextType is the fixed shape of the ambient context global the
// push_allocator/push_context statements patch: the allocator handle
// first (so push_allocator can GEP field 0), then the user data word.
var contextType types.Type = &types.Struct{
	Name: "__$context_t",
	Fields: []types.Field{
		{Name: "allocator", Type: types.NewBasic(types.Rawptr, "rawptr")},
		{Name: "data", Type: types.NewBasic(types.Rawptr, "rawptr")},
	},
}

// contextGlobal resolves (creating on first use) the module's ambient
// context global.
func (b *Builder) contextGlobal() ssa.Value {
	const name = "__$context"
	if v, ok := b.Mod.Member(name); ok {
		return v
	}
	g := b.Mod.NewGlobal(name, contextType, 0)
	b.Mod.SetMember(name, g)
	return g
}

// buildPushAllocator lowers `push_allocator(a) { ... }`:
// open a scope, snapshot the context global into a fresh local,
// register a defer-instr that stores the snapshot back, patch the
// allocator field, and emit the body. The restore replays at every
// scope exit via the ordinary defer machinery.
func (b *Builder) buildPushAllocator(n *ast.PushAllocatorStmt) {
	b.OpenScope()
	ctx := b.contextGlobal()
	b.snapshotContext(ctx)

	alloc := b.BuildExpr(n.Allocator)
	field := &ssa.GetElementPtr{Base: ctx, Indices: []ssa.Value{b.int32Const(0), b.int32Const(0)}, Typ: &types.Pointer{Elem: rawptrType}}
	b.emit(field)
	b.emit(&ssa.Store{Addr: field, Val: alloc})

	b.buildStmtList(n.Body.List)
	b.CloseScope(ExitDefault)
}

// buildPushContext lowers `push_context(c) { ... }` the same way,
// overwriting the whole context value instead of one field.
func (b *Builder) buildPushContext(n *ast.PushContextStmt) {
	b.OpenScope()
	ctx := b.contextGlobal()
	b.snapshotContext(ctx)

	val := b.BuildExpr(n.Context)
	val = b.emitConv(n.Context, val, b.exprType(n.Context), contextType)
	b.emit(&ssa.Store{Addr: ctx, Val: val})

	b.buildStmtList(n.Body.List)
	b.CloseScope(ExitDefault)
}

// snapshotContext loads the current context value, spills it to a fresh
// local, and registers a defer-instr template restoring it, at the
// current (just-opened) scope depth so CloseScope's unroll replays the
// restore on every exit path.
func (b *Builder) snapshotContext(ctx ssa.Value) {
	old := &ssa.Load{Addr: ctx, Typ: contextType}
	b.emit(old)
	keep := b.NewLocal("", contextType)
	b.emit(&ssa.Store{Addr: keep, Val: old})

	restore := &ssa.Store{Addr: ctx, Val: old}
	restore.SetIndexUnset()
	b.Proc.PushDefer(ssa.DeferRecord{
		Kind:             ssa.DeferInstr,
		ScopeIndex:       b.Proc.ScopeDepth(),
		OriginatingBlock: b.Proc.CurrBlock,
		InstrPayload:     restore,
	})
}
