package internal

import (
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

func (g *CodeGenerator) stmts(stmts []Stmt) error {
	for _, stmt := range stmts {
		// Nothing after a return, skip or escape is reachable.
		if g.fn.block.Term != nil {
			break
		}
		if err := stmt.Accept(g); err != nil {
			return err
		}
	}
	return nil
}

func (g *CodeGenerator) scopedStmts(stmts []Stmt) error {
	g.scopes.Enter()
	defer g.scopes.Leave()
	return g.stmts(stmts)
}

func (g *CodeGenerator) lowerExpr(e Expr) (value.Value, error) {
	return VisitExpr[value.Value](g, e)
}

// lowerInit lowers an initializer for a slot of type want, which sizes and types the
// elements of an array literal.
func (g *CodeGenerator) lowerInit(init Expr, want types.Type) (value.Value, error) {
	if lit, ok := init.(*ArrayLiteral); ok {
		if at, ok := want.(*types.ArrayType); ok {
			return g.lowerArrayLiteral(lit, at.ElemType)
		}
	}
	return g.lowerExpr(init)
}

// declaredValue returns the IR type of a declaration and its initial value. Arrays whose
// initializer is not a literal take their length from the initializer's value.
func (g *CodeGenerator) declaredValue(decl *TypeRef, init Expr) (types.Type, value.Value, error) {
	typ, sizeErr := g.sizedType(decl, init)
	if sizeErr != nil && (decl.Kind != ArrayType || init == nil) {
		return nil, nil, sizeErr
	}
	if _, ok := typ.(*types.VoidType); ok {
		return nil, nil, makeLoweringError("variables cannot be void")
	}
	if init == nil {
		return typ, zeroValue(typ), nil
	}
	v, err := g.lowerInit(init, typ)
	if err != nil {
		return nil, nil, err
	}
	if typ == nil {
		elem, err := g.sizedType(decl.Elem, nil)
		if err != nil {
			return nil, nil, err
		}
		at, ok := v.Type().(*types.ArrayType)
		if !ok || !at.ElemType.Equal(elem) {
			return nil, nil, makeLoweringError("cannot use %s value as %s", v.Type(), decl)
		}
		typ = at
	}
	v, err = g.coerce(v, typ)
	if err != nil {
		return nil, nil, err
	}
	return typ, v, nil
}

func (g *CodeGenerator) globalNameTaken(name string) bool {
	for _, fn := range g.module.Funcs {
		if fn.Name() == name {
			return true
		}
	}
	for _, global := range g.module.Globals {
		if global.Name() == name {
			return true
		}
	}
	return false
}

func (g *CodeGenerator) VisitVarDef(s *VarDef) error {
	if lambda, ok := s.Init.(*Lambda); ok {
		retType, err := g.irType(s.Type)
		if err != nil {
			return err
		}
		fn, err := g.lowerLambda(lambda, retType)
		if err != nil {
			return err
		}
		g.scopes.Define(s.Name, &binding{fn: fn})
		return nil
	}
	typ, v, err := g.declaredValue(s.Type, s.Init)
	if err != nil {
		return err
	}
	if g.fn == g.main && g.scopes.Active() == RootScope {
		if g.globalNameTaken(s.Name) {
			return makeLoweringError("duplicate global '%s'", s.Name)
		}
		global := g.module.NewGlobalDef(s.Name, zeroValue(typ))
		if s.Init != nil {
			g.fn.block.NewStore(v, global)
		}
		g.scopes.Define(s.Name, &binding{slot: global, typ: typ})
		return nil
	}
	slot := g.fn.alloca(typ, s.Name)
	g.fn.block.NewStore(v, slot)
	g.scopes.Define(s.Name, &binding{slot: slot, typ: typ})
	return nil
}

func (g *CodeGenerator) VisitAssignment(s *Assignment) error {
	target, err := g.assignTarget(s.Target)
	if err != nil {
		return err
	}
	if target.fn != nil {
		return makeLoweringError("cannot assign to function '%s'", s.Target)
	}
	v, err := g.lowerInit(s.Value, target.typ)
	if err != nil {
		return err
	}
	if s.Op != "=" {
		current := g.fn.block.NewLoad(target.typ, target.slot)
		v, err = g.arith(strings.TrimSuffix(s.Op, "="), current, v)
		if err != nil {
			return err
		}
	}
	v, err = g.coerce(v, target.typ)
	if err != nil {
		return err
	}
	g.fn.block.NewStore(v, target.slot)
	return nil
}

func (g *CodeGenerator) VisitEnumDef(s *EnumDef) error {
	if _, ok := g.enums[s.Name]; ok {
		return nil
	}
	members := map[string]int64{}
	for i, member := range s.Members {
		members[member] = int64(i)
	}
	g.enums[s.Name] = members
	return nil
}

func (g *CodeGenerator) VisitFunDef(s *FunDef) error {
	fn, ok := g.functions[s.Name]
	nested := !ok || g.fn != g.main || g.scopes.Active() != RootScope
	if nested {
		var err error
		fn, err = g.nestedFunc(s)
		if err != nil {
			return err
		}
	}
	return g.withFunc(fn, nil, s.Params, func() error {
		// The body scope hangs off the root, so a nested function rebinds itself there.
		if _, shadowed := g.scopes.ResolveLocal(s.Name); nested && !shadowed {
			g.scopes.Define(s.Name, &binding{fn: fn})
		}
		return g.stmts(s.Body)
	})
}

// nestedFunc declares a function defined inside another body. It becomes a module level
// function named after the enclosing function.
func (g *CodeGenerator) nestedFunc(s *FunDef) (*ir.Func, error) {
	name := s.Name
	if g.fn != nil {
		name = g.fn.fn.Name() + "." + s.Name
	}
	retType, err := g.irType(s.ReturnType)
	if err != nil {
		return nil, err
	}
	fn, err := g.newFunc(name, retType, nil, s.Params)
	if err != nil {
		return nil, err
	}
	g.scopes.Define(s.Name, &binding{fn: fn})
	return fn, nil
}

func (g *CodeGenerator) VisitClassDef(s *ClassDef) error {
	desc, ok := g.classes[s.Name]
	if !ok || desc.def != s {
		return makeLoweringError("class '%s' must be declared at top level", s.Name)
	}
	return g.lowerClass(desc)
}

func (g *CodeGenerator) VisitCtorDef(s *CtorDef) error {
	return makeLoweringError("constructor '%s' outside of its class", s.Class)
}

// VisitWhenChain lowers a first match chain:
//
//	br cond, when.then.0, when.next.0
//	when.then.0: ... br when.merge.0
//	when.next.0: br cond2, when.then.1, otherwise.0
//	otherwise.0: ... br when.merge.0
//	when.merge.0:
func (g *CodeGenerator) VisitWhenChain(s *WhenChain) error {
	fs := g.fn
	merge := fs.newBlock("when.merge")
	for i, when := range s.Whens {
		cond, err := g.lowerCond(when.Cond)
		if err != nil {
			return err
		}
		then := fs.newBlock("when.then")
		next := merge
		switch {
		case i < len(s.Whens)-1:
			next = fs.newBlock("when.next")
		case s.Otherwise != nil:
			next = fs.newBlock("otherwise")
		}
		fs.block.NewCondBr(cond, then, next)
		fs.place(then)
		if err := g.scopedStmts(when.Body); err != nil {
			return err
		}
		if fs.block.Term == nil {
			fs.block.NewBr(merge)
		}
		if next != merge {
			fs.place(next)
		}
	}
	if s.Otherwise != nil {
		if err := g.scopedStmts(s.Otherwise.Body); err != nil {
			return err
		}
		if fs.block.Term == nil {
			fs.block.NewBr(merge)
		}
	}
	fs.place(merge)
	return nil
}

// VisitFor walks a fixed-size array with a counter slot:
//
//	for.loop.0: item = array[index]; body; br for.next.0
//	for.next.0: index += 1; br index < len, for.loop.0, for.after.0
//	for.after.0:
func (g *CodeGenerator) VisitFor(s *For) error {
	iterable, err := g.lowerExpr(s.Iterable)
	if err != nil {
		return err
	}
	at, ok := iterable.Type().(*types.ArrayType)
	if !ok {
		return makeLoweringError("for needs a fixed-size array, got %s", iterable.Type())
	}
	if at.Len == 0 {
		return nil
	}
	varType, err := g.irType(s.Binding.Type)
	if err != nil {
		return err
	}
	fs := g.fn
	array := fs.alloca(at, "for.array")
	index := fs.alloca(types.I32, "for.index")
	item := fs.alloca(varType, s.Binding.Name)
	fs.block.NewStore(iterable, array)
	fs.block.NewStore(constant.NewInt(types.I32, 0), index)

	loop, next, after := fs.newBlock("for.loop"), fs.newBlock("for.next"), fs.newBlock("for.after")
	fs.block.NewBr(loop)
	fs.place(loop)
	i := loop.NewLoad(types.I32, index)
	ptr := loop.NewGetElementPtr(at, array, constant.NewInt(types.I32, 0), i)
	element, err := g.coerce(loop.NewLoad(at.ElemType, ptr), varType)
	if err != nil {
		return err
	}
	loop.NewStore(element, item)

	g.scopes.Enter()
	defer g.scopes.Leave()
	g.scopes.Define(s.Binding.Name, &binding{slot: item, typ: varType})
	fs.loops = append(fs.loops, &loopTargets{next: next, after: after})
	defer func() { fs.loops = fs.loops[:len(fs.loops)-1] }()
	if err := g.stmts(s.Body); err != nil {
		return err
	}
	if fs.block.Term == nil {
		fs.block.NewBr(next)
	}

	fs.place(next)
	current := next.NewLoad(types.I32, index)
	incremented := next.NewAdd(current, constant.NewInt(types.I32, 1))
	next.NewStore(incremented, index)
	more := next.NewICmp(enum.IPredSLT, incremented, constant.NewInt(types.I32, int64(at.Len)))
	next.NewCondBr(more, loop, after)
	fs.place(after)
	return nil
}

// VisitSwitch emits one switch instruction. Every case block and the default block fall
// through to switch.end.
func (g *CodeGenerator) VisitSwitch(s *Switch) error {
	subject, err := g.lowerExpr(s.Subject)
	if err != nil {
		return err
	}
	subjectType, ok := subject.Type().(*types.IntType)
	if !ok || subjectType.BitSize == 1 {
		return makeLoweringError("switch needs an integer or enum subject, got %s", subject.Type())
	}
	fs := g.fn
	end, otherwise := fs.newBlock("switch.end"), fs.newBlock("switch.default")
	term := fs.block.NewSwitch(subject, otherwise)
	seen := map[int64]bool{}
	for _, c := range s.Cases {
		v, err := g.caseConstant(c.Value)
		if err != nil {
			return err
		}
		if seen[v] {
			return makeLoweringError("duplicate case value %d", v)
		}
		seen[v] = true
		block := fs.newBlock("switch.case")
		term.Cases = append(term.Cases, ir.NewCase(constant.NewInt(subjectType, v), block))
		fs.place(block)
		if err := g.scopedStmts(c.Body); err != nil {
			return err
		}
		if fs.block.Term == nil {
			fs.block.NewBr(end)
		}
	}
	fs.place(otherwise)
	otherwise.NewBr(end)
	fs.place(end)
	return nil
}

// caseConstant reads a case label: an integer literal or an enum member.
func (g *CodeGenerator) caseConstant(e Expr) (int64, error) {
	if v, ok := integerLiteral(e); ok {
		return v, nil
	}
	if access, ok := e.(*MemberAccess); ok {
		if ident, ok := access.Object.(*Identifier); ok {
			if members, ok := g.enums[ident.Name]; ok {
				v, found := members[access.Member]
				if !found {
					return 0, &NameError{Kind: MemberName, Name: ident.Name + "." + access.Member}
				}
				return v, nil
			}
		}
	}
	return 0, makeLoweringError("case values must be integer or enum constants")
}

// VisitTry lowers the body inline. Nothing unwinds into the except blocks, they only join
// the merge block.
func (g *CodeGenerator) VisitTry(s *Try) error {
	fs := g.fn
	if err := g.scopedStmts(s.Body); err != nil {
		return err
	}
	merge := fs.newBlock("try.end")
	if fs.block.Term == nil {
		fs.block.NewBr(merge)
	}
	for _, except := range s.Excepts {
		fs.place(fs.newBlock("except"))
		if err := g.scopedStmts(except.Body); err != nil {
			return err
		}
		if fs.block.Term == nil {
			fs.block.NewBr(merge)
		}
	}
	fs.place(merge)
	return nil
}

func (g *CodeGenerator) VisitReturn(s *Return) error {
	fs := g.fn
	_, void := fs.retType.(*types.VoidType)
	if s.Value == nil {
		if void {
			fs.block.NewRet(nil)
		} else {
			fs.block.NewRet(zeroValue(fs.retType))
		}
		return nil
	}
	if void {
		return makeLoweringError("void function '%s' cannot return a value", fs.fn.Name())
	}
	v, err := g.lowerInit(s.Value, fs.retType)
	if err != nil {
		return err
	}
	v, err = g.coerce(v, fs.retType)
	if err != nil {
		return err
	}
	fs.block.NewRet(v)
	return nil
}

func (g *CodeGenerator) VisitKeyword(s *Keyword) error {
	if s.Word == "pass" {
		return nil
	}
	fs := g.fn
	if fs == nil || len(fs.loops) == 0 {
		return makeLoweringError("'%s' outside of a loop", s.Word)
	}
	loop := fs.loops[len(fs.loops)-1]
	if s.Word == "skip" {
		fs.block.NewBr(loop.next)
	} else {
		fs.block.NewBr(loop.after)
	}
	return nil
}

func (g *CodeGenerator) VisitImport(s *Import) error {
	return nil
}

func (g *CodeGenerator) VisitExprStmt(s *ExprStmt) error {
	_, err := g.lowerExpr(s.X)
	return err
}
