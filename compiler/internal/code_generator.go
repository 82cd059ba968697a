package internal

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

const DefaultTriple = "x86_64-unknown-linux-gnu"

type CodeGenOptions struct {
	Triple string
}

// CodeGenerator lowers one program into one IR module.
//
// Declarations are collected first: enum members, class layouts with their constructor and
// method signatures, and free function signatures, so calls may refer to anything declared
// at the top level. Statements are then lowered in source order. Top level variables become
// module globals and top level code runs in an implicit "i32 main()".
type CodeGenerator struct {
	options   CodeGenOptions
	module    *ir.Module
	scopes    *ScopeStack[*binding]
	functions map[string]*ir.Func
	classes   map[string]*classDescriptor
	classList []*classDescriptor
	enums     map[string]map[string]int64
	strs      map[string]constant.Constant
	intrinsic map[string]*ir.Func
	lambdas   int
	main      *funcState
	fn        *funcState
	instance  *classDescriptor
}

// funcState is the builder state of the function being lowered.
type funcState struct {
	fn      *ir.Func
	entry   *ir.Block
	block   *ir.Block
	self    value.Value
	retType types.Type
	allocas int
	names   map[string]int
	loops   []*loopTargets
}

type loopTargets struct {
	next  *ir.Block
	after *ir.Block
}

func NewCodeGenerator(options CodeGenOptions) *CodeGenerator {
	if options.Triple == "" {
		options.Triple = DefaultTriple
	}
	return &CodeGenerator{options: options}
}

// Generate returns the textual IR of program. The generator can be reused; every call
// starts from an empty module.
func (g *CodeGenerator) Generate(program *Program) (string, error) {
	g.module = ir.NewModule()
	g.module.TargetTriple = g.options.Triple
	g.scopes = NewScopeStack[*binding]()
	g.functions = map[string]*ir.Func{}
	g.classes = map[string]*classDescriptor{}
	g.classList = nil
	g.enums = map[string]map[string]int64{}
	g.strs = map[string]constant.Constant{}
	g.intrinsic = map[string]*ir.Func{}
	g.lambdas = 0
	g.main, g.fn, g.instance = nil, nil, nil

	if err := g.declare(program); err != nil {
		return "", err
	}
	if needsMain(program) {
		if _, ok := g.functions["main"]; ok {
			return "", makeLoweringError("duplicate function 'main'")
		}
		fn := g.module.NewFunc("main", types.I32)
		g.main = g.newFuncState(fn, types.I32)
		g.fn = g.main
	}
	for _, stmt := range program.Stmts {
		if g.fn != nil && g.fn.block.Term != nil && !isDeclaration(stmt) {
			continue
		}
		if err := stmt.Accept(g); err != nil {
			return "", err
		}
	}
	if g.main != nil {
		g.finishFunc(g.main)
	}
	return g.module.String(), nil
}

func isDeclaration(stmt Stmt) bool {
	switch s := stmt.(type) {
	case *FunDef, *ClassDef, *EnumDef, *Import:
		return true
	case *Keyword:
		return s.Word == "pass"
	}
	return false
}

// needsMain reports whether program has top level statements besides declarations.
func needsMain(program *Program) bool {
	for _, stmt := range program.Stmts {
		if !isDeclaration(stmt) {
			return true
		}
	}
	return false
}

// declare registers every top level enum, class and function before any body is lowered.
func (g *CodeGenerator) declare(program *Program) error {
	for _, stmt := range program.Stmts {
		switch s := stmt.(type) {
		case *EnumDef:
			members := map[string]int64{}
			for i, member := range s.Members {
				members[member] = int64(i)
			}
			g.enums[s.Name] = members
		case *ClassDef:
			if _, ok := g.classes[s.Name]; ok {
				return makeLoweringError("duplicate class '%s'", s.Name)
			}
			st := types.NewStruct()
			g.module.NewTypeDef(s.Name, st)
			desc := &classDescriptor{
				name:    s.Name,
				def:     s,
				typ:     st,
				ptr:     types.NewPointer(st),
				index:   map[string]int{},
				methods: map[string]*ir.Func{},
			}
			g.classes[s.Name] = desc
			g.classList = append(g.classList, desc)
		}
	}
	for _, desc := range g.classList {
		if err := g.declareClass(desc); err != nil {
			return err
		}
	}
	for _, stmt := range program.Stmts {
		if s, ok := stmt.(*FunDef); ok {
			if _, err := g.declareFunc(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// declareClass fixes the field layout and the constructor and method signatures.
func (g *CodeGenerator) declareClass(desc *classDescriptor) error {
	for _, stmt := range desc.def.Body {
		switch member := stmt.(type) {
		case *VarDef:
			if _, ok := desc.index[member.Name]; ok {
				return makeLoweringError("duplicate field '%s' in class '%s'", member.Name, desc.name)
			}
			typ, err := g.sizedType(member.Type, member.Init)
			if err != nil {
				return err
			}
			desc.index[member.Name] = len(desc.fields)
			desc.fields = append(desc.fields, &classField{name: member.Name, decl: member.Type, typ: typ, init: member.Init})
			desc.typ.Fields = append(desc.typ.Fields, typ)
		case *CtorDef:
			if desc.ctorDef != nil {
				return makeLoweringError("class '%s' has more than one constructor", desc.name)
			}
			desc.ctorDef = member
		case *FunDef:
			desc.methodDefs = append(desc.methodDefs, member)
		case *Keyword:
			if member.Word != "pass" {
				return makeLoweringError("'%s' is not allowed in class body", member.Word)
			}
		default:
			return makeLoweringError("unsupported statement in body of class '%s'", desc.name)
		}
	}
	var ctorParams []*Param
	if desc.ctorDef != nil {
		ctorParams = desc.ctorDef.Params
	}
	ctor, err := g.newFunc(desc.mangle("ctor"), types.Void, desc.ptr, ctorParams)
	if err != nil {
		return err
	}
	desc.ctor = ctor
	for _, def := range desc.methodDefs {
		if _, ok := desc.methods[def.Name]; ok {
			return makeLoweringError("duplicate method '%s' in class '%s'", def.Name, desc.name)
		}
		retType, err := g.irType(def.ReturnType)
		if err != nil {
			return err
		}
		method, err := g.newFunc(desc.mangle(def.Name), retType, desc.ptr, def.Params)
		if err != nil {
			return err
		}
		desc.methods[def.Name] = method
	}
	return nil
}

func (g *CodeGenerator) declareFunc(def *FunDef) (*ir.Func, error) {
	if _, ok := g.functions[def.Name]; ok {
		return nil, makeLoweringError("duplicate function '%s'", def.Name)
	}
	retType, err := g.irType(def.ReturnType)
	if err != nil {
		return nil, err
	}
	fn, err := g.newFunc(def.Name, retType, nil, def.Params)
	if err != nil {
		return nil, err
	}
	g.functions[def.Name] = fn
	return fn, nil
}

// newFunc adds a function to the module. A non-nil self type adds the implicit instance
// parameter in front.
func (g *CodeGenerator) newFunc(name string, retType types.Type, self types.Type, params []*Param) (*ir.Func, error) {
	for _, existing := range g.module.Funcs {
		if existing.Name() == name {
			return nil, makeLoweringError("duplicate function '%s'", name)
		}
	}
	var irParams []*ir.Param
	if self != nil {
		irParams = append(irParams, ir.NewParam("self", self))
	}
	for _, param := range params {
		typ, err := g.irType(param.Type)
		if err != nil {
			return nil, err
		}
		irParams = append(irParams, ir.NewParam(param.Name, typ))
	}
	return g.module.NewFunc(name, retType, irParams...), nil
}

func (g *CodeGenerator) newFuncState(fn *ir.Func, retType types.Type) *funcState {
	fs := &funcState{fn: fn, retType: retType, names: map[string]int{"entry": 1}}
	for _, param := range fn.Params {
		fs.names[param.Name()] = 1
	}
	fs.entry = fn.NewBlock("entry")
	fs.block = fs.entry
	return fs
}

// uniqueName returns name, or name.N when name is already taken in this function.
func (fs *funcState) uniqueName(name string) string {
	n, ok := fs.names[name]
	fs.names[name] = n + 1
	if !ok {
		return name
	}
	return fmt.Sprintf("%s.%d", name, n)
}

// newBlock creates a block that is not yet part of the function. place appends it.
func (fs *funcState) newBlock(prefix string) *ir.Block {
	n := fs.names[prefix]
	fs.names[prefix] = n + 1
	return ir.NewBlock(fmt.Sprintf("%s.%d", prefix, n))
}

func (fs *funcState) place(block *ir.Block) {
	block.Parent = fs.fn
	fs.fn.Blocks = append(fs.fn.Blocks, block)
	fs.block = block
}

// alloca reserves a stack slot at the top of the entry block, ahead of any other code.
func (fs *funcState) alloca(typ types.Type, name string) *ir.InstAlloca {
	inst := fs.entry.NewAlloca(typ)
	inst.SetName(fs.uniqueName(name))
	insts := fs.entry.Insts
	copy(insts[fs.allocas+1:], insts[fs.allocas:len(insts)-1])
	insts[fs.allocas] = inst
	fs.allocas++
	return inst
}

// finishFunc terminates the last block with a return of the zero value when the body did
// not return on its own.
func (g *CodeGenerator) finishFunc(fs *funcState) {
	if fs.block.Term != nil {
		return
	}
	if _, ok := fs.retType.(*types.VoidType); ok {
		fs.block.NewRet(nil)
		return
	}
	fs.block.NewRet(zeroValue(fs.retType))
}

// withFunc lowers body as the body of fn in a scope that only sees globals. The builder
// state of the enclosing function is restored afterwards.
func (g *CodeGenerator) withFunc(fn *ir.Func, self value.Value, params []*Param, body func() error) error {
	outer := g.fn
	fs := g.newFuncState(fn, fn.Sig.RetType)
	fs.self = self
	g.fn = fs
	g.scopes.EnterFrom(RootScope)
	defer func() {
		g.scopes.Leave()
		g.fn = outer
	}()
	offset := len(fn.Params) - len(params)
	for i, param := range params {
		irParam := fn.Params[offset+i]
		slot := fs.alloca(irParam.Type(), param.Name+".addr")
		fs.block.NewStore(irParam, slot)
		g.scopes.Define(param.Name, &binding{slot: slot, typ: irParam.Type()})
	}
	if err := body(); err != nil {
		return err
	}
	g.finishFunc(fs)
	return nil
}

// lowerClass emits the constructor, which stores field initializers and then runs the
// constructor body, and one function per method.
func (g *CodeGenerator) lowerClass(desc *classDescriptor) error {
	outer := g.instance
	g.instance = desc
	defer func() { g.instance = outer }()

	var ctorParams []*Param
	var ctorBody []Stmt
	if desc.ctorDef != nil {
		ctorParams, ctorBody = desc.ctorDef.Params, desc.ctorDef.Body
	}
	self := desc.ctor.Params[0]
	err := g.withFunc(desc.ctor, self, ctorParams, func() error {
		for i, field := range desc.fields {
			value, err := g.fieldInit(field)
			if err != nil {
				return err
			}
			ptr := g.fieldPtr(desc, self, i)
			g.fn.block.NewStore(value, ptr)
		}
		return g.stmts(ctorBody)
	})
	if err != nil {
		return err
	}
	for _, def := range desc.methodDefs {
		method := desc.methods[def.Name]
		err := g.withFunc(method, method.Params[0], def.Params, func() error {
			return g.stmts(def.Body)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *CodeGenerator) fieldInit(field *classField) (value.Value, error) {
	if field.init == nil {
		return zeroValue(field.typ), nil
	}
	v, err := g.lowerInit(field.init, field.typ)
	if err != nil {
		return nil, err
	}
	return g.coerce(v, field.typ)
}

func (g *CodeGenerator) fieldPtr(desc *classDescriptor, object value.Value, index int) value.Value {
	return g.fn.block.NewGetElementPtr(desc.typ, object,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, int64(index)))
}

// lookup finds the storage of name: function locals first, then fields of the current
// instance, then globals.
func (g *CodeGenerator) lookup(name string) (*binding, error) {
	b, scope, ok := g.scopes.Resolve(name)
	if ok && scope != RootScope {
		return b, nil
	}
	if g.instance != nil && g.fn != nil && g.fn.self != nil {
		if index, found := g.instance.index[name]; found {
			return &binding{slot: g.fieldPtr(g.instance, g.fn.self, index), typ: g.instance.fields[index].typ}, nil
		}
	}
	if ok {
		return b, nil
	}
	return nil, &NameError{Kind: VariableName, Name: name}
}

// assignTarget resolves the slot written by an assignment. Inside a constructor or
// method a field name always targets the field, even when a local shadows it.
func (g *CodeGenerator) assignTarget(name string) (*binding, error) {
	if g.instance != nil && g.fn != nil && g.fn.self != nil {
		if index, found := g.instance.index[name]; found {
			return &binding{slot: g.fieldPtr(g.instance, g.fn.self, index), typ: g.instance.fields[index].typ}, nil
		}
	}
	return g.lookup(name)
}

// declareIntrinsic returns the external function name, declaring it on first use.
func (g *CodeGenerator) declareIntrinsic(name string, retType types.Type, params ...*ir.Param) *ir.Func {
	if fn, ok := g.intrinsic[name]; ok {
		return fn
	}
	fn := g.module.NewFunc(name, retType, params...)
	g.intrinsic[name] = fn
	return fn
}

// stringConstant interns s as a private constant global and returns an i8* to its start.
func (g *CodeGenerator) stringConstant(s string) constant.Constant {
	if c, ok := g.strs[s]; ok {
		return c
	}
	data := constant.NewCharArrayFromString(s + "\x00")
	global := g.module.NewGlobalDef(fmt.Sprintf(".str.%d", len(g.strs)), data)
	global.Immutable = true
	global.Linkage = enum.LinkagePrivate
	zero := constant.NewInt(types.I32, 0)
	c := constant.NewGetElementPtr(data.Typ, global, zero, zero)
	g.strs[s] = c
	return c
}
