package internal

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// classDescriptor is the layout of one class: fields in declaration order, which fixes their
// element index, plus the mangled constructor and method functions.
type classDescriptor struct {
	name       string
	def        *ClassDef
	typ        *types.StructType
	ptr        *types.PointerType
	fields     []*classField
	index      map[string]int
	ctor       *ir.Func
	ctorDef    *CtorDef
	methods    map[string]*ir.Func
	methodDefs []*FunDef
}

type classField struct {
	name string
	decl *TypeRef
	typ  types.Type
	init Expr
}

func (desc *classDescriptor) mangle(member string) string {
	return desc.name + "_" + member
}

// binding is what the code generator binds a name to: a stack slot or global holding a
// value of type typ, or a lambda function.
type binding struct {
	slot value.Value
	typ  types.Type
	fn   *ir.Func
}

// irType maps a declared type to its IR type. Arrays need their initializer for the length,
// so they are sized by sizedType instead.
func (g *CodeGenerator) irType(t *TypeRef) (types.Type, error) {
	switch t.Kind {
	case ArrayType:
		return nil, makeLoweringError("array type %s needs an initializer to be sized", t)
	case ObjectType:
		return nil, makeLoweringError("unsupported type %s", t)
	}
	switch t.Name {
	case "int":
		return types.I32, nil
	case "double":
		return types.Double, nil
	case "bool":
		return types.I1, nil
	case "str":
		return types.I8Ptr, nil
	case "void":
		return types.Void, nil
	}
	if desc, ok := g.classes[t.Name]; ok {
		return desc.ptr, nil
	}
	if _, ok := g.enums[t.Name]; ok {
		return types.I32, nil
	}
	return nil, makeLoweringError("unsupported type %s", t)
}

// sizedType maps a declared type, taking array lengths from a literal initializer.
func (g *CodeGenerator) sizedType(t *TypeRef, init Expr) (types.Type, error) {
	if t.Kind != ArrayType {
		return g.irType(t)
	}
	elem, err := g.sizedType(t.Elem, nil)
	if err != nil {
		return nil, err
	}
	switch init := init.(type) {
	case *ArrayLiteral:
		return types.NewArray(uint64(len(init.Elements)), elem), nil
	case *ArrayRange:
		start, end, err := rangeBounds(init)
		if err != nil {
			return nil, err
		}
		return types.NewArray(uint64(end-start), elem), nil
	}
	return nil, makeLoweringError("array type %s needs an initializer to be sized", t)
}

// rangeBounds reads the literal bounds of [start...end]. An inverted range is empty.
func rangeBounds(e *ArrayRange) (int64, int64, error) {
	start, ok := integerLiteral(e.Start)
	if !ok {
		return 0, 0, makeLoweringError("range bounds must be integer literals")
	}
	end, ok := integerLiteral(e.End)
	if !ok {
		return 0, 0, makeLoweringError("range bounds must be integer literals")
	}
	if end < start {
		end = start
	}
	return start, end, nil
}

func integerLiteral(e Expr) (int64, bool) {
	switch e := e.(type) {
	case *IntegerLit:
		return e.Value, true
	case *Negation:
		v, ok := integerLiteral(e.X)
		return -v, ok
	}
	return 0, false
}

func zeroValue(t types.Type) constant.Constant {
	switch t := t.(type) {
	case *types.IntType:
		return constant.NewInt(t, 0)
	case *types.FloatType:
		return constant.NewFloat(t, 0)
	case *types.PointerType:
		return constant.NewNull(t)
	}
	return constant.NewZeroInitializer(t)
}

func isInt(t types.Type) bool {
	it, ok := t.(*types.IntType)
	return ok && it.BitSize > 1
}

func isBool(t types.Type) bool {
	it, ok := t.(*types.IntType)
	return ok && it.BitSize == 1
}

func isDouble(t types.Type) bool {
	_, ok := t.(*types.FloatType)
	return ok
}

func isNumeric(t types.Type) bool {
	return isInt(t) || isDouble(t)
}

// classOf returns the class a value points to, if it is an instance pointer.
func (g *CodeGenerator) classOf(v value.Value) *classDescriptor {
	ptr, ok := v.Type().(*types.PointerType)
	if !ok {
		return nil
	}
	st, ok := ptr.ElemType.(*types.StructType)
	if !ok {
		return nil
	}
	return g.classes[st.Name()]
}

// coerce converts v to type to where the language allows it implicitly: int into double.
func (g *CodeGenerator) coerce(v value.Value, to types.Type) (value.Value, error) {
	from := v.Type()
	if from.Equal(to) {
		return v, nil
	}
	if isInt(from) && isDouble(to) {
		if c, ok := v.(*constant.Int); ok {
			return constant.NewFloat(to.(*types.FloatType), float64(c.X.Int64())), nil
		}
		return g.fn.block.NewSIToFP(v, to), nil
	}
	if _, ok := v.(*constant.Null); ok {
		if ptr, ok := to.(*types.PointerType); ok {
			return constant.NewNull(ptr), nil
		}
	}
	return nil, makeLoweringError("cannot use %s value as %s", from, to)
}
