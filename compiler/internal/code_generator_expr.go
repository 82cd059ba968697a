package internal

import (
	"fmt"
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

var intPredicates = map[string]enum.IPred{
	"==": enum.IPredEQ,
	"!=": enum.IPredNE,
	"<":  enum.IPredSLT,
	"<=": enum.IPredSLE,
	">":  enum.IPredSGT,
	">=": enum.IPredSGE,
}

var floatPredicates = map[string]enum.FPred{
	"==": enum.FPredOEQ,
	"!=": enum.FPredONE,
	"<":  enum.FPredOLT,
	"<=": enum.FPredOLE,
	">":  enum.FPredOGT,
	">=": enum.FPredOGE,
}

func (g *CodeGenerator) VisitIntegerLit(e *IntegerLit) (value.Value, error) {
	return intConstant(e.Value)
}

func intConstant(v int64) (value.Value, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return nil, makeLoweringError("integer literal %d does not fit in i32", v)
	}
	return constant.NewInt(types.I32, v), nil
}

func (g *CodeGenerator) VisitDoubleLit(e *DoubleLit) (value.Value, error) {
	return constant.NewFloat(types.Double, e.Value), nil
}

func (g *CodeGenerator) VisitBooleanLit(e *BooleanLit) (value.Value, error) {
	return constant.NewBool(e.Value), nil
}

func (g *CodeGenerator) VisitStringLit(e *StringLit) (value.Value, error) {
	return g.stringConstant(e.Value), nil
}

// Template strings are not interpolated, the raw text is emitted as is.
func (g *CodeGenerator) VisitTemplateString(e *TemplateString) (value.Value, error) {
	return g.stringConstant(e.Raw), nil
}

func (g *CodeGenerator) VisitIdentifier(e *Identifier) (value.Value, error) {
	b, err := g.lookup(e.Name)
	if err != nil {
		return nil, err
	}
	if b.fn != nil {
		return b.fn, nil
	}
	return g.fn.block.NewLoad(b.typ, b.slot), nil
}

func (g *CodeGenerator) VisitSelf(e *Self) (value.Value, error) {
	if g.fn == nil || g.fn.self == nil {
		return nil, &NameError{Kind: VariableName, Name: "self"}
	}
	return g.fn.self, nil
}

func (g *CodeGenerator) VisitBinOp(e *BinOp) (value.Value, error) {
	left, err := g.lowerExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := g.lowerExpr(e.Right)
	if err != nil {
		return nil, err
	}
	return g.arith(e.Op, left, right)
}

// arith applies an arithmetic operator. Two ints stay int, anything else is computed in
// double. "**" always goes through llvm.pow.f64 and is truncated back for int operands.
func (g *CodeGenerator) arith(op string, left, right value.Value) (value.Value, error) {
	lt, rt := left.Type(), right.Type()
	if !isNumeric(lt) || !isNumeric(rt) {
		return nil, makeLoweringError("operator %s needs numeric operands, got %s and %s", op, lt, rt)
	}
	block := g.fn.block
	bothInt := isInt(lt) && isInt(rt)
	if bothInt && op != "**" {
		switch op {
		case "+":
			return block.NewAdd(left, right), nil
		case "-":
			return block.NewSub(left, right), nil
		case "*":
			return block.NewMul(left, right), nil
		case "/":
			return block.NewSDiv(left, right), nil
		case "%":
			return block.NewSRem(left, right), nil
		}
		return nil, makeLoweringError("unknown operator %s", op)
	}
	x, err := g.coerce(left, types.Double)
	if err != nil {
		return nil, err
	}
	y, err := g.coerce(right, types.Double)
	if err != nil {
		return nil, err
	}
	switch op {
	case "+":
		return block.NewFAdd(x, y), nil
	case "-":
		return block.NewFSub(x, y), nil
	case "*":
		return block.NewFMul(x, y), nil
	case "/":
		return block.NewFDiv(x, y), nil
	case "%":
		return block.NewFRem(x, y), nil
	case "**":
		pow := g.declareIntrinsic("llvm.pow.f64", types.Double,
			ir.NewParam("x", types.Double), ir.NewParam("y", types.Double))
		result := block.NewCall(pow, x, y)
		if bothInt {
			return block.NewFPToSI(result, types.I32), nil
		}
		return result, nil
	}
	return nil, makeLoweringError("unknown operator %s", op)
}

func (g *CodeGenerator) VisitComparison(e *Comparison) (value.Value, error) {
	left, err := g.lowerExpr(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := g.lowerExpr(e.Right)
	if err != nil {
		return nil, err
	}
	block := g.fn.block
	lt, rt := left.Type(), right.Type()
	equality := e.Op == "==" || e.Op == "!="
	switch {
	case isInt(lt) && isInt(rt):
		return block.NewICmp(intPredicates[e.Op], left, right), nil
	case isNumeric(lt) && isNumeric(rt):
		x, err := g.coerce(left, types.Double)
		if err != nil {
			return nil, err
		}
		y, err := g.coerce(right, types.Double)
		if err != nil {
			return nil, err
		}
		return block.NewFCmp(floatPredicates[e.Op], x, y), nil
	case equality && lt.Equal(rt):
		switch lt.(type) {
		case *types.IntType, *types.PointerType:
			return block.NewICmp(intPredicates[e.Op], left, right), nil
		}
	}
	return nil, makeLoweringError("cannot compare %s and %s with %s", lt, rt, e.Op)
}

// VisitLogical evaluates both operands, there is no short circuit.
func (g *CodeGenerator) VisitLogical(e *Logical) (value.Value, error) {
	left, err := g.lowerCond(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := g.lowerCond(e.Right)
	if err != nil {
		return nil, err
	}
	if e.Op == "&&" {
		return g.fn.block.NewAnd(left, right), nil
	}
	return g.fn.block.NewOr(left, right), nil
}

// lowerCond lowers e and compares it against zero unless it already is an i1.
func (g *CodeGenerator) lowerCond(e Expr) (value.Value, error) {
	v, err := g.lowerExpr(e)
	if err != nil {
		return nil, err
	}
	block := g.fn.block
	switch t := v.Type().(type) {
	case *types.IntType:
		if t.BitSize == 1 {
			return v, nil
		}
		return block.NewICmp(enum.IPredNE, v, constant.NewInt(t, 0)), nil
	case *types.FloatType:
		return block.NewFCmp(enum.FPredONE, v, constant.NewFloat(t, 0)), nil
	case *types.PointerType:
		return block.NewICmp(enum.IPredNE, v, constant.NewNull(t)), nil
	}
	return nil, makeLoweringError("cannot use %s value as a condition", v.Type())
}

func (g *CodeGenerator) VisitNegation(e *Negation) (value.Value, error) {
	if lit, ok := e.X.(*IntegerLit); ok {
		return intConstant(-lit.Value)
	}
	v, err := g.lowerExpr(e.X)
	if err != nil {
		return nil, err
	}
	switch {
	case isInt(v.Type()):
		if c, ok := v.(*constant.Int); ok {
			return constant.NewInt(types.I32, -c.X.Int64()), nil
		}
		return g.fn.block.NewSub(constant.NewInt(types.I32, 0), v), nil
	case isDouble(v.Type()):
		return g.fn.block.NewFSub(constant.NewFloat(types.Double, math.Copysign(0, -1)), v), nil
	}
	return nil, makeLoweringError("cannot negate %s value", v.Type())
}

// VisitInlineCondition evaluates both arms and selects one. An int arm is widened when
// the other arm is a double.
func (g *CodeGenerator) VisitInlineCondition(e *InlineCondition) (value.Value, error) {
	cond, err := g.lowerCond(e.Cond)
	if err != nil {
		return nil, err
	}
	then, err := g.lowerExpr(e.Then)
	if err != nil {
		return nil, err
	}
	otherwise, err := g.lowerExpr(e.Else)
	if err != nil {
		return nil, err
	}
	if !then.Type().Equal(otherwise.Type()) {
		if !isNumeric(then.Type()) || !isNumeric(otherwise.Type()) {
			return nil, makeLoweringError("inline condition arms have types %s and %s", then.Type(), otherwise.Type())
		}
		if then, err = g.coerce(then, types.Double); err != nil {
			return nil, err
		}
		if otherwise, err = g.coerce(otherwise, types.Double); err != nil {
			return nil, err
		}
	}
	return g.fn.block.NewSelect(cond, then, otherwise), nil
}

// VisitFunCall resolves name in order: a local lambda, a method of the current instance,
// a free function, a class constructor, then a global lambda.
func (g *CodeGenerator) VisitFunCall(e *FunCall) (value.Value, error) {
	b, scope, bound := g.scopes.Resolve(e.Name)
	if bound && scope != RootScope && b.fn != nil {
		return g.call(b.fn, e.Args, nil)
	}
	if g.instance != nil && g.fn.self != nil {
		if method, ok := g.instance.methods[e.Name]; ok {
			return g.call(method, e.Args, g.fn.self)
		}
	}
	if fn, ok := g.functions[e.Name]; ok {
		return g.call(fn, e.Args, nil)
	}
	if desc, ok := g.classes[e.Name]; ok {
		return g.construct(desc, e.Args)
	}
	if bound && b.fn != nil {
		return g.call(b.fn, e.Args, nil)
	}
	return nil, makeLoweringError("unknown function '%s'", e.Name)
}

// call passes args to fn after the optional instance, widening them to the parameter types.
func (g *CodeGenerator) call(fn *ir.Func, args []Expr, self value.Value) (value.Value, error) {
	params := fn.Params
	var values []value.Value
	if self != nil {
		params = params[1:]
		values = append(values, self)
	}
	if len(args) != len(params) {
		return nil, makeLoweringError("function '%s' takes %d arguments, got %d", fn.Name(), len(params), len(args))
	}
	for i, arg := range args {
		v, err := g.lowerInit(arg, params[i].Type())
		if err != nil {
			return nil, err
		}
		v, err = g.coerce(v, params[i].Type())
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return g.fn.block.NewCall(fn, values...), nil
}

// construct allocates an instance on the heap and runs the class constructor on it. The
// size comes from the usual "getelementptr null, 1" idiom.
func (g *CodeGenerator) construct(desc *classDescriptor, args []Expr) (value.Value, error) {
	malloc := g.declareIntrinsic("malloc", types.I8Ptr, ir.NewParam("size", types.I64))
	end := constant.NewGetElementPtr(desc.typ, constant.NewNull(desc.ptr), constant.NewInt(types.I32, 1))
	size := constant.NewPtrToInt(end, types.I64)
	raw := g.fn.block.NewCall(malloc, size)
	object := g.fn.block.NewBitCast(raw, desc.ptr)
	if _, err := g.call(desc.ctor, args, object); err != nil {
		return nil, err
	}
	return object, nil
}

func (g *CodeGenerator) VisitMemberAccess(e *MemberAccess) (value.Value, error) {
	if ident, ok := e.Object.(*Identifier); ok {
		if members, ok := g.enums[ident.Name]; ok {
			index, found := members[e.Member]
			if !found {
				return nil, &NameError{Kind: MemberName, Name: ident.Name + "." + e.Member}
			}
			return constant.NewInt(types.I32, index), nil
		}
	}
	object, err := g.lowerExpr(e.Object)
	if err != nil {
		return nil, err
	}
	desc := g.classOf(object)
	if desc == nil {
		return nil, makeLoweringError("cannot read '%s' of %s value", e.Member, object.Type())
	}
	index, ok := desc.index[e.Member]
	if !ok {
		return nil, &NameError{Kind: FieldName, Name: desc.name + "." + e.Member}
	}
	return g.fn.block.NewLoad(desc.fields[index].typ, g.fieldPtr(desc, object, index)), nil
}

func (g *CodeGenerator) VisitMethodCall(e *MethodCall) (value.Value, error) {
	object, err := g.lowerExpr(e.Object)
	if err != nil {
		return nil, err
	}
	desc := g.classOf(object)
	if desc == nil {
		return nil, makeLoweringError("cannot call '%s' on %s value", e.Method, object.Type())
	}
	method, ok := desc.methods[e.Method]
	if !ok {
		return nil, &NameError{Kind: MethodName, Name: desc.name + "." + e.Method}
	}
	return g.call(method, e.Args, object)
}

func (g *CodeGenerator) VisitLambda(e *Lambda) (value.Value, error) {
	return g.lowerLambda(e, nil)
}

// lowerLambda emits e as a module level function lambda.N. Without a declared return type
// the signature takes the type of the body. A lambda sees globals and its own parameters.
func (g *CodeGenerator) lowerLambda(e *Lambda, retType types.Type) (*ir.Func, error) {
	name := fmt.Sprintf("lambda.%d", g.lambdas)
	g.lambdas++
	declared := retType
	if declared == nil {
		declared = types.Void
	}
	fn, err := g.newFunc(name, declared, nil, e.Params)
	if err != nil {
		return nil, err
	}
	outer := g.instance
	g.instance = nil
	defer func() { g.instance = outer }()
	err = g.withFunc(fn, nil, e.Params, func() error {
		v, err := g.lowerExpr(e.Body)
		if err != nil {
			return err
		}
		if retType == nil {
			fn.Sig.RetType = v.Type()
			g.fn.retType = v.Type()
		} else if v, err = g.coerce(v, retType); err != nil {
			return err
		}
		if _, void := g.fn.retType.(*types.VoidType); void {
			g.fn.block.NewRet(nil)
			return nil
		}
		g.fn.block.NewRet(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fn, nil
}

func (g *CodeGenerator) VisitArrayLiteral(e *ArrayLiteral) (value.Value, error) {
	return g.lowerArrayLiteral(e, nil)
}

// lowerArrayLiteral builds a fixed-size array. The element type is elem when given,
// otherwise the type of the elements with int widened to double when they are mixed.
// Constant elements give a constant array, anything else is filled in with insertvalue.
func (g *CodeGenerator) lowerArrayLiteral(e *ArrayLiteral, elem types.Type) (value.Value, error) {
	values := make([]value.Value, 0, len(e.Elements))
	for _, element := range e.Elements {
		v, err := g.lowerExpr(element)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if elem == nil {
		if len(values) == 0 {
			return nil, makeLoweringError("cannot infer the element type of an empty array")
		}
		elem = values[0].Type()
		for _, v := range values[1:] {
			if !v.Type().Equal(elem) && isNumeric(v.Type()) && isNumeric(elem) {
				elem = types.Double
			}
		}
	}
	at := types.NewArray(uint64(len(values)), elem)
	constants := make([]constant.Constant, 0, len(values))
	for i, v := range values {
		v, err := g.coerce(v, elem)
		if err != nil {
			return nil, err
		}
		values[i] = v
		if c, ok := v.(constant.Constant); ok {
			constants = append(constants, c)
		}
	}
	if len(constants) == len(values) {
		return constant.NewArray(at, constants...), nil
	}
	var aggregate value.Value = constant.NewZeroInitializer(at)
	for i, v := range values {
		aggregate = g.fn.block.NewInsertValue(aggregate, v, uint64(i))
	}
	return aggregate, nil
}

func (g *CodeGenerator) VisitArrayRange(e *ArrayRange) (value.Value, error) {
	start, end, err := rangeBounds(e)
	if err != nil {
		return nil, err
	}
	elems := make([]constant.Constant, 0, end-start)
	for i := start; i < end; i++ {
		elems = append(elems, constant.NewInt(types.I32, i))
	}
	return constant.NewArray(types.NewArray(uint64(len(elems)), types.I32), elems...), nil
}

func (g *CodeGenerator) VisitArrayComprehension(e *ArrayComprehension) (value.Value, error) {
	return nil, makeLoweringError("array comprehensions are not supported")
}

func (g *CodeGenerator) VisitObjectLiteral(e *ObjectLiteral) (value.Value, error) {
	return nil, makeLoweringError("object literals are not supported")
}
