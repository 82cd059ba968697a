package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intLit(raw string, v int64) *IntegerLit { return &IntegerLit{Value: v, Raw: raw} }

func ident(name string) *Identifier { return &Identifier{Name: name} }

func parseExpr(t *testing.T, src string) Expr {
	program, err := Parse("x = " + src)
	require.NoError(t, err, src)
	require.Len(t, program.Stmts, 1)
	assignment, ok := program.Stmts[0].(*Assignment)
	require.True(t, ok, src)
	return assignment.Value
}

func TestParser_VarDefs(t *testing.T) {
	program, err := Parse("int a = 5\nint b = a + 3")
	require.NoError(t, err)
	expected := []Stmt{
		&VarDef{Type: NamedTypeRef("int"), Name: "a", Init: intLit("5", 5)},
		&VarDef{Type: NamedTypeRef("int"), Name: "b", Init: &BinOp{Op: "+", Left: ident("a"), Right: intLit("3", 3)}},
	}
	assert.Equal(t, expected, program.Stmts)
}

func TestParser_Precedence(t *testing.T) {
	testData := []struct {
		content  string
		expected Expr
	}{
		{"1 + 2 * 3", &BinOp{Op: "+", Left: intLit("1", 1), Right: &BinOp{Op: "*", Left: intLit("2", 2), Right: intLit("3", 3)}}},
		{"1 - 2 - 3", &BinOp{Op: "-", Left: &BinOp{Op: "-", Left: intLit("1", 1), Right: intLit("2", 2)}, Right: intLit("3", 3)}},
		{"2 ** 3 ** 2", &BinOp{Op: "**", Left: intLit("2", 2), Right: &BinOp{Op: "**", Left: intLit("3", 3), Right: intLit("2", 2)}}},
		{"a * b % c", &BinOp{Op: "*", Left: ident("a"), Right: &BinOp{Op: "%", Left: ident("b"), Right: ident("c")}}},
		{"a + 1 < b * 2", &Comparison{
			Op:    "<",
			Left:  &BinOp{Op: "+", Left: ident("a"), Right: intLit("1", 1)},
			Right: &BinOp{Op: "*", Left: ident("b"), Right: intLit("2", 2)},
		}},
		{"a == b || c", &Comparison{Op: "==", Left: ident("a"), Right: &Logical{Op: "||", Left: ident("b"), Right: ident("c")}}},
		{"(a + b) * c", &BinOp{Op: "*", Left: &BinOp{Op: "+", Left: ident("a"), Right: ident("b")}, Right: ident("c")}},
		{"-a * 2", &BinOp{Op: "*", Left: &Negation{X: ident("a")}, Right: intLit("2", 2)}},
		{"a > 1 ? a ! 0", &InlineCondition{
			Cond: &Comparison{Op: ">", Left: ident("a"), Right: intLit("1", 1)},
			Then: ident("a"),
			Else: intLit("0", 0),
		}},
		{"1 + 2 * 3 ** 2 - 4", &BinOp{
			Op: "-",
			Left: &BinOp{Op: "+", Left: intLit("1", 1), Right: &BinOp{
				Op: "*", Left: intLit("2", 2), Right: &BinOp{Op: "**", Left: intLit("3", 3), Right: intLit("2", 2)},
			}},
			Right: intLit("4", 4),
		}},
	}
	for _, testD := range testData {
		assert.Equal(t, testD.expected, parseExpr(t, testD.content), testD.content)
	}
}

func TestParser_Terms(t *testing.T) {
	testData := []struct {
		content  string
		expected Expr
	}{
		{"3.25", &DoubleLit{Value: 3.25, Raw: "3.25"}},
		{"False", &BooleanLit{Value: false}},
		{`"a\"b"`, &StringLit{Value: `a\"b`}},
		{`t"{x}"`, &TemplateString{Raw: "{x}"}},
		{"self.x", &MemberAccess{Object: &Self{}, Member: "x"}},
		{"f()", &FunCall{Name: "f"}},
		{"o.m(1).n", &MemberAccess{Object: &MethodCall{Object: ident("o"), Method: "m", Args: []Expr{intLit("1", 1)}}, Member: "n"}},
		{"[]", &ArrayLiteral{}},
		{"[1, 2]", &ArrayLiteral{Elements: []Expr{intLit("1", 1), intLit("2", 2)}}},
		{"[1...10]", &ArrayRange{Start: intLit("1", 1), End: intLit("10", 10)}},
		{"[x * 2 for int x in xs when x > 1]", &ArrayComprehension{
			Expr:    &BinOp{Op: "*", Left: ident("x"), Right: intLit("2", 2)},
			Binding: &Param{Type: NamedTypeRef("int"), Name: "x"},
			Source:  ident("xs"),
			Guard:   &Comparison{Op: ">", Left: ident("x"), Right: intLit("1", 1)},
		}},
		{`{"a": 1, **rest}`, &ObjectLiteral{Entries: []*ObjectEntry{
			{Key: &StringLit{Value: "a"}, Value: intLit("1", 1)},
			{Unpack: "rest"},
		}}},
		{"int a, int b => a + b", &Lambda{
			Params: []*Param{{Type: NamedTypeRef("int"), Name: "a"}, {Type: NamedTypeRef("int"), Name: "b"}},
			Body:   &BinOp{Op: "+", Left: ident("a"), Right: ident("b")},
		}},
	}
	for _, testD := range testData {
		assert.Equal(t, testD.expected, parseExpr(t, testD.content), testD.content)
	}
}

func TestParser_Types(t *testing.T) {
	testData := []struct {
		content  string
		expected string
	}{
		{"int a", "int"},
		{"P p", "P"},
		{"int[] xs", "int[]"},
		{"double[][] grid", "double[][]"},
		{"{str k: int} m", "{str: int}"},
		{"{int i: P[]} m", "{int: P[]}"},
	}
	for _, testD := range testData {
		program, err := Parse(testD.content)
		require.NoError(t, err, testD.content)
		varDef, ok := program.Stmts[0].(*VarDef)
		require.True(t, ok, testD.content)
		assert.Equal(t, testD.expected, varDef.Type.String())
		assert.Nil(t, varDef.Init)
	}
}

func TestParser_Class(t *testing.T) {
	src := "@entity\n" +
		"class P extends Base:\n" +
		"    int x = 0\n" +
		"    P(int x0):\n" +
		"        x = x0\n" +
		"    int get_x():\n" +
		"        return P(1).x\n"
	program, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, program.Stmts, 1)
	class, ok := program.Stmts[0].(*ClassDef)
	require.True(t, ok)
	assert.Equal(t, "P", class.Name)
	assert.Equal(t, "Base", class.Base)
	assert.Equal(t, []*Decorator{{Name: "entity"}}, class.Decorators)
	require.Len(t, class.Body, 3)
	ctor, ok := class.Body[1].(*CtorDef)
	require.True(t, ok)
	assert.Equal(t, "P", ctor.Class)
	assert.Equal(t, []*Param{{Type: NamedTypeRef("int"), Name: "x0"}}, ctor.Params)
	method, ok := class.Body[2].(*FunDef)
	require.True(t, ok)
	assert.Empty(t, method.Params)
	// Inside a method a call to the class constructs it.
	ret := method.Body[0].(*Return)
	assert.Equal(t, &MemberAccess{Object: &FunCall{Name: "P", Args: []Expr{intLit("1", 1)}}, Member: "x"}, ret.Value)
}

func TestParser_Compound(t *testing.T) {
	src := "when a:\n    pass\nwhen b:\n    skip\notherwise:\n    escape\n" +
		"for int i in xs:\n    total += i\n" +
		"switch c:\n    case 1:\n        pass\n    case Color.Red:\n        pass\n" +
		"try:\n    f()\nexcept Error:\n    pass\nexcept:\n    pass\n"
	program, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, program.Stmts, 4)

	chain := program.Stmts[0].(*WhenChain)
	assert.Len(t, chain.Whens, 2)
	assert.Equal(t, []Stmt{&Keyword{Word: "escape"}}, chain.Otherwise.Body)

	loop := program.Stmts[1].(*For)
	assert.Equal(t, &Param{Type: NamedTypeRef("int"), Name: "i"}, loop.Binding)
	assert.Equal(t, []Stmt{&Assignment{Op: "+=", Target: "total", Value: ident("i")}}, loop.Body)

	switchStmt := program.Stmts[2].(*Switch)
	require.Len(t, switchStmt.Cases, 2)
	assert.Equal(t, &MemberAccess{Object: ident("Color"), Member: "Red"}, switchStmt.Cases[1].Value)

	tryStmt := program.Stmts[3].(*Try)
	require.Len(t, tryStmt.Excepts, 2)
	assert.Equal(t, "Error", tryStmt.Excepts[0].Name)
	assert.Equal(t, "", tryStmt.Excepts[1].Name)
}

func TestParser_SimpleStatements(t *testing.T) {
	program, err := Parse("enum Color { Red, Green }\nimport \"std\".\"io\"\nreturn\nlog(1)\nx **= 2")
	require.NoError(t, err)
	expected := []Stmt{
		&EnumDef{Name: "Color", Members: []string{"Red", "Green"}},
		&Import{Path: []string{"std", "io"}},
		&Return{},
		&ExprStmt{X: &FunCall{Name: "log", Args: []Expr{intLit("1", 1)}}},
		&Assignment{Op: "**=", Target: "x", Value: intLit("2", 2)},
	}
	assert.Equal(t, expected, program.Stmts)
}

func TestParser_FunDef(t *testing.T) {
	program, err := Parse("@route(\"/\")\n@cached\nvoid main():\n    pass\n")
	require.NoError(t, err)
	fn := program.Stmts[0].(*FunDef)
	assert.Equal(t, "main", fn.Name)
	assert.Nil(t, fn.Params)
	assert.Equal(t, []*Decorator{
		{Name: "route", HasArgs: true, Args: []Expr{&StringLit{Value: "/"}}},
		{Name: "cached"},
	}, fn.Decorators)
}

func TestParser_Errors(t *testing.T) {
	testData := []struct {
		content string
		message string
	}{
		{"", "syntax error at end of input: expected a statement"},
		{"int f():\n", "syntax error at end of input"},
		{"int a = ", "syntax error near 'NEWLINE' at line 1, column 9: expected an expression"},
		{"x = (1 + 2", "syntax error near 'NEWLINE' at line 1, column 11"},
		{"int a = 1 2", "syntax error near '2' at line 1, column 11: expected end of line"},
		{"switch x:\n    pass\n", "syntax error near 'pass' at line 2, column 5"},
		{"try:\n    pass\n", "syntax error at end of input: try needs at least one except block"},
		{"@d\nint a = 1", "syntax error near '=' at line 2, column 7: decorators must precede a function or class"},
		{"int a = 1 $", "Illegal character '$' on line 1, column 11"},
	}
	for _, testD := range testData {
		_, err := Parse(testD.content)
		require.Error(t, err, testD.content)
		assert.Contains(t, err.Error(), testD.message, testD.content)
	}
	_, err := Parse("a = )")
	var syntaxErr *SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 1, syntaxErr.Line)
}

func TestParser_Reuse(t *testing.T) {
	parser := NewParser("int a = 1")
	first, err := parser.ParseProgram()
	require.NoError(t, err)
	parser.reset("int a = 1")
	second, err := parser.ParseProgram()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
