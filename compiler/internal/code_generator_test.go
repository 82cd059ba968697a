package internal

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, src string) (string, error) {
	program, err := Parse(src)
	require.NoError(t, err, src)
	return NewCodeGenerator(CodeGenOptions{}).Generate(program)
}

func mustGenerate(t *testing.T, src string) string {
	ir, err := generate(t, src)
	require.NoError(t, err, src)
	return ir
}

func assertInOrder(t *testing.T, ir string, fragments ...string) {
	rest := ir
	for _, fragment := range fragments {
		index := strings.Index(rest, fragment)
		if !assert.True(t, index >= 0, "missing %q in\n%s", fragment, ir) {
			return
		}
		rest = rest[index+len(fragment):]
	}
}

func TestCodeGenerator_Globals(t *testing.T) {
	ir := mustGenerate(t, "int a = 5\nint b = a + 3")
	assertInOrder(t, ir,
		`target triple = "x86_64-unknown-linux-gnu"`,
		"@a = global i32 0",
		"@b = global i32 0",
		"define i32 @main() {",
		"store i32 5, i32* @a",
	)
	add := regexp.MustCompile(`(%\d+) = load i32, i32\* @a\s+(%\d+) = add i32 (%\d+), 3\s+store i32 (%\d+), i32\* @b`)
	match := add.FindStringSubmatch(ir)
	require.NotNil(t, match, ir)
	assert.Equal(t, match[1], match[3])
	assert.Equal(t, match[2], match[4])
	assert.Contains(t, ir, "ret i32 0")
}

func TestCodeGenerator_Switch(t *testing.T) {
	src := "int x = 1\nswitch x:\n case 1:\n  return 0\n case 2:\n  return 1"
	ir := mustGenerate(t, src)
	assert.Equal(t, 1, strings.Count(ir, "switch i32"))
	assert.Equal(t, 2, strings.Count(ir, "label %switch.case."))
	assert.Contains(t, ir, "i32 1, label %switch.case.0")
	assert.Contains(t, ir, "i32 2, label %switch.case.1")
	assert.Contains(t, ir, "label %switch.default.0")
	assert.Contains(t, ir, "\nswitch.default.0:")

	_, err := generate(t, "int x = 1\nswitch x:\n case 1:\n  return 0\n case 1:\n  return 1")
	var loweringErr *LoweringError
	require.ErrorAs(t, err, &loweringErr)
	assert.Equal(t, "duplicate case value 1", loweringErr.Msg)
}

func TestCodeGenerator_SwitchCases(t *testing.T) {
	testData := []struct {
		content string
		message string
	}{
		{"double d = 1.5\nswitch d:\n    case 1:\n        pass", "lowering: switch needs an integer or enum subject, got double"},
		{"int x = 1\nint y = 2\nswitch x:\n    case y:\n        pass", "lowering: case values must be integer or enum constants"},
		{"enum Color { Red }\nColor c = Color.Red\nswitch c:\n    case Color.Blue:\n        pass", "Undefined member 'Color.Blue'"},
	}
	for _, testD := range testData {
		_, err := generate(t, testD.content)
		assert.EqualError(t, err, testD.message, testD.content)
	}

	ir := mustGenerate(t, "enum Color { Red, Green }\nColor c = Color.Green\nswitch c:\n    case Color.Red:\n        c = Color.Green\n    case Color.Green:\n        pass")
	assert.Contains(t, ir, "i32 0, label %switch.case.0")
	assert.Contains(t, ir, "i32 1, label %switch.case.1")
}

func TestCodeGenerator_ClassLayout(t *testing.T) {
	ir := mustGenerate(t, "class P:\n int x = 0\n int get_x():\n  return x")
	assertInOrder(t, ir,
		"%P = type { i32 }",
		"define void @P_ctor(%P* %self) {",
		"store i32 0, i32*",
		"define i32 @P_get_x(%P* %self) {",
		"getelementptr %P, %P* %self, i32 0, i32 0",
		"load i32, i32*",
		"ret i32",
	)
	// Only declarations, so there is no implicit main.
	assert.NotContains(t, ir, "@main")
}

func TestCodeGenerator_Objects(t *testing.T) {
	src := "class Point:\n" +
		"    int x\n" +
		"    double y = 1.5\n" +
		"    Point(int a):\n" +
		"        x = a\n" +
		"    int sum(int d):\n" +
		"        return x + d\n" +
		"    int twice():\n" +
		"        return sum(x)\n" +
		"Point p = Point(2)\n" +
		"int s = p.sum(3) + p.x\n"
	ir := mustGenerate(t, src)
	assertInOrder(t, ir,
		"%Point = type { i32, double }",
		"@p = global %Point* null",
		"define void @Point_ctor(%Point* %self, i32 %a) {",
		"store double",
		"define i32 @Point_sum(%Point* %self, i32 %d) {",
		"define i32 @Point_twice(%Point* %self) {",
		"call i32 @Point_sum(%Point* %self,",
		"define i32 @main() {",
		"call i8* @malloc(i64 ptrtoint",
		"bitcast i8*",
		"call void @Point_ctor(%Point*",
		"call i32 @Point_sum(%Point*",
		"declare i8* @malloc(i64",
	)
}

func TestCodeGenerator_FieldShadowedByParam(t *testing.T) {
	ir := mustGenerate(t, "class Point:\n    int x\n    Point(int x):\n        x = x\nPoint p = Point(7)")
	store := regexp.MustCompile(`(%\d+) = getelementptr %Point, %Point\* %self, i32 0, i32 0\s+(%\d+) = load i32, i32\* %x\.addr\s+store i32 (%\d+), i32\* (%\d+)`)
	match := store.FindStringSubmatch(ir)
	require.NotNil(t, match, ir)
	assert.Equal(t, match[2], match[3])
	assert.Equal(t, match[1], match[4])
	assert.NotRegexp(t, `store i32 %\d+, i32\* %x\.addr`, ir)

	// Reads still see the local first.
	ir = mustGenerate(t, "class Q:\n    int x = 1\n    int get(int x):\n        return x")
	assertInOrder(t, ir, "define i32 @Q_get(%Q* %self, i32 %x) {", "load i32, i32* %x.addr", "ret i32")
}

func TestCodeGenerator_IntegerRange(t *testing.T) {
	ir := mustGenerate(t, "int a = 2147483647\nint b = -2147483648")
	assert.Contains(t, ir, "store i32 2147483647, i32* @a")
	assert.Contains(t, ir, "store i32 -2147483648, i32* @b")
}

func TestCodeGenerator_EmptyParams(t *testing.T) {
	ir := mustGenerate(t, "void f():\n    pass\nclass C:\n    void m():\n        pass\n")
	assert.Contains(t, ir, "define void @f() {")
	assert.Contains(t, ir, "define void @C_m(%C* %self) {")
	assert.Contains(t, ir, "define void @C_ctor(%C* %self) {")
}

func TestCodeGenerator_Idempotent(t *testing.T) {
	src := "class P:\n    int x = 0\n    int get():\n        return x\n" +
		"int twice = int a => a * 2\n" +
		"str s = \"hi\"\n" +
		"int total = 0\n" +
		"for int i in [1...4]:\n    total += twice(i)\n"
	program, err := Parse(src)
	require.NoError(t, err)
	first, err := NewCodeGenerator(CodeGenOptions{}).Generate(program)
	require.NoError(t, err)
	second, err := NewCodeGenerator(CodeGenOptions{}).Generate(program)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	generator := NewCodeGenerator(CodeGenOptions{Triple: "wasm32-unknown-unknown"})
	third, err := generator.Generate(program)
	require.NoError(t, err)
	fourth, err := generator.Generate(program)
	require.NoError(t, err)
	assert.Equal(t, third, fourth)
	assert.Contains(t, third, `target triple = "wasm32-unknown-unknown"`)
}

func TestCodeGenerator_ControlFlow(t *testing.T) {
	testData := []struct {
		content   string
		fragments []string
	}{
		{
			"int x = 3\nwhen x > 2:\n    x = 1\nwhen x < 0:\n    x = 2\notherwise:\n    x = 0",
			[]string{"icmp sgt i32", "when.then.0:", "br label %when.merge.0", "when.next.0:", "icmp slt i32", "when.then.1:", "otherwise.0:", "when.merge.0:"},
		},
		{
			"int total = 0\nfor int i in [1...4]:\n    when i == 2:\n        skip\n    when i == 3:\n        escape\n    total += i",
			[]string{"alloca [3 x i32]", "for.loop.0:", "br label %for.next.0", "br label %for.after.0", "for.next.0:", "add i32", "icmp slt i32", "for.after.0:"},
		},
		{
			"int f(int n):\n    int r = 0\n    when n > 0:\n        r = n\n    return r",
			[]string{"define i32 @f(i32 %n) {", "%n.addr = alloca i32", "%r = alloca i32", "store i32 %n, i32* %n.addr", "ret i32"},
		},
		{
			"try:\n    int a = 1\nexcept Error:\n    pass",
			[]string{"define i32 @main() {", "%a = alloca i32", "br label %try.end.0", "except.0:", "try.end.0:", "ret i32 0"},
		},
		{
			"bool b = (True && (1 < 2)) || False",
			[]string{"@b = global i1", "icmp slt i32 1, 2", "and i1", "or i1"},
		},
		{
			"int m = 1 > 2 ? 1 ! 2",
			[]string{"icmp sgt i32 1, 2", "select i1"},
		},
		{
			"double d = 7 % 2.5",
			[]string{"frem double"},
		},
		{
			"int n = -(3 + 4)",
			[]string{"add i32 3, 4", "sub i32 0,"},
		},
	}
	for _, testD := range testData {
		assertInOrder(t, mustGenerate(t, testD.content), testD.fragments...)
	}
}

func TestCodeGenerator_Functions(t *testing.T) {
	src := "int add(int a, int b):\n" +
		"    int inner(int c):\n" +
		"        return c * 2\n" +
		"    return inner(a) + b\n" +
		"double half = double x => x / 2\n" +
		"double h = half(3)\n" +
		"void noop():\n" +
		"    return\n"
	ir := mustGenerate(t, src)
	assert.Contains(t, ir, "define i32 @add(i32 %a, i32 %b) {")
	assert.Contains(t, ir, "define i32 @add.inner(i32 %c) {")
	assert.Contains(t, ir, "define double @lambda.0(double %x) {")
	assert.Contains(t, ir, "call double @lambda.0(double")
	assert.Contains(t, ir, "fdiv double")
	assert.Contains(t, ir, "define void @noop() {")

	ir = mustGenerate(t, "int outer():\n    int fact(int n):\n        when n < 2:\n            return 1\n        return n * fact(n - 1)\n    return fact(5)")
	assertInOrder(t, ir, "define i32 @outer() {", "call i32 @outer.fact(i32 5)", "define i32 @outer.fact(i32 %n) {", "call i32 @outer.fact(i32")

	ir = mustGenerate(t, "int k = 2\nvoid show():\n    str s = t\"k={k}\"\nshow()")
	assert.Contains(t, ir, `c"k={k}\00"`)
	assert.Contains(t, ir, "call void @show()")
}

func TestCodeGenerator_Errors(t *testing.T) {
	testData := []struct {
		content string
		message string
	}{
		{"skip", "lowering: 'skip' outside of a loop"},
		{"escape", "lowering: 'escape' outside of a loop"},
		{"g(1)", "lowering: unknown function 'g'"},
		{"int x = y", "Undefined variable 'y'"},
		{"int[] ys = [x for int x in [1...3]]", "lowering: array comprehensions are not supported"},
		{"{str k: int} m = {\"a\": 1}", "lowering: unsupported type {str: int}"},
		{"for int i in []:\n    pass", "lowering: cannot infer the element type of an empty array"},
		{"int main():\n    return 0\nint a = 1", "lowering: duplicate function 'main'"},
		{"int f():\n    return 0\nint f():\n    return 1", "lowering: duplicate function 'f'"},
		{"int f(int a):\n    return a\nint r = f()", "lowering: function 'f' takes 1 arguments, got 0"},
		{"void f():\n    return 1", "lowering: void function 'f' cannot return a value"},
		{"int g = int x => x\ng = 1", "lowering: cannot assign to function 'g'"},
		{"int a = 1\nint a = 2", "lowering: duplicate global 'a'"},
		{"int x = 1\nfor int i in x:\n    pass", "lowering: for needs a fixed-size array, got i32"},
		{"class P:\n    int x\nP p = P()\nint v = p.y", "Undefined field 'P.y'"},
		{"class P:\n    int x\nP p = P()\np.go()", "Undefined method 'P.go'"},
		{"int v = self.x", "Undefined variable 'self'"},
		{"class P:\n    int x\n    int x", "lowering: duplicate field 'x' in class 'P'"},
		{"void v", "lowering: variables cannot be void"},
		{"int n = 3\nfor int i in [0...n]:\n    pass", "lowering: range bounds must be integer literals"},
		{"Foo f", "lowering: unsupported type Foo"},
		{"y += 1", "Undefined variable 'y'"},
		{"int m = {\"a\": 1}", "lowering: object literals are not supported"},
		{"int a = 3000000000", "lowering: integer literal 3000000000 does not fit in i32"},
		{"int a = -2147483649", "lowering: integer literal -2147483649 does not fit in i32"},
	}
	for _, testD := range testData {
		_, err := generate(t, testD.content)
		assert.EqualError(t, err, testD.message, testD.content)
	}
}
