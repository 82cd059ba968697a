package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, src string, table TypeTable) error {
	program, err := Parse(src)
	require.NoError(t, err, src)
	return NewAnalyzer(table).Analyze(program)
}

const pointClass = "class P:\n" +
	"    int x = 0\n" +
	"    P(int x0):\n" +
	"        x = x0\n" +
	"    int get():\n" +
	"        return self.x\n"

func TestAnalyzer_Accepts(t *testing.T) {
	testData := []string{
		"int a = 5\nint b = a + 3",
		"double d = 1\nd = d * 2.5",
		"str s = \"a\" + \"b\"",
		"enum Color { Red, Green }\nColor c = Color.Green",
		pointClass + "P p = P(1)\nint v = p.x + p.get()",
		"class Q:\n    int get():\n        return x\n    int x = 0",
		"int f(int a):\n    return a\nint r = f(2)",
		"int[] xs = [1, 2]\nfor int i in xs:\n    int j = i",
		"int twice = int x => x * 2",
		"int[] ys = [x * 2 for int x in [1...3] when x > 1]",
		"int a = 1\n{str k: int} m = {\"a\": a}",
		"int a = 1\nwhen a > 0:\n    a = 2\notherwise:\n    a = 3",
		"int a = 1\nswitch a:\n    case 1:\n        a += 1",
		"try:\n    int a = 1\nexcept Error:\n    pass",
		"int c = 1 > 2 ? 1 ! 2",
	}
	for _, src := range testData {
		assert.NoError(t, analyze(t, src, nil), src)
	}
}

func TestAnalyzer_NameErrors(t *testing.T) {
	testData := []struct {
		content  string
		expected *NameError
	}{
		{"int x = 1\nx = y", &NameError{Kind: VariableName, Name: "y"}},
		{"x = 1", &NameError{Kind: VariableName, Name: "x"}},
		{"int a = a", &NameError{Kind: VariableName, Name: "a"}},
		{"int f():\n    int a = 1\n    return a\nint b = a", &NameError{Kind: VariableName, Name: "a"}},
		{"int f():\n    return 1\nf = 2", &NameError{Kind: VariableName, Name: "f"}},
		{"f(1)", &NameError{Kind: FunctionName, Name: "f"}},
		{"enum Color { Red }\nColor c = Color.Blue", &NameError{Kind: MemberName, Name: "Color.Blue"}},
		{"enum Color { Red }\nColor()", &NameError{Kind: FunctionName, Name: "Color"}},
		{pointClass + "P p = P(1)\nint v = p.y", &NameError{Kind: FieldName, Name: "P.y"}},
		{pointClass + "P p = P(1)\nint v = p.get", &NameError{Kind: FieldName, Name: "P.get"}},
		{pointClass + "P p = P(1)\np.nope()", &NameError{Kind: MethodName, Name: "P.nope"}},
		{"int v = self.x", &NameError{Kind: VariableName, Name: "self"}},
		{"int bad = int x => y", &NameError{Kind: VariableName, Name: "y"}},
		{"int[] ys = [z for int x in [1...3]]", &NameError{Kind: VariableName, Name: "z"}},
		{"{str k: int} m = {**other}", &NameError{Kind: VariableName, Name: "other"}},
		{"for int i in xs:\n    pass", &NameError{Kind: VariableName, Name: "xs"}},
		{"when True:\n    int a = 1\nint b = a", &NameError{Kind: VariableName, Name: "a"}},
	}
	for _, testD := range testData {
		err := analyze(t, testD.content, nil)
		assert.Equal(t, testD.expected, err, testD.content)
	}
}

func TestAnalyzer_TypeMismatch(t *testing.T) {
	testData := []struct {
		content  string
		expected *TypeMismatchError
	}{
		{"int x = \"a\"", &TypeMismatchError{Name: "x", Want: "int", Got: "str"}},
		{"int i = 1.5", &TypeMismatchError{Name: "i", Want: "int", Got: "double"}},
		{"int x = 1\nx = True", &TypeMismatchError{Name: "x", Want: "int", Got: "bool"}},
		{"int f():\n    return 1\nstr s = f()", &TypeMismatchError{Name: "s", Want: "str", Got: "int"}},
		{"int[] xs = 3", &TypeMismatchError{Name: "xs", Want: "int[]", Got: "int"}},
		{pointClass + "P p = P(1)\nstr s = p.get()", &TypeMismatchError{Name: "s", Want: "str", Got: "int"}},
	}
	for _, testD := range testData {
		err := analyze(t, testD.content, nil)
		assert.Equal(t, testD.expected, err, testD.content)
	}
	assert.EqualError(t, analyze(t, "int x = \"a\"", nil), "Type mismatch: cannot assign str to int (x)")
}

type permissiveTable struct{}

func (permissiveTable) Accepts(string, string) bool { return true }

func TestAnalyzer_CustomTypeTable(t *testing.T) {
	assert.NoError(t, analyze(t, "int x = \"a\"", permissiveTable{}))
	// Name resolution does not depend on the table.
	assert.Error(t, analyze(t, "int x = y", permissiveTable{}))
}

func TestAnalyzer_Reuse(t *testing.T) {
	program, err := Parse("int a = 1")
	require.NoError(t, err)
	analyzer := NewAnalyzer(nil)
	require.NoError(t, analyzer.Analyze(program))
	require.NoError(t, analyzer.Analyze(program))
}
