package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_Canonical(t *testing.T) {
	testData := []string{
		"int a = 5\nint b = a + 3\n",
		"x = (1 + 2) * 3\n",
		"y = 2 ** 3 ** 2\n",
		"y = (2 ** 3) ** 2\n",
		"z = a - (b - c)\n",
		"w = -(a + b) * -c\n",
		"int r = a > b ? a ! b\n",
		"double d = 3.50\n",
		"bool ok = True\n",
		"str s = \"a\\\"b\"\n",
		"str u = t\"hi {name}\"\n",
		"int[] xs = [1, 2, 3]\n",
		"int[] ys = [x * 2 for int x in xs when x > 1]\n",
		"int[] zs = [1...10]\n",
		"{str k: int} m = {\"a\": 1, **other}\n",
		"int twice = int x => x * 2\n",
		"o.m(1, f(2)).n\n",
		"enum Color { Red, Green, Blue }\n",
		"import \"std\".\"io\"\n",
		"@cached\n@route(\"/a\", 1)\nint f(int a, str b):\n    return a\n",
		"class P extends Base:\n    int x = 0\n    P(int x0):\n        x = x0\n    int get():\n        return self.x\n",
		"when a > 1:\n    pass\nwhen a < 0:\n    skip\notherwise:\n    escape\n",
		"for int i in [1...10]:\n    total += i\n",
		"switch c:\n    case Color.Red:\n        pass\n    case 2:\n        return\n",
		"try:\n    f()\nexcept Error:\n    pass\nexcept:\n    pass\n",
	}
	for _, src := range testData {
		program, err := Parse(src)
		require.NoError(t, err, src)
		assert.Equal(t, src, Format(program))
	}
}

// Non canonical spellings print differently but parse back to the same tree.
func TestFormat_RoundTrip(t *testing.T) {
	testData := []string{
		"x = ((a))",
		"x=1+2*3",
		"when (a):\n  x = 1\n\n\n  # note\n  y = 2",
		"int f( int a ,int b ):\n\treturn a+b",
		"r = a ? (b ? c ! d) ! e",
		"l = (int a => a) ? 1 ! 2",
	}
	for _, src := range testData {
		first, err := Parse(src)
		require.NoError(t, err, src)
		formatted := Format(first)
		second, err := Parse(formatted)
		require.NoError(t, err, formatted)
		assert.Equal(t, first, second, formatted)
		assert.Equal(t, formatted, Format(second))
	}
}

func TestFormatExpr_Literals(t *testing.T) {
	testData := []string{"42", "2.75", "False", "\"text\"", "[1, 2]", "[]"}
	for _, src := range testData {
		assert.Equal(t, src, FormatExpr(parseExpr(t, src)))
	}
}
