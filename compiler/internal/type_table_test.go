package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultTypeTable_Accepts(t *testing.T) {
	testData := []struct {
		declared string
		inferred string
		accepted bool
	}{
		{"int", "int", true},
		{"int", "", true},
		{"int", "lambda", true},
		{"double", "int", true},
		{"int", "double", false},
		{"int", "str", false},
		{"str", "bool", false},
		{"P", "P", true},
		{"P", "Q", false},
		{"int[]", "array", true},
		{"int[]", "int", false},
		{"{str: int}", "object", true},
		{"{str: int}", "array", false},
	}
	table := DefaultTypeTable{}
	for _, testD := range testData {
		assert.Equal(t, testD.accepted, table.Accepts(testD.declared, testD.inferred), "%s <- %s", testD.declared, testD.inferred)
	}
}
