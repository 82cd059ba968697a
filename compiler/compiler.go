// Package compiler turns O source text into textual LLVM IR.
package compiler

import (
	"errors"
	"os"

	"github.com/int0x101/O/compiler/internal"
)

// Options configures one compilation. The zero value compiles for DefaultTriple with the
// analyzer enabled and no logging.
type Options = internal.Options

type Program = internal.Program

const DefaultTriple = internal.DefaultTriple

// Errors returned by Compile, one type per failing phase.
type (
	LexicalError      = internal.LexicalError
	SyntaxError       = internal.SyntaxError
	NameError         = internal.NameError
	TypeMismatchError = internal.TypeMismatchError
	LoweringError     = internal.LoweringError
)

// IsIncomplete reports whether err means the source ended in the middle of a statement,
// so appending more lines could make it valid.
func IsIncomplete(err error) bool {
	var syntaxErr *SyntaxError
	return errors.As(err, &syntaxErr) && syntaxErr.Line == 0
}

// Compile parses, checks and lowers src, returning the IR module as text.
func Compile(src string, options Options) (string, error) {
	return internal.Compile(src, options)
}

// CompileFile compiles the source file at path.
func CompileFile(path string, options Options) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if options.Logger != nil {
		options.Logger.Printf("compiler: read %s", path)
	}
	return internal.Compile(string(src), options)
}

// Parse returns the syntax tree of src without checking or lowering it.
func Parse(src string) (*Program, error) {
	return internal.Parse(src)
}

// Format prints program back as canonical source.
func Format(program *Program) string {
	return internal.Format(program)
}
