package internal

import "fmt"

// LexicalError is returned by the tokenizer for an illegal character, a broken string literal
// or an inconsistent dedent.
type LexicalError struct {
	Char   string
	Line   int
	Column int
	Msg    string
}

func (e *LexicalError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s on line %d, column %d", e.Msg, e.Line, e.Column)
	}
	return fmt.Sprintf("Illegal character '%s' on line %d, column %d", e.Char, e.Line, e.Column)
}

// SyntaxError points at the first token the grammar could not reduce. A nil token position
// (Line == 0) means the input ended early.
type SyntaxError struct {
	Near   string
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	msg := ""
	if e.Msg != "" {
		msg = ": " + e.Msg
	}
	if e.Line == 0 {
		return "syntax error at end of input" + msg
	}
	return fmt.Sprintf("syntax error near '%s' at line %d, column %d%s", e.Near, e.Line, e.Column, msg)
}

type NameKind string

const (
	VariableName NameKind = "variable"
	FunctionName NameKind = "function"
	FieldName    NameKind = "field"
	MethodName   NameKind = "method"
	MemberName   NameKind = "member"
	TypeName     NameKind = "type"
)

// NameError reports a reference to something no enclosing scope declares.
type NameError struct {
	Kind NameKind
	Name string
}

func (e *NameError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = VariableName
	}
	return fmt.Sprintf("Undefined %s '%s'", kind, e.Name)
}

// TypeMismatchError reports a value of kind Got flowing into a slot declared as Want.
type TypeMismatchError struct {
	Name string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("Type mismatch: cannot assign %s to %s (%s)", e.Got, e.Want, e.Name)
}

// LoweringError is returned by the code generator for constructs it cannot express in IR.
type LoweringError struct {
	Msg string
}

func (e *LoweringError) Error() string {
	return "lowering: " + e.Msg
}

func makeLoweringError(format string, args ...interface{}) error {
	return &LoweringError{Msg: fmt.Sprintf(format, args...)}
}
