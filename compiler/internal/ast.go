package internal

import (
	"fmt"
	"strings"
)

// The O syntax tree. Nodes are built once by the parser and never mutated afterwards, and
// children never point back to their parents. Statements dispatch through StmtVisitor,
// expressions through ExprVisitor; both interfaces have one method per node so a phase
// that misses a node kind does not compile.

type Program struct {
	Stmts []Stmt
}

type Stmt interface {
	Accept(v StmtVisitor) error
	stmtNode()
}

type Expr interface {
	exprNode()
}

type StmtVisitor interface {
	VisitVarDef(s *VarDef) error
	VisitAssignment(s *Assignment) error
	VisitEnumDef(s *EnumDef) error
	VisitFunDef(s *FunDef) error
	VisitClassDef(s *ClassDef) error
	VisitCtorDef(s *CtorDef) error
	VisitWhenChain(s *WhenChain) error
	VisitFor(s *For) error
	VisitSwitch(s *Switch) error
	VisitTry(s *Try) error
	VisitReturn(s *Return) error
	VisitKeyword(s *Keyword) error
	VisitImport(s *Import) error
	VisitExprStmt(s *ExprStmt) error
}

type ExprVisitor[T any] interface {
	VisitIntegerLit(e *IntegerLit) (T, error)
	VisitDoubleLit(e *DoubleLit) (T, error)
	VisitBooleanLit(e *BooleanLit) (T, error)
	VisitStringLit(e *StringLit) (T, error)
	VisitTemplateString(e *TemplateString) (T, error)
	VisitIdentifier(e *Identifier) (T, error)
	VisitSelf(e *Self) (T, error)
	VisitBinOp(e *BinOp) (T, error)
	VisitComparison(e *Comparison) (T, error)
	VisitLogical(e *Logical) (T, error)
	VisitNegation(e *Negation) (T, error)
	VisitInlineCondition(e *InlineCondition) (T, error)
	VisitFunCall(e *FunCall) (T, error)
	VisitMemberAccess(e *MemberAccess) (T, error)
	VisitMethodCall(e *MethodCall) (T, error)
	VisitLambda(e *Lambda) (T, error)
	VisitArrayLiteral(e *ArrayLiteral) (T, error)
	VisitArrayRange(e *ArrayRange) (T, error)
	VisitArrayComprehension(e *ArrayComprehension) (T, error)
	VisitObjectLiteral(e *ObjectLiteral) (T, error)
}

// VisitExpr dispatches e to the matching method of v.
func VisitExpr[T any](v ExprVisitor[T], e Expr) (T, error) {
	switch e := e.(type) {
	case *IntegerLit:
		return v.VisitIntegerLit(e)
	case *DoubleLit:
		return v.VisitDoubleLit(e)
	case *BooleanLit:
		return v.VisitBooleanLit(e)
	case *StringLit:
		return v.VisitStringLit(e)
	case *TemplateString:
		return v.VisitTemplateString(e)
	case *Identifier:
		return v.VisitIdentifier(e)
	case *Self:
		return v.VisitSelf(e)
	case *BinOp:
		return v.VisitBinOp(e)
	case *Comparison:
		return v.VisitComparison(e)
	case *Logical:
		return v.VisitLogical(e)
	case *Negation:
		return v.VisitNegation(e)
	case *InlineCondition:
		return v.VisitInlineCondition(e)
	case *FunCall:
		return v.VisitFunCall(e)
	case *MemberAccess:
		return v.VisitMemberAccess(e)
	case *MethodCall:
		return v.VisitMethodCall(e)
	case *Lambda:
		return v.VisitLambda(e)
	case *ArrayLiteral:
		return v.VisitArrayLiteral(e)
	case *ArrayRange:
		return v.VisitArrayRange(e)
	case *ArrayComprehension:
		return v.VisitArrayComprehension(e)
	case *ObjectLiteral:
		return v.VisitObjectLiteral(e)
	}
	panic(fmt.Sprintf("unknown expression %T", e))
}

type TypeKind int

const (
	NamedType  TypeKind = iota // int, str, bool, double, void, or a class or enum name
	ArrayType                  // T[]
	ObjectType                 // {str key: T}
)

// TypeRef is a type as written in the source.
type TypeRef struct {
	Kind    TypeKind
	Name    string
	Elem    *TypeRef
	Key     string
	KeyName string
}

func NamedTypeRef(name string) *TypeRef {
	return &TypeRef{Kind: NamedType, Name: name}
}

// String returns the canonical spelling used by the analyzer: "int", "P", "int[]", "{str: int}".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case ArrayType:
		return t.Elem.String() + "[]"
	case ObjectType:
		return fmt.Sprintf("{%s: %s}", t.Key, t.Elem)
	}
	return t.Name
}

type Param struct {
	Type *TypeRef
	Name string
}

// Decorator is "@name" or, with HasArgs, "@name(args)".
type Decorator struct {
	Name    string
	HasArgs bool
	Args    []Expr
}

// Statements.

type VarDef struct {
	Type *TypeRef
	Name string
	Init Expr
}

// Assignment covers "=" and the compound forms "+=", "-=", "*=", "/=", "%=", "**=".
type Assignment struct {
	Op     string
	Target string
	Value  Expr
}

type EnumDef struct {
	Name    string
	Members []string
}

type FunDef struct {
	Decorators []*Decorator
	ReturnType *TypeRef
	Name       string
	Params     []*Param
	Body       []Stmt
}

type ClassDef struct {
	Decorators []*Decorator
	Name       string
	Base       string
	Body       []Stmt
}

// CtorDef is "ClassName(params): block" inside a class body.
type CtorDef struct {
	Class  string
	Params []*Param
	Body   []Stmt
}

type When struct {
	Cond Expr
	Body []Stmt
}

type Otherwise struct {
	Body []Stmt
}

// WhenChain is one or more consecutive when blocks and an optional otherwise block.
// The first arm whose condition holds runs.
type WhenChain struct {
	Whens     []*When
	Otherwise *Otherwise
}

type For struct {
	Binding  *Param
	Iterable Expr
	Body     []Stmt
}

type Case struct {
	Value Expr
	Body  []Stmt
}

type Switch struct {
	Subject Expr
	Cases   []*Case
}

type Except struct {
	Name string
	Body []Stmt
}

type Try struct {
	Body    []Stmt
	Excepts []*Except
}

type Return struct {
	Value Expr
}

// Keyword is one of pass, skip or escape.
type Keyword struct {
	Word string
}

type Import struct {
	Path []string
}

type ExprStmt struct {
	X Expr
}

func (s *VarDef) Accept(v StmtVisitor) error     { return v.VisitVarDef(s) }
func (s *Assignment) Accept(v StmtVisitor) error { return v.VisitAssignment(s) }
func (s *EnumDef) Accept(v StmtVisitor) error    { return v.VisitEnumDef(s) }
func (s *FunDef) Accept(v StmtVisitor) error     { return v.VisitFunDef(s) }
func (s *ClassDef) Accept(v StmtVisitor) error   { return v.VisitClassDef(s) }
func (s *CtorDef) Accept(v StmtVisitor) error    { return v.VisitCtorDef(s) }
func (s *WhenChain) Accept(v StmtVisitor) error  { return v.VisitWhenChain(s) }
func (s *For) Accept(v StmtVisitor) error        { return v.VisitFor(s) }
func (s *Switch) Accept(v StmtVisitor) error     { return v.VisitSwitch(s) }
func (s *Try) Accept(v StmtVisitor) error        { return v.VisitTry(s) }
func (s *Return) Accept(v StmtVisitor) error     { return v.VisitReturn(s) }
func (s *Keyword) Accept(v StmtVisitor) error    { return v.VisitKeyword(s) }
func (s *Import) Accept(v StmtVisitor) error     { return v.VisitImport(s) }
func (s *ExprStmt) Accept(v StmtVisitor) error   { return v.VisitExprStmt(s) }

func (*VarDef) stmtNode()     {}
func (*Assignment) stmtNode() {}
func (*EnumDef) stmtNode()    {}
func (*FunDef) stmtNode()     {}
func (*ClassDef) stmtNode()   {}
func (*CtorDef) stmtNode()    {}
func (*WhenChain) stmtNode()  {}
func (*For) stmtNode()        {}
func (*Switch) stmtNode()     {}
func (*Try) stmtNode()        {}
func (*Return) stmtNode()     {}
func (*Keyword) stmtNode()    {}
func (*Import) stmtNode()     {}
func (*ExprStmt) stmtNode()   {}

// Expressions.

// IntegerLit, DoubleLit and BooleanLit keep their source text so printing reproduces it.
type IntegerLit struct {
	Value int64
	Raw   string
}

type DoubleLit struct {
	Value float64
	Raw   string
}

type BooleanLit struct {
	Value bool
}

// StringLit holds the text between the quotes with escapes left untouched.
type StringLit struct {
	Value string
}

type TemplateString struct {
	Raw string
}

type Identifier struct {
	Name string
}

type Self struct{}

// BinOp is an arithmetic operation: + - * / % **.
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
}

// Comparison is one of == != < <= > >=.
type Comparison struct {
	Op    string
	Left  Expr
	Right Expr
}

// Logical is || or &&.
type Logical struct {
	Op    string
	Left  Expr
	Right Expr
}

// Negation is unary minus.
type Negation struct {
	X Expr
}

// InlineCondition is "cond ? then ! else".
type InlineCondition struct {
	Cond Expr
	Then Expr
	Else Expr
}

type FunCall struct {
	Name string
	Args []Expr
}

type MemberAccess struct {
	Object Expr
	Member string
}

type MethodCall struct {
	Object Expr
	Method string
	Args   []Expr
}

type Lambda struct {
	Params []*Param
	Body   Expr
}

type ArrayLiteral struct {
	Elements []Expr
}

// ArrayRange is "[start...end]", end excluded.
type ArrayRange struct {
	Start Expr
	End   Expr
}

type ArrayComprehension struct {
	Expr    Expr
	Binding *Param
	Source  Expr
	Guard   Expr
}

// ObjectEntry is either "key: value" or, when Unpack is set, "**Unpack".
type ObjectEntry struct {
	Key    Expr
	Value  Expr
	Unpack string
}

type ObjectLiteral struct {
	Entries []*ObjectEntry
}

func (*IntegerLit) exprNode()         {}
func (*DoubleLit) exprNode()          {}
func (*BooleanLit) exprNode()         {}
func (*StringLit) exprNode()          {}
func (*TemplateString) exprNode()     {}
func (*Identifier) exprNode()         {}
func (*Self) exprNode()               {}
func (*BinOp) exprNode()              {}
func (*Comparison) exprNode()         {}
func (*Logical) exprNode()            {}
func (*Negation) exprNode()           {}
func (*InlineCondition) exprNode()    {}
func (*FunCall) exprNode()            {}
func (*MemberAccess) exprNode()       {}
func (*MethodCall) exprNode()         {}
func (*Lambda) exprNode()             {}
func (*ArrayLiteral) exprNode()       {}
func (*ArrayRange) exprNode()         {}
func (*ArrayComprehension) exprNode() {}
func (*ObjectLiteral) exprNode()      {}

// ModulePath joins an import path the way it is written: "a"."b".
func (s *Import) ModulePath() string {
	parts := make([]string, len(s.Path))
	for i, p := range s.Path {
		parts[i] = `"` + p + `"`
	}
	return strings.Join(parts, ".")
}
