package internal

import (
	"strings"
)

const indentUnit = "    "

// Format prints program as canonical O source. Parsing the result yields the same tree.
func Format(program *Program) string {
	printer := &printer{}
	printer.stmts(program.Stmts)
	return printer.buf.String()
}

// FormatExpr prints a single expression.
func FormatExpr(e Expr) string {
	s, _ := VisitExpr[string](&printer{}, e)
	return s
}

type printer struct {
	buf   strings.Builder
	depth int
}

// priority mirrors opPriorities for already built nodes. Operands that bind looser than
// their position allows get parenthesized.
func priority(e Expr) int {
	switch e := e.(type) {
	case *InlineCondition, *Lambda:
		return 0
	case *Comparison:
		return 1
	case *BinOp:
		return binOpPriority(e.Op)
	case *Logical:
		return 6
	case *Negation:
		return 9
	}
	return 10
}

func binOpPriority(op string) int {
	switch op {
	case "+", "-":
		return 2
	case "*", "/":
		return 3
	case "%":
		return 4
	}
	return 5
}

func (p *printer) operand(e Expr, minPriority int) string {
	s, _ := VisitExpr[string](p, e)
	if priority(e) < minPriority {
		return "(" + s + ")"
	}
	return s
}

func (p *printer) line(s string) {
	p.buf.WriteString(strings.Repeat(indentUnit, p.depth))
	p.buf.WriteString(s)
	p.buf.WriteString("\n")
}

func (p *printer) stmts(stmts []Stmt) {
	for _, stmt := range stmts {
		_ = stmt.Accept(p)
	}
}

func (p *printer) block(header string, body []Stmt) {
	p.line(header + ":")
	p.depth++
	p.stmts(body)
	p.depth--
}

func formatType(t *TypeRef) string {
	switch t.Kind {
	case ArrayType:
		return formatType(t.Elem) + "[]"
	case ObjectType:
		return "{" + t.Key + " " + t.KeyName + ": " + formatType(t.Elem) + "}"
	}
	return t.Name
}

func formatParams(params []*Param) string {
	parts := make([]string, len(params))
	for i, param := range params {
		parts[i] = formatType(param.Type) + " " + param.Name
	}
	return strings.Join(parts, ", ")
}

func (p *printer) list(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = p.operand(e, 0)
	}
	return strings.Join(parts, ", ")
}

func (p *printer) decorators(decorators []*Decorator) {
	for _, d := range decorators {
		if d.HasArgs {
			p.line("@" + d.Name + "(" + p.list(d.Args) + ")")
			continue
		}
		p.line("@" + d.Name)
	}
}

func (p *printer) VisitVarDef(s *VarDef) error {
	text := formatType(s.Type) + " " + s.Name
	if s.Init != nil {
		text += " = " + p.operand(s.Init, 0)
	}
	p.line(text)
	return nil
}

func (p *printer) VisitAssignment(s *Assignment) error {
	p.line(s.Target + " " + s.Op + " " + p.operand(s.Value, 0))
	return nil
}

func (p *printer) VisitEnumDef(s *EnumDef) error {
	p.line("enum " + s.Name + " { " + strings.Join(s.Members, ", ") + " }")
	return nil
}

func (p *printer) VisitFunDef(s *FunDef) error {
	p.decorators(s.Decorators)
	p.block(formatType(s.ReturnType)+" "+s.Name+"("+formatParams(s.Params)+")", s.Body)
	return nil
}

func (p *printer) VisitClassDef(s *ClassDef) error {
	p.decorators(s.Decorators)
	header := "class " + s.Name
	if s.Base != "" {
		header += " extends " + s.Base
	}
	p.block(header, s.Body)
	return nil
}

func (p *printer) VisitCtorDef(s *CtorDef) error {
	p.block(s.Class+"("+formatParams(s.Params)+")", s.Body)
	return nil
}

func (p *printer) VisitWhenChain(s *WhenChain) error {
	for _, when := range s.Whens {
		p.block("when "+p.operand(when.Cond, 0), when.Body)
	}
	if s.Otherwise != nil {
		p.block("otherwise", s.Otherwise.Body)
	}
	return nil
}

func (p *printer) VisitFor(s *For) error {
	p.block("for "+formatParams([]*Param{s.Binding})+" in "+p.operand(s.Iterable, 0), s.Body)
	return nil
}

func (p *printer) VisitSwitch(s *Switch) error {
	p.line("switch " + p.operand(s.Subject, 0) + ":")
	p.depth++
	for _, c := range s.Cases {
		p.block("case "+p.operand(c.Value, 0), c.Body)
	}
	p.depth--
	return nil
}

func (p *printer) VisitTry(s *Try) error {
	p.block("try", s.Body)
	for _, except := range s.Excepts {
		header := "except"
		if except.Name != "" {
			header += " " + except.Name
		}
		p.block(header, except.Body)
	}
	return nil
}

func (p *printer) VisitReturn(s *Return) error {
	if s.Value == nil {
		p.line("return")
		return nil
	}
	p.line("return " + p.operand(s.Value, 0))
	return nil
}

func (p *printer) VisitKeyword(s *Keyword) error {
	p.line(s.Word)
	return nil
}

func (p *printer) VisitImport(s *Import) error {
	p.line("import " + s.ModulePath())
	return nil
}

func (p *printer) VisitExprStmt(s *ExprStmt) error {
	p.line(p.operand(s.X, 0))
	return nil
}

func (p *printer) VisitIntegerLit(e *IntegerLit) (string, error) {
	return e.Raw, nil
}

func (p *printer) VisitDoubleLit(e *DoubleLit) (string, error) {
	return e.Raw, nil
}

func (p *printer) VisitBooleanLit(e *BooleanLit) (string, error) {
	if e.Value {
		return "True", nil
	}
	return "False", nil
}

func (p *printer) VisitStringLit(e *StringLit) (string, error) {
	return `"` + e.Value + `"`, nil
}

func (p *printer) VisitTemplateString(e *TemplateString) (string, error) {
	return `t"` + e.Raw + `"`, nil
}

func (p *printer) VisitIdentifier(e *Identifier) (string, error) {
	return e.Name, nil
}

func (p *printer) VisitSelf(e *Self) (string, error) {
	return "self", nil
}

func (p *printer) binary(op string, left, right Expr, prio int, rightAssoc bool) string {
	leftMin, rightMin := prio, prio+1
	if rightAssoc {
		leftMin, rightMin = prio+1, prio
	}
	return p.operand(left, leftMin) + " " + op + " " + p.operand(right, rightMin)
}

func (p *printer) VisitBinOp(e *BinOp) (string, error) {
	return p.binary(e.Op, e.Left, e.Right, binOpPriority(e.Op), e.Op == "**"), nil
}

func (p *printer) VisitComparison(e *Comparison) (string, error) {
	return p.binary(e.Op, e.Left, e.Right, 1, false), nil
}

func (p *printer) VisitLogical(e *Logical) (string, error) {
	return p.binary(e.Op, e.Left, e.Right, 6, false), nil
}

func (p *printer) VisitNegation(e *Negation) (string, error) {
	return "-" + p.operand(e.X, 10), nil
}

func (p *printer) VisitInlineCondition(e *InlineCondition) (string, error) {
	return p.operand(e.Cond, 1) + " ? " + p.operand(e.Then, 0) + " ! " + p.operand(e.Else, 0), nil
}

func (p *printer) VisitFunCall(e *FunCall) (string, error) {
	return e.Name + "(" + p.list(e.Args) + ")", nil
}

func (p *printer) VisitMemberAccess(e *MemberAccess) (string, error) {
	return p.operand(e.Object, 10) + "." + e.Member, nil
}

func (p *printer) VisitMethodCall(e *MethodCall) (string, error) {
	return p.operand(e.Object, 10) + "." + e.Method + "(" + p.list(e.Args) + ")", nil
}

func (p *printer) VisitLambda(e *Lambda) (string, error) {
	return formatParams(e.Params) + " => " + p.operand(e.Body, 0), nil
}

func (p *printer) VisitArrayLiteral(e *ArrayLiteral) (string, error) {
	return "[" + p.list(e.Elements) + "]", nil
}

func (p *printer) VisitArrayRange(e *ArrayRange) (string, error) {
	return "[" + p.operand(e.Start, 0) + "..." + p.operand(e.End, 0) + "]", nil
}

func (p *printer) VisitArrayComprehension(e *ArrayComprehension) (string, error) {
	text := "[" + p.operand(e.Expr, 0) + " for " + formatParams([]*Param{e.Binding}) + " in " + p.operand(e.Source, 0)
	if e.Guard != nil {
		text += " when " + p.operand(e.Guard, 0)
	}
	return text + "]", nil
}

func (p *printer) VisitObjectLiteral(e *ObjectLiteral) (string, error) {
	parts := make([]string, len(e.Entries))
	for i, entry := range e.Entries {
		if entry.Unpack != "" {
			parts[i] = "**" + entry.Unpack
			continue
		}
		parts[i] = p.operand(entry.Key, 0) + ": " + p.operand(entry.Value, 0)
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}
