package internal

type SymbolKind int

const (
	VariableSymbol SymbolKind = iota
	FunctionSymbol
	EnumSymbol
	ClassSymbol
)

// Symbol is what the analyzer binds a name to. Type is the declared type of a variable or
// the return type of a function. Members lists enum members, or class fields and methods in
// declaration order with their types in MemberTypes.
type Symbol struct {
	Name        string
	Kind        SymbolKind
	Type        string
	Members     []string
	MemberTypes map[string]string
	Methods     map[string]bool
}

func (s *Symbol) hasMember(name string) bool {
	for _, member := range s.Members {
		if member == name {
			return true
		}
	}
	return false
}

// Analyzer checks name resolution and first order assignment typing. It walks the program
// once, entering a scope for every block.
type Analyzer struct {
	scopes       *ScopeStack[*Symbol]
	table        TypeTable
	currentClass *Symbol
}

func NewAnalyzer(table TypeTable) *Analyzer {
	if table == nil {
		table = DefaultTypeTable{}
	}
	return &Analyzer{table: table}
}

// Analyze returns the first NameError or TypeMismatchError found in program.
func (analyzer *Analyzer) Analyze(program *Program) error {
	analyzer.scopes = NewScopeStack[*Symbol]()
	analyzer.currentClass = nil
	return analyzer.stmts(program.Stmts)
}

func (analyzer *Analyzer) stmts(stmts []Stmt) error {
	for _, stmt := range stmts {
		if err := stmt.Accept(analyzer); err != nil {
			return err
		}
	}
	return nil
}

// block analyzes stmts in a fresh child scope, binding params first.
func (analyzer *Analyzer) block(params []*Param, stmts []Stmt) error {
	analyzer.scopes.Enter()
	defer analyzer.scopes.Leave()
	analyzer.defineParams(params)
	return analyzer.stmts(stmts)
}

func (analyzer *Analyzer) defineParams(params []*Param) {
	for _, param := range params {
		analyzer.scopes.Define(param.Name, &Symbol{Name: param.Name, Kind: VariableSymbol, Type: param.Type.String()})
	}
}

func (analyzer *Analyzer) infer(e Expr) (string, error) {
	return VisitExpr[string](analyzer, e)
}

func (analyzer *Analyzer) inferAll(exprs []Expr) error {
	for _, e := range exprs {
		if _, err := analyzer.infer(e); err != nil {
			return err
		}
	}
	return nil
}

func (analyzer *Analyzer) checkAssignable(name string, declared string, value Expr) error {
	kind, err := analyzer.infer(value)
	if err != nil {
		return err
	}
	if !analyzer.table.Accepts(declared, kind) {
		return &TypeMismatchError{Name: name, Want: declared, Got: kind}
	}
	return nil
}

func (analyzer *Analyzer) VisitVarDef(s *VarDef) error {
	if s.Init != nil {
		if err := analyzer.checkAssignable(s.Name, s.Type.String(), s.Init); err != nil {
			return err
		}
	}
	analyzer.scopes.Define(s.Name, &Symbol{Name: s.Name, Kind: VariableSymbol, Type: s.Type.String()})
	return nil
}

func (analyzer *Analyzer) VisitAssignment(s *Assignment) error {
	symbol, _, ok := analyzer.scopes.Resolve(s.Target)
	if !ok || symbol.Kind != VariableSymbol {
		return &NameError{Kind: VariableName, Name: s.Target}
	}
	return analyzer.checkAssignable(s.Target, symbol.Type, s.Value)
}

func (analyzer *Analyzer) VisitEnumDef(s *EnumDef) error {
	analyzer.scopes.Define(s.Name, &Symbol{Name: s.Name, Kind: EnumSymbol, Type: s.Name, Members: s.Members})
	return nil
}

func (analyzer *Analyzer) VisitFunDef(s *FunDef) error {
	analyzer.scopes.Define(s.Name, &Symbol{Name: s.Name, Kind: FunctionSymbol, Type: s.ReturnType.String()})
	return analyzer.block(s.Params, s.Body)
}

// VisitClassDef registers the class and all of its members before any member body is
// analyzed, so methods may use fields and methods declared after them.
func (analyzer *Analyzer) VisitClassDef(s *ClassDef) error {
	class := &Symbol{
		Name:        s.Name,
		Kind:        ClassSymbol,
		Type:        s.Name,
		MemberTypes: map[string]string{},
		Methods:     map[string]bool{},
	}
	for _, stmt := range s.Body {
		switch member := stmt.(type) {
		case *VarDef:
			class.Members = append(class.Members, member.Name)
			class.MemberTypes[member.Name] = member.Type.String()
		case *FunDef:
			class.Members = append(class.Members, member.Name)
			class.MemberTypes[member.Name] = member.ReturnType.String()
			class.Methods[member.Name] = true
		}
	}
	analyzer.scopes.Define(s.Name, class)

	outerClass := analyzer.currentClass
	analyzer.currentClass = class
	defer func() { analyzer.currentClass = outerClass }()
	analyzer.scopes.Enter()
	defer analyzer.scopes.Leave()
	for _, name := range class.Members {
		kind := VariableSymbol
		if class.Methods[name] {
			kind = FunctionSymbol
		}
		analyzer.scopes.Define(name, &Symbol{Name: name, Kind: kind, Type: class.MemberTypes[name]})
	}
	return analyzer.stmts(s.Body)
}

func (analyzer *Analyzer) VisitCtorDef(s *CtorDef) error {
	return analyzer.block(s.Params, s.Body)
}

func (analyzer *Analyzer) VisitWhenChain(s *WhenChain) error {
	for _, when := range s.Whens {
		if _, err := analyzer.infer(when.Cond); err != nil {
			return err
		}
		if err := analyzer.block(nil, when.Body); err != nil {
			return err
		}
	}
	if s.Otherwise != nil {
		return analyzer.block(nil, s.Otherwise.Body)
	}
	return nil
}

func (analyzer *Analyzer) VisitFor(s *For) error {
	if _, err := analyzer.infer(s.Iterable); err != nil {
		return err
	}
	return analyzer.block([]*Param{s.Binding}, s.Body)
}

func (analyzer *Analyzer) VisitSwitch(s *Switch) error {
	if _, err := analyzer.infer(s.Subject); err != nil {
		return err
	}
	for _, c := range s.Cases {
		if _, err := analyzer.infer(c.Value); err != nil {
			return err
		}
		if err := analyzer.block(nil, c.Body); err != nil {
			return err
		}
	}
	return nil
}

func (analyzer *Analyzer) VisitTry(s *Try) error {
	if err := analyzer.block(nil, s.Body); err != nil {
		return err
	}
	for _, except := range s.Excepts {
		if err := analyzer.block(nil, except.Body); err != nil {
			return err
		}
	}
	return nil
}

func (analyzer *Analyzer) VisitReturn(s *Return) error {
	if s.Value == nil {
		return nil
	}
	_, err := analyzer.infer(s.Value)
	return err
}

func (analyzer *Analyzer) VisitKeyword(s *Keyword) error {
	return nil
}

func (analyzer *Analyzer) VisitImport(s *Import) error {
	return nil
}

func (analyzer *Analyzer) VisitExprStmt(s *ExprStmt) error {
	_, err := analyzer.infer(s.X)
	return err
}

func (analyzer *Analyzer) VisitIntegerLit(e *IntegerLit) (string, error) {
	return "int", nil
}

func (analyzer *Analyzer) VisitDoubleLit(e *DoubleLit) (string, error) {
	return "double", nil
}

func (analyzer *Analyzer) VisitBooleanLit(e *BooleanLit) (string, error) {
	return "bool", nil
}

func (analyzer *Analyzer) VisitStringLit(e *StringLit) (string, error) {
	return "str", nil
}

func (analyzer *Analyzer) VisitTemplateString(e *TemplateString) (string, error) {
	return "str", nil
}

func (analyzer *Analyzer) VisitIdentifier(e *Identifier) (string, error) {
	symbol, _, ok := analyzer.scopes.Resolve(e.Name)
	if !ok {
		return unknownKind, &NameError{Kind: VariableName, Name: e.Name}
	}
	if symbol.Kind != VariableSymbol {
		return unknownKind, nil
	}
	return symbol.Type, nil
}

func (analyzer *Analyzer) VisitSelf(e *Self) (string, error) {
	if analyzer.currentClass == nil {
		return unknownKind, &NameError{Kind: VariableName, Name: "self"}
	}
	return analyzer.currentClass.Name, nil
}

func (analyzer *Analyzer) VisitBinOp(e *BinOp) (string, error) {
	left, err := analyzer.infer(e.Left)
	if err != nil {
		return unknownKind, err
	}
	right, err := analyzer.infer(e.Right)
	if err != nil {
		return unknownKind, err
	}
	return arithmeticKind(e.Op, left, right), nil
}

// arithmeticKind is int for int operands, double once a double is involved and str for
// string concatenation. Anything else is left unknown.
func arithmeticKind(op string, left, right string) string {
	numeric := func(kind string) bool { return kind == "int" || kind == "double" }
	switch {
	case left == "int" && right == "int":
		return "int"
	case numeric(left) && numeric(right):
		return "double"
	case op == "+" && left == "str" && right == "str":
		return "str"
	}
	return unknownKind
}

func (analyzer *Analyzer) VisitComparison(e *Comparison) (string, error) {
	if err := analyzer.inferAll([]Expr{e.Left, e.Right}); err != nil {
		return unknownKind, err
	}
	return "bool", nil
}

func (analyzer *Analyzer) VisitLogical(e *Logical) (string, error) {
	if err := analyzer.inferAll([]Expr{e.Left, e.Right}); err != nil {
		return unknownKind, err
	}
	return "bool", nil
}

func (analyzer *Analyzer) VisitNegation(e *Negation) (string, error) {
	return analyzer.infer(e.X)
}

func (analyzer *Analyzer) VisitInlineCondition(e *InlineCondition) (string, error) {
	if _, err := analyzer.infer(e.Cond); err != nil {
		return unknownKind, err
	}
	then, err := analyzer.infer(e.Then)
	if err != nil {
		return unknownKind, err
	}
	otherwise, err := analyzer.infer(e.Else)
	if err != nil {
		return unknownKind, err
	}
	if then != otherwise {
		return unknownKind, nil
	}
	return then, nil
}

func (analyzer *Analyzer) VisitFunCall(e *FunCall) (string, error) {
	symbol, _, ok := analyzer.scopes.Resolve(e.Name)
	if !ok || symbol.Kind == EnumSymbol {
		return unknownKind, &NameError{Kind: FunctionName, Name: e.Name}
	}
	if err := analyzer.inferAll(e.Args); err != nil {
		return unknownKind, err
	}
	return symbol.Type, nil
}

// classOf returns the class symbol for an inferred kind, if kind names a class.
func (analyzer *Analyzer) classOf(kind string) *Symbol {
	symbol, _, ok := analyzer.scopes.Resolve(kind)
	if !ok || symbol.Kind != ClassSymbol {
		return nil
	}
	return symbol
}

func (analyzer *Analyzer) VisitMemberAccess(e *MemberAccess) (string, error) {
	if ident, ok := e.Object.(*Identifier); ok {
		symbol, _, found := analyzer.scopes.Resolve(ident.Name)
		if found && symbol.Kind == EnumSymbol {
			if !symbol.hasMember(e.Member) {
				return unknownKind, &NameError{Kind: MemberName, Name: ident.Name + "." + e.Member}
			}
			return symbol.Name, nil
		}
	}
	kind, err := analyzer.infer(e.Object)
	if err != nil {
		return unknownKind, err
	}
	class := analyzer.classOf(kind)
	if class == nil {
		return unknownKind, nil
	}
	if !class.hasMember(e.Member) || class.Methods[e.Member] {
		return unknownKind, &NameError{Kind: FieldName, Name: class.Name + "." + e.Member}
	}
	return class.MemberTypes[e.Member], nil
}

func (analyzer *Analyzer) VisitMethodCall(e *MethodCall) (string, error) {
	kind, err := analyzer.infer(e.Object)
	if err != nil {
		return unknownKind, err
	}
	if err := analyzer.inferAll(e.Args); err != nil {
		return unknownKind, err
	}
	class := analyzer.classOf(kind)
	if class == nil {
		return unknownKind, nil
	}
	if !class.Methods[e.Method] {
		return unknownKind, &NameError{Kind: MethodName, Name: class.Name + "." + e.Method}
	}
	return class.MemberTypes[e.Method], nil
}

func (analyzer *Analyzer) VisitLambda(e *Lambda) (string, error) {
	analyzer.scopes.Enter()
	defer analyzer.scopes.Leave()
	analyzer.defineParams(e.Params)
	if _, err := analyzer.infer(e.Body); err != nil {
		return unknownKind, err
	}
	return lambdaKind, nil
}

func (analyzer *Analyzer) VisitArrayLiteral(e *ArrayLiteral) (string, error) {
	return arrayKind, analyzer.inferAll(e.Elements)
}

func (analyzer *Analyzer) VisitArrayRange(e *ArrayRange) (string, error) {
	return arrayKind, analyzer.inferAll([]Expr{e.Start, e.End})
}

func (analyzer *Analyzer) VisitArrayComprehension(e *ArrayComprehension) (string, error) {
	if _, err := analyzer.infer(e.Source); err != nil {
		return unknownKind, err
	}
	analyzer.scopes.Enter()
	defer analyzer.scopes.Leave()
	analyzer.defineParams([]*Param{e.Binding})
	if _, err := analyzer.infer(e.Expr); err != nil {
		return unknownKind, err
	}
	if e.Guard != nil {
		if _, err := analyzer.infer(e.Guard); err != nil {
			return unknownKind, err
		}
	}
	return arrayKind, nil
}

func (analyzer *Analyzer) VisitObjectLiteral(e *ObjectLiteral) (string, error) {
	for _, entry := range e.Entries {
		if entry.Unpack != "" {
			if _, _, ok := analyzer.scopes.Resolve(entry.Unpack); !ok {
				return unknownKind, &NameError{Kind: VariableName, Name: entry.Unpack}
			}
			continue
		}
		if err := analyzer.inferAll([]Expr{entry.Key, entry.Value}); err != nil {
			return unknownKind, err
		}
	}
	return objectKind, nil
}
