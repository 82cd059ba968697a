package internal

// Parser is a recursive descent parser over a lazy token stream. Tokens are pulled from the
// tokenizer on demand into a small lookahead buffer and dropped once consumed.
type Parser struct {
	tokenizer *Tokenizer
	lookahead []*Token
	lexErr    error
	// className is set while parsing a class body, so "ClassName(params):" reads as a constructor.
	className string
}

func NewParser(src string) *Parser {
	parser := &Parser{}
	parser.reset(src)
	return parser
}

// Parse turns src into a Program or returns the first lexical or syntax error.
func Parse(src string) (*Program, error) {
	return NewParser(src).ParseProgram()
}

func (parser *Parser) reset(src string) {
	if parser.tokenizer == nil {
		parser.tokenizer = NewTokenizer(src)
	} else {
		parser.tokenizer.Reset(src)
	}
	parser.lookahead, parser.lexErr, parser.className = nil, nil, ""
}

// program : statement+
func (parser *Parser) ParseProgram() (*Program, error) {
	program := &Program{}
	for {
		parser.skipNewlines()
		if parser.peek(0).Tp == EOFTP {
			break
		}
		stmt, err := parser.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Stmts = append(program.Stmts, stmt)
	}
	if parser.lexErr != nil {
		return nil, parser.lexErr
	}
	if len(program.Stmts) == 0 {
		return nil, parser.makeError("expected a statement")
	}
	return program, nil
}

// peek returns the token n positions ahead of the current one. A lexical error is kept
// aside and reported by the next makeError, the stream just looks ended.
func (parser *Parser) peek(n int) *Token {
	for len(parser.lookahead) <= n {
		if parser.lexErr != nil {
			return &Token{Tp: EOFTP}
		}
		token, err := parser.tokenizer.Next()
		if err != nil {
			parser.lexErr = err
			return &Token{Tp: EOFTP}
		}
		parser.lookahead = append(parser.lookahead, token)
	}
	return parser.lookahead[n]
}

func (parser *Parser) getCurrentToken() *Token {
	return parser.peek(0)
}

func (parser *Parser) stepForward() {
	if len(parser.lookahead) == 0 {
		parser.peek(0)
	}
	if len(parser.lookahead) > 0 {
		parser.lookahead = parser.lookahead[1:]
	}
}

// expectToken reports whether the current token is of type tp and consumes it when walk is set.
func (parser *Parser) expectToken(tp TokenType, walk bool) (*Token, bool) {
	token := parser.getCurrentToken()
	if token.Tp != tp {
		return token, false
	}
	if walk {
		parser.stepForward()
	}
	return token, true
}

func (parser *Parser) require(tp TokenType) (*Token, error) {
	token, match := parser.expectToken(tp, true)
	if !match {
		return nil, parser.makeError("expected " + tp.String())
	}
	return token, nil
}

func (parser *Parser) skipNewlines() {
	for {
		_, match := parser.expectToken(NewlineTP, true)
		if !match {
			return
		}
	}
}

func (parser *Parser) makeError(msg string) error {
	if parser.lexErr != nil {
		return parser.lexErr
	}
	token := parser.getCurrentToken()
	if token.Tp == EOFTP {
		return &SyntaxError{Msg: msg}
	}
	return &SyntaxError{Near: token.String(), Line: token.Line, Column: token.Column, Msg: msg}
}

// statement : simple_stmt NEWLINE? | compound_stmt
func (parser *Parser) parseStatement() (Stmt, error) {
	token := parser.getCurrentToken()
	switch token.Tp {
	case AtTP:
		return parser.parseDecorated()
	case ClassTP:
		return parser.parseClassDef(nil)
	case WhenTP:
		return parser.parseWhenChain()
	case ForTP:
		return parser.parseFor()
	case SwitchTP:
		return parser.parseSwitch()
	case TryTP:
		return parser.parseTry()
	case IdentifierTP:
		if parser.className != "" && token.Content == parser.className && parser.peek(1).Tp == LeftParentThesesTP {
			return parser.parseCtorDef()
		}
	}
	if parser.startsWithType() {
		return parser.parseTypeLed(nil)
	}
	stmt, err := parser.parseSimpleStatement()
	if err != nil {
		return nil, err
	}
	return stmt, parser.endSimpleStatement()
}

// startsWithType reports whether the statement begins with a type followed by a name:
// "int a", "P p", "int[] xs", "{str k: int} m".
func (parser *Parser) startsWithType() bool {
	token := parser.getCurrentToken()
	switch {
	case token.Tp.IsBuiltinType():
		return true
	case token.Tp == IdentifierTP:
		next := parser.peek(1)
		return next.Tp == IdentifierTP ||
			(next.Tp == LeftSquareBracketTP && parser.peek(2).Tp == RightSquareBracketTP)
	case token.Tp == LeftBraceTP:
		return parser.isObjectType(0)
	}
	return false
}

// isObjectType reports whether "{ ktype name :" starts at offset n.
func (parser *Parser) isObjectType(n int) bool {
	key := parser.peek(n + 1).Tp
	return parser.peek(n).Tp == LeftBraceTP && (key == IntTP || key == StrTP) &&
		parser.peek(n+2).Tp == IdentifierTP && parser.peek(n+3).Tp == ColonTP
}

func (parser *Parser) parseSimpleStatement() (Stmt, error) {
	token := parser.getCurrentToken()
	switch token.Tp {
	case EnumTP:
		return parser.parseEnumDef()
	case ImportTP:
		return parser.parseImport()
	case ReturnTP:
		return parser.parseReturn()
	case PassTP, SkipTP, EscapeTP:
		parser.stepForward()
		return &Keyword{Word: token.Content}, nil
	case IdentifierTP:
		if parser.peek(1).Tp.IsAssignOp() {
			return parser.parseAssignment()
		}
	case NewlineTP, IndentTP, DedentTP, EOFTP:
		return nil, parser.makeError("expected a statement")
	}
	expr, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{X: expr}, nil
}

func (parser *Parser) endSimpleStatement() error {
	switch parser.getCurrentToken().Tp {
	case NewlineTP:
		parser.stepForward()
		return nil
	case DedentTP, EOFTP:
		return nil
	}
	return parser.makeError("expected end of line")
}

// block : NEWLINE INDENT statement+ DEDENT
func (parser *Parser) parseBlock() ([]Stmt, error) {
	if _, err := parser.require(NewlineTP); err != nil {
		return nil, err
	}
	if _, err := parser.require(IndentTP); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for {
		parser.skipNewlines()
		token := parser.getCurrentToken()
		if token.Tp == DedentTP {
			parser.stepForward()
			break
		}
		if token.Tp == EOFTP {
			return nil, parser.makeError("unexpected end of block")
		}
		stmt, err := parser.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if len(stmts) == 0 {
		return nil, parser.makeError("empty block")
	}
	return stmts, nil
}

// parseColonBlock reads ": block".
func (parser *Parser) parseColonBlock() ([]Stmt, error) {
	if _, err := parser.require(ColonTP); err != nil {
		return nil, err
	}
	return parser.parseBlock()
}

// type : (int | str | bool | double | void | Name | { ktype name : type }) ([ ])*
func (parser *Parser) parseType() (*TypeRef, error) {
	token := parser.getCurrentToken()
	var typ *TypeRef
	switch {
	case token.Tp.IsBuiltinType(), token.Tp == IdentifierTP:
		parser.stepForward()
		typ = NamedTypeRef(token.Content)
	case parser.isObjectType(0):
		parser.stepForward()
		key := parser.getCurrentToken()
		parser.stepForward()
		keyName := parser.getCurrentToken()
		parser.stepForward()
		parser.stepForward()
		elem, err := parser.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := parser.require(RightBraceTP); err != nil {
			return nil, err
		}
		typ = &TypeRef{Kind: ObjectType, Key: key.Content, KeyName: keyName.Content, Elem: elem}
	default:
		return nil, parser.makeError("expected a type")
	}
	for parser.peek(0).Tp == LeftSquareBracketTP && parser.peek(1).Tp == RightSquareBracketTP {
		parser.stepForward()
		parser.stepForward()
		typ = &TypeRef{Kind: ArrayType, Elem: typ}
	}
	return typ, nil
}

// param : type IDENTIFIER
func (parser *Parser) parseParam() (*Param, error) {
	typ, err := parser.parseType()
	if err != nil {
		return nil, err
	}
	name, err := parser.require(IdentifierTP)
	if err != nil {
		return nil, err
	}
	return &Param{Type: typ, Name: name.Content}, nil
}

// params : ( ) | ( param [, param]* )
func (parser *Parser) parseParamList() (params []*Param, err error) {
	if _, err := parser.require(LeftParentThesesTP); err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(RightParentThesesTP, true); match {
		return nil, nil
	}
	for {
		param, err := parser.parseParam()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if _, match := parser.expectToken(CommaTP, true); !match {
			break
		}
	}
	if _, err := parser.require(RightParentThesesTP); err != nil {
		return nil, err
	}
	return params, nil
}

// parseTypeLed reads either a function definition "type name(params): block" or a
// variable definition "type name [= expression]".
func (parser *Parser) parseTypeLed(decorators []*Decorator) (Stmt, error) {
	typ, err := parser.parseType()
	if err != nil {
		return nil, err
	}
	name, err := parser.require(IdentifierTP)
	if err != nil {
		return nil, err
	}
	if parser.getCurrentToken().Tp == LeftParentThesesTP {
		return parser.parseFunDef(decorators, typ, name.Content)
	}
	if decorators != nil {
		return nil, parser.makeError("decorators must precede a function or class")
	}
	varDef := &VarDef{Type: typ, Name: name.Content}
	if _, match := parser.expectToken(AssignTP, true); match {
		varDef.Init, err = parser.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	return varDef, parser.endSimpleStatement()
}

func (parser *Parser) parseFunDef(decorators []*Decorator, returnType *TypeRef, name string) (*FunDef, error) {
	params, err := parser.parseParamList()
	if err != nil {
		return nil, err
	}
	// A call to the enclosing class inside a method body is not a constructor.
	className := parser.className
	parser.className = ""
	defer func() { parser.className = className }()
	body, err := parser.parseColonBlock()
	if err != nil {
		return nil, err
	}
	return &FunDef{Decorators: decorators, ReturnType: returnType, Name: name, Params: params, Body: body}, nil
}

// decorator : @ IDENTIFIER [( [args] )] NEWLINE?
func (parser *Parser) parseDecorated() (Stmt, error) {
	var decorators []*Decorator
	for {
		if _, match := parser.expectToken(AtTP, true); !match {
			break
		}
		name, err := parser.require(IdentifierTP)
		if err != nil {
			return nil, err
		}
		decorator := &Decorator{Name: name.Content}
		if parser.getCurrentToken().Tp == LeftParentThesesTP {
			decorator.HasArgs = true
			decorator.Args, err = parser.parseArgs()
			if err != nil {
				return nil, err
			}
		}
		decorators = append(decorators, decorator)
		parser.expectToken(NewlineTP, true)
	}
	if parser.getCurrentToken().Tp == ClassTP {
		return parser.parseClassDef(decorators)
	}
	if !parser.startsWithType() {
		return nil, parser.makeError("decorators must precede a function or class")
	}
	return parser.parseTypeLed(decorators)
}

// class_def : class IDENTIFIER [extends IDENTIFIER] : block
func (parser *Parser) parseClassDef(decorators []*Decorator) (*ClassDef, error) {
	if _, err := parser.require(ClassTP); err != nil {
		return nil, err
	}
	name, err := parser.require(IdentifierTP)
	if err != nil {
		return nil, err
	}
	classDef := &ClassDef{Decorators: decorators, Name: name.Content}
	if _, match := parser.expectToken(ExtendsTP, true); match {
		base, err := parser.require(IdentifierTP)
		if err != nil {
			return nil, err
		}
		classDef.Base = base.Content
	}
	className := parser.className
	parser.className = classDef.Name
	defer func() { parser.className = className }()
	classDef.Body, err = parser.parseColonBlock()
	if err != nil {
		return nil, err
	}
	return classDef, nil
}

// ctor_def : ClassName ( params ) : block
func (parser *Parser) parseCtorDef() (*CtorDef, error) {
	name := parser.getCurrentToken()
	parser.stepForward()
	params, err := parser.parseParamList()
	if err != nil {
		return nil, err
	}
	className := parser.className
	parser.className = ""
	defer func() { parser.className = className }()
	body, err := parser.parseColonBlock()
	if err != nil {
		return nil, err
	}
	return &CtorDef{Class: name.Content, Params: params, Body: body}, nil
}

// when_chain : (when expression : block)+ [otherwise : block]
func (parser *Parser) parseWhenChain() (*WhenChain, error) {
	chain := &WhenChain{}
	for {
		if _, match := parser.expectToken(WhenTP, true); !match {
			break
		}
		cond, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		body, err := parser.parseColonBlock()
		if err != nil {
			return nil, err
		}
		chain.Whens = append(chain.Whens, &When{Cond: cond, Body: body})
	}
	if _, match := parser.expectToken(OtherwiseTP, true); match {
		body, err := parser.parseColonBlock()
		if err != nil {
			return nil, err
		}
		chain.Otherwise = &Otherwise{Body: body}
	}
	return chain, nil
}

// for_stmt : for param in expression : block
func (parser *Parser) parseFor() (*For, error) {
	parser.stepForward()
	binding, err := parser.parseParam()
	if err != nil {
		return nil, err
	}
	if _, err := parser.require(InTP); err != nil {
		return nil, err
	}
	iterable, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := parser.parseColonBlock()
	if err != nil {
		return nil, err
	}
	return &For{Binding: binding, Iterable: iterable, Body: body}, nil
}

// switch_stmt : switch expression : NEWLINE INDENT (case expression : block)+ DEDENT
func (parser *Parser) parseSwitch() (*Switch, error) {
	parser.stepForward()
	subject, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	for _, tp := range []TokenType{ColonTP, NewlineTP, IndentTP} {
		if _, err := parser.require(tp); err != nil {
			return nil, err
		}
	}
	switchStmt := &Switch{Subject: subject}
	for {
		parser.skipNewlines()
		if _, match := parser.expectToken(DedentTP, true); match {
			break
		}
		if _, err := parser.require(CaseTP); err != nil {
			return nil, err
		}
		value, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		body, err := parser.parseColonBlock()
		if err != nil {
			return nil, err
		}
		switchStmt.Cases = append(switchStmt.Cases, &Case{Value: value, Body: body})
	}
	if len(switchStmt.Cases) == 0 {
		return nil, parser.makeError("switch needs at least one case")
	}
	return switchStmt, nil
}

// try_stmt : try : block (except [IDENTIFIER] : block)+
func (parser *Parser) parseTry() (*Try, error) {
	parser.stepForward()
	body, err := parser.parseColonBlock()
	if err != nil {
		return nil, err
	}
	tryStmt := &Try{Body: body}
	for {
		if _, match := parser.expectToken(ExceptTP, true); !match {
			break
		}
		except := &Except{}
		if name, match := parser.expectToken(IdentifierTP, true); match {
			except.Name = name.Content
		}
		except.Body, err = parser.parseColonBlock()
		if err != nil {
			return nil, err
		}
		tryStmt.Excepts = append(tryStmt.Excepts, except)
	}
	if len(tryStmt.Excepts) == 0 {
		return nil, parser.makeError("try needs at least one except block")
	}
	return tryStmt, nil
}

// assignment : IDENTIFIER (= | += | -= | *= | /= | %= | **=) expression
func (parser *Parser) parseAssignment() (*Assignment, error) {
	target := parser.getCurrentToken()
	parser.stepForward()
	op := parser.getCurrentToken()
	parser.stepForward()
	value, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Assignment{Op: op.Content, Target: target.Content, Value: value}, nil
}

// enum_def : enum IDENTIFIER { IDENTIFIER [, IDENTIFIER]* }
func (parser *Parser) parseEnumDef() (*EnumDef, error) {
	parser.stepForward()
	name, err := parser.require(IdentifierTP)
	if err != nil {
		return nil, err
	}
	if _, err := parser.require(LeftBraceTP); err != nil {
		return nil, err
	}
	enumDef := &EnumDef{Name: name.Content}
	for {
		member, err := parser.require(IdentifierTP)
		if err != nil {
			return nil, err
		}
		enumDef.Members = append(enumDef.Members, member.Content)
		if _, match := parser.expectToken(CommaTP, true); !match {
			break
		}
	}
	if _, err := parser.require(RightBraceTP); err != nil {
		return nil, err
	}
	return enumDef, nil
}

// import_stmt : import STRING [. STRING]*
func (parser *Parser) parseImport() (*Import, error) {
	parser.stepForward()
	importStmt := &Import{}
	for {
		part, err := parser.require(StringTP)
		if err != nil {
			return nil, err
		}
		importStmt.Path = append(importStmt.Path, part.Content)
		if _, match := parser.expectToken(DotTP, true); !match {
			break
		}
	}
	return importStmt, nil
}

// return_stmt : return [expression]
func (parser *Parser) parseReturn() (*Return, error) {
	parser.stepForward()
	switch parser.getCurrentToken().Tp {
	case NewlineTP, DedentTP, EOFTP:
		return &Return{}, nil
	}
	value, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Return{Value: value}, nil
}
