package internal

import "strconv"

// Binary operator priorities, lowest first. "**" is the only right associative operator.
var opPriorities = map[TokenType]int{
	EqualTP:        1,
	NotEqualTP:     1,
	LessTP:         1,
	LessEqualTP:    1,
	GreaterTP:      1,
	GreaterEqualTP: 1,
	AddTP:          2,
	MinusTP:        2,
	MultiplyTP:     3,
	DivideTP:       3,
	ModTP:          4,
	PowerTP:        5,
	OrTP:           6,
	AndTP:          6,
}

type opToken struct {
	op         string
	tp         TokenType
	priority   int
	rightAssoc bool
}

// buildExpressionsTree folds a flat "term op term op term" sequence into a tree by priority.
func buildExpressionsTree(ops []*opToken, exprTerms []Expr) Expr {
	ret, _ := buildExpressionsTree0(ops, exprTerms, 0, 0)
	return ret
}

func buildExpressionsTree0(ops []*opToken, exprTerms []Expr, loc int, minPriority int) (Expr, int) {
	lhs := exprTerms[loc]
	i := loc
	for i < len(ops) && ops[i].priority >= minPriority {
		op := ops[i]
		rhs := exprTerms[i+1]
		j := i + 1
		for j < len(ops) && (ops[j].priority > op.priority || (ops[j].rightAssoc && ops[j].priority == op.priority)) {
			exprTerms[j] = rhs
			rhs, j = buildExpressionsTree0(ops, exprTerms, j, ops[j].priority)
		}
		lhs = makeNewExpression(lhs, rhs, op)
		i = j
	}
	return lhs, i
}

func makeNewExpression(left Expr, right Expr, op *opToken) Expr {
	switch op.tp {
	case EqualTP, NotEqualTP, LessTP, LessEqualTP, GreaterTP, GreaterEqualTP:
		return &Comparison{Op: op.op, Left: left, Right: right}
	case OrTP, AndTP:
		return &Logical{Op: op.op, Left: left, Right: right}
	}
	return &BinOp{Op: op.op, Left: left, Right: right}
}

// expression : binary [? expression ! expression]
func (parser *Parser) parseExpression() (Expr, error) {
	cond, err := parser.parseBinaryExpression()
	if err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(QuestionTP, true); !match {
		return cond, nil
	}
	then, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.require(BangTP); err != nil {
		return nil, err
	}
	otherwise, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	return &InlineCondition{Cond: cond, Then: then, Else: otherwise}, nil
}

func (parser *Parser) parseBinaryExpression() (Expr, error) {
	term, err := parser.parseExpressionTerm()
	if err != nil {
		return nil, err
	}
	exprTerms := []Expr{term}
	var ops []*opToken
	for parser.matchOp() {
		token := parser.getCurrentToken()
		parser.stepForward()
		ops = append(ops, &opToken{
			op:         token.Content,
			tp:         token.Tp,
			priority:   opPriorities[token.Tp],
			rightAssoc: token.Tp == PowerTP,
		})
		term, err := parser.parseExpressionTerm()
		if err != nil {
			return nil, err
		}
		exprTerms = append(exprTerms, term)
	}
	return buildExpressionsTree(ops, exprTerms), nil
}

func (parser *Parser) matchOp() bool {
	_, ok := opPriorities[parser.getCurrentToken().Tp]
	return ok
}

// parseExpressionTerm reads one operand: a literal, a name, a call, a parenthesized
// expression, an array or object literal, a lambda or a negation, followed by any
// ".member" or ".method(args)" suffixes.
func (parser *Parser) parseExpressionTerm() (Expr, error) {
	if parser.isLambdaAhead() {
		return parser.parseLambda()
	}
	token := parser.getCurrentToken()
	var term Expr
	switch token.Tp {
	case MinusTP:
		parser.stepForward()
		x, err := parser.parseExpressionTerm()
		if err != nil {
			return nil, err
		}
		return &Negation{X: x}, nil
	case IntegerTP:
		value, err := strconv.ParseInt(token.Content, 10, 64)
		if err != nil {
			return nil, parser.makeError("invalid integer literal")
		}
		parser.stepForward()
		term = &IntegerLit{Value: value, Raw: token.Content}
	case DoubleLiteralTP:
		value, err := strconv.ParseFloat(token.Content, 64)
		if err != nil {
			return nil, parser.makeError("invalid double literal")
		}
		parser.stepForward()
		term = &DoubleLit{Value: value, Raw: token.Content}
	case BooleanTP:
		parser.stepForward()
		term = &BooleanLit{Value: token.Content == "True"}
	case StringTP:
		parser.stepForward()
		term = &StringLit{Value: token.Content}
	case TemplateStringTP:
		parser.stepForward()
		term = &TemplateString{Raw: token.Content}
	case SelfTP:
		parser.stepForward()
		term = &Self{}
	case IdentifierTP:
		parser.stepForward()
		if parser.getCurrentToken().Tp == LeftParentThesesTP {
			args, err := parser.parseArgs()
			if err != nil {
				return nil, err
			}
			term = &FunCall{Name: token.Content, Args: args}
		} else {
			term = &Identifier{Name: token.Content}
		}
	case LeftParentThesesTP:
		parser.stepForward()
		expr, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.require(RightParentThesesTP); err != nil {
			return nil, err
		}
		term = expr
	case LeftSquareBracketTP:
		expr, err := parser.parseArrayExpression()
		if err != nil {
			return nil, err
		}
		term = expr
	case LeftBraceTP:
		expr, err := parser.parseObjectLiteral()
		if err != nil {
			return nil, err
		}
		term = expr
	default:
		return nil, parser.makeError("expected an expression")
	}
	return parser.parseMemberSuffix(term)
}

func (parser *Parser) parseMemberSuffix(term Expr) (Expr, error) {
	for {
		if _, match := parser.expectToken(DotTP, true); !match {
			return term, nil
		}
		name, err := parser.require(IdentifierTP)
		if err != nil {
			return nil, err
		}
		if parser.getCurrentToken().Tp != LeftParentThesesTP {
			term = &MemberAccess{Object: term, Member: name.Content}
			continue
		}
		args, err := parser.parseArgs()
		if err != nil {
			return nil, err
		}
		term = &MethodCall{Object: term, Method: name.Content, Args: args}
	}
}

// args : ( ) | ( expression [, expression]* )
func (parser *Parser) parseArgs() (args []Expr, err error) {
	if _, err := parser.require(LeftParentThesesTP); err != nil {
		return nil, err
	}
	if _, match := parser.expectToken(RightParentThesesTP, true); match {
		return nil, nil
	}
	args, err = parser.parseExpressionList()
	if err != nil {
		return nil, err
	}
	if _, err := parser.require(RightParentThesesTP); err != nil {
		return nil, err
	}
	return args, nil
}

func (parser *Parser) parseExpressionList() (exprs []Expr, err error) {
	for {
		expr, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if _, match := parser.expectToken(CommaTP, true); !match {
			return exprs, nil
		}
	}
}

// isLambdaAhead scans "type name [, type name]* =>" without consuming anything.
func (parser *Parser) isLambdaAhead() bool {
	n := 0
	for {
		tp := parser.peek(n).Tp
		if !tp.IsBuiltinType() && tp != IdentifierTP {
			return false
		}
		n++
		for parser.peek(n).Tp == LeftSquareBracketTP && parser.peek(n+1).Tp == RightSquareBracketTP {
			n += 2
		}
		if parser.peek(n).Tp != IdentifierTP {
			return false
		}
		n++
		switch parser.peek(n).Tp {
		case ArrowTP:
			return true
		case CommaTP:
			n++
		default:
			return false
		}
	}
}

// lambda : param [, param]* => expression
func (parser *Parser) parseLambda() (*Lambda, error) {
	lambda := &Lambda{}
	for {
		param, err := parser.parseParam()
		if err != nil {
			return nil, err
		}
		lambda.Params = append(lambda.Params, param)
		if _, match := parser.expectToken(CommaTP, true); !match {
			break
		}
	}
	if _, err := parser.require(ArrowTP); err != nil {
		return nil, err
	}
	body, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	lambda.Body = body
	return lambda, nil
}

// array : [ ] | [ args ] | [ expression ... expression ] | [ expression for param in expression [when expression] ]
func (parser *Parser) parseArrayExpression() (Expr, error) {
	parser.stepForward()
	if _, match := parser.expectToken(RightSquareBracketTP, true); match {
		return &ArrayLiteral{}, nil
	}
	first, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	var expr Expr
	switch parser.getCurrentToken().Tp {
	case EllipsisTP:
		parser.stepForward()
		end, err := parser.parseExpression()
		if err != nil {
			return nil, err
		}
		expr = &ArrayRange{Start: first, End: end}
	case ForTP:
		expr, err = parser.parseComprehension(first)
		if err != nil {
			return nil, err
		}
	default:
		elements := []Expr{first}
		if _, match := parser.expectToken(CommaTP, true); match {
			rest, err := parser.parseExpressionList()
			if err != nil {
				return nil, err
			}
			elements = append(elements, rest...)
		}
		expr = &ArrayLiteral{Elements: elements}
	}
	if _, err := parser.require(RightSquareBracketTP); err != nil {
		return nil, err
	}
	return expr, nil
}

func (parser *Parser) parseComprehension(element Expr) (*ArrayComprehension, error) {
	parser.stepForward()
	binding, err := parser.parseParam()
	if err != nil {
		return nil, err
	}
	if _, err := parser.require(InTP); err != nil {
		return nil, err
	}
	source, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	comprehension := &ArrayComprehension{Expr: element, Binding: binding, Source: source}
	if _, match := parser.expectToken(WhenTP, true); match {
		comprehension.Guard, err = parser.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	return comprehension, nil
}

// object : { } | { entry [, entry]* }
// entry  : ** IDENTIFIER | (INTEGER | STRING | DOUBLE) : expression
func (parser *Parser) parseObjectLiteral() (*ObjectLiteral, error) {
	parser.stepForward()
	object := &ObjectLiteral{}
	if _, match := parser.expectToken(RightBraceTP, true); match {
		return object, nil
	}
	for {
		entry, err := parser.parseObjectEntry()
		if err != nil {
			return nil, err
		}
		object.Entries = append(object.Entries, entry)
		if _, match := parser.expectToken(CommaTP, true); !match {
			break
		}
	}
	if _, err := parser.require(RightBraceTP); err != nil {
		return nil, err
	}
	return object, nil
}

func (parser *Parser) parseObjectEntry() (*ObjectEntry, error) {
	if _, match := parser.expectToken(PowerTP, true); match {
		name, err := parser.require(IdentifierTP)
		if err != nil {
			return nil, err
		}
		return &ObjectEntry{Unpack: name.Content}, nil
	}
	switch parser.getCurrentToken().Tp {
	case IntegerTP, StringTP, DoubleLiteralTP:
	default:
		return nil, parser.makeError("object keys must be integer, string or double literals")
	}
	key, err := parser.parseExpressionTerm()
	if err != nil {
		return nil, err
	}
	if _, err := parser.require(ColonTP); err != nil {
		return nil, err
	}
	value, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ObjectEntry{Key: key, Value: value}, nil
}
