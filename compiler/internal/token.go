package internal

import "fmt"

// O source is made of:
// * KeyWord: int, str, bool, double, void, import, class, enum, when, otherwise, extends, self,
//            skip, for, in, escape, return, pass, switch, case, try, except.
// * Symbol: ( ) [ ] { } . , : @ ? ! + - * / % ** = += -= *= /= %= **= == != < <= > >= => ... || &&
// * Constant: integer, double, boolean (True, False), string ("xxx"), template string (t"xxx").
// * Identifier: letters, digits, underscore, not starting with a digit.
// * Comment: # to the end of line.
// * Layout: NEWLINE after every logical line, INDENT and DEDENT around blocks.

type TokenType int

const (
	IntTP                 TokenType = iota // int
	StrTP                                  // str
	BoolTP                                 // bool
	DoubleTP                               // double
	VoidTP                                 // void
	ImportTP                               // import
	ClassTP                                // class
	EnumTP                                 // enum
	WhenTP                                 // when
	OtherwiseTP                            // otherwise
	ExtendsTP                              // extends
	SelfTP                                 // self
	SkipTP                                 // skip
	ForTP                                  // for
	InTP                                   // in
	EscapeTP                               // escape
	ReturnTP                               // return
	PassTP                                 // pass
	SwitchTP                               // switch
	CaseTP                                 // case
	TryTP                                  // try
	ExceptTP                               // except
	LeftParentThesesTP                     // (
	RightParentThesesTP                    // )
	LeftSquareBracketTP                    // [
	RightSquareBracketTP                   // ]
	LeftBraceTP                            // {
	RightBraceTP                           // }
	DotTP                                  // .
	EllipsisTP                             // ...
	CommaTP                                // ,
	ColonTP                                // :
	AtTP                                   // @
	QuestionTP                             // ?
	BangTP                                 // !
	AddTP                                  // +
	MinusTP                                // -
	MultiplyTP                             // *
	DivideTP                               // /
	ModTP                                  // %
	PowerTP                                // **
	AssignTP                               // =
	AddAssignTP                            // +=
	MinusAssignTP                          // -=
	MultiplyAssignTP                       // *=
	DivideAssignTP                         // /=
	ModAssignTP                            // %=
	PowerAssignTP                          // **=
	EqualTP                                // ==
	NotEqualTP                             // !=
	LessTP                                 // <
	LessEqualTP                            // <=
	GreaterTP                              // >
	GreaterEqualTP                         // >=
	ArrowTP                                // =>
	OrTP                                   // ||
	AndTP                                  // &&
	IntegerTP                              // 1010
	DoubleLiteralTP                        // 3.14
	BooleanTP                              // True
	StringTP                               // "xxx"
	TemplateStringTP                       // t"xxx"
	IdentifierTP                           // varA
	NewlineTP
	IndentTP
	DedentTP
	EOFTP
)

// keyWordTokenTPMap is the mapping from identifier to the corresponding TokenTP.
var keyWordTokenTPMap = map[string]TokenType{
	"int":       IntTP,
	"str":       StrTP,
	"bool":      BoolTP,
	"double":    DoubleTP,
	"void":      VoidTP,
	"import":    ImportTP,
	"class":     ClassTP,
	"enum":      EnumTP,
	"when":      WhenTP,
	"otherwise": OtherwiseTP,
	"extends":   ExtendsTP,
	"self":      SelfTP,
	"skip":      SkipTP,
	"for":       ForTP,
	"in":        InTP,
	"escape":    EscapeTP,
	"return":    ReturnTP,
	"pass":      PassTP,
	"switch":    SwitchTP,
	"case":      CaseTP,
	"try":       TryTP,
	"except":    ExceptTP,
	"True":      BooleanTP,
	"False":     BooleanTP,
}

// symbolTokenTPMap holds every operator and punctuation. The tokenizer tries the
// longest candidate first, so "**=" wins over "**" and "*".
var symbolTokenTPMap = map[string]TokenType{
	"(":   LeftParentThesesTP,
	")":   RightParentThesesTP,
	"[":   LeftSquareBracketTP,
	"]":   RightSquareBracketTP,
	"{":   LeftBraceTP,
	"}":   RightBraceTP,
	".":   DotTP,
	"...": EllipsisTP,
	",":   CommaTP,
	":":   ColonTP,
	"@":   AtTP,
	"?":   QuestionTP,
	"!":   BangTP,
	"+":   AddTP,
	"-":   MinusTP,
	"*":   MultiplyTP,
	"/":   DivideTP,
	"%":   ModTP,
	"**":  PowerTP,
	"=":   AssignTP,
	"+=":  AddAssignTP,
	"-=":  MinusAssignTP,
	"*=":  MultiplyAssignTP,
	"/=":  DivideAssignTP,
	"%=":  ModAssignTP,
	"**=": PowerAssignTP,
	"==":  EqualTP,
	"!=":  NotEqualTP,
	"<":   LessTP,
	"<=":  LessEqualTP,
	">":   GreaterTP,
	">=":  GreaterEqualTP,
	"=>":  ArrowTP,
	"||":  OrTP,
	"&&":  AndTP,
}

var tokenTypeNames = map[TokenType]string{
	IntegerTP:        "INTEGER",
	DoubleLiteralTP:  "DOUBLE",
	BooleanTP:        "BOOLEAN",
	StringTP:         "STRING",
	TemplateStringTP: "TEMPLATE_STRING",
	IdentifierTP:     "IDENTIFIER",
	NewlineTP:        "NEWLINE",
	IndentTP:         "INDENT",
	DedentTP:         "DEDENT",
	EOFTP:            "EOF",
}

func init() {
	for word, tp := range keyWordTokenTPMap {
		if tp != BooleanTP {
			tokenTypeNames[tp] = word
		}
	}
	for symbol, tp := range symbolTokenTPMap {
		tokenTypeNames[tp] = symbol
	}
}

func (tp TokenType) String() string {
	if name, ok := tokenTypeNames[tp]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(tp))
}

// IsAssignOp reports whether tp starts the right hand side of an assignment.
func (tp TokenType) IsAssignOp() bool {
	switch tp {
	case AssignTP, AddAssignTP, MinusAssignTP, MultiplyAssignTP, DivideAssignTP, ModAssignTP, PowerAssignTP:
		return true
	}
	return false
}

// IsBuiltinType reports whether tp names one of the primitive types.
func (tp TokenType) IsBuiltinType() bool {
	switch tp {
	case IntTP, StrTP, BoolTP, DoubleTP, VoidTP:
		return true
	}
	return false
}

type Token struct {
	Content string
	Line    int
	Column  int
	Tp      TokenType
}

func (t *Token) String() string {
	switch t.Tp {
	case NewlineTP, IndentTP, DedentTP, EOFTP:
		return t.Tp.String()
	}
	return t.Content
}
