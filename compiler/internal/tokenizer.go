package internal

import (
	"bytes"
	"strings"

	"github.com/int0x101/O/util"
)

// A lazy, indentation aware Tokenizer for O.
//
// Source is consumed one physical line at a time. Every non-blank line yields its layout
// tokens (INDENT or DEDENTs, decided against indentStack), then its own tokens, then a single
// NEWLINE. Blank and comment-only lines yield nothing, so a run of them collapses into the
// NEWLINE of the preceding line. At the end of input one DEDENT is emitted per open block.
type Tokenizer struct {
	lines       [][]byte
	currentLine int
	currentPos  int
	indentStack []int
	pending     []*Token
	finished    bool
}

func NewTokenizer(src string) *Tokenizer {
	tokenizer := &Tokenizer{}
	tokenizer.Reset(src)
	return tokenizer
}

// Reset restarts the tokenizer on src with a fresh indentation stack.
func (tokenizer *Tokenizer) Reset(src string) {
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	tokenizer.lines = bytes.Split([]byte(src), []byte("\n"))
	tokenizer.currentLine, tokenizer.currentPos = 0, 0
	tokenizer.indentStack = []int{0}
	tokenizer.pending = nil
	tokenizer.finished = false
}

// Next returns the next token. Once the input is exhausted it keeps returning EOF.
func (tokenizer *Tokenizer) Next() (*Token, error) {
	for len(tokenizer.pending) == 0 {
		if tokenizer.finished {
			return &Token{Tp: EOFTP, Line: tokenizer.currentLine}, nil
		}
		err := tokenizer.readLine()
		if err != nil {
			return nil, err
		}
	}
	token := tokenizer.pending[0]
	tokenizer.pending = tokenizer.pending[1:]
	return token, nil
}

// Tokenize drains the remaining tokens up to, not including, EOF.
func (tokenizer *Tokenizer) Tokenize() (tokens []*Token, err error) {
	for {
		token, err := tokenizer.Next()
		if err != nil {
			return nil, err
		}
		if token.Tp == EOFTP {
			return tokens, nil
		}
		tokens = append(tokens, token)
	}
}

func (tokenizer *Tokenizer) readLine() error {
	if tokenizer.currentLine >= len(tokenizer.lines) {
		tokenizer.closeBlocks()
		return nil
	}
	line := tokenizer.lines[tokenizer.currentLine]
	tokenizer.currentLine++
	tokenizer.currentPos = 0
	if util.IsBlank(line) {
		return nil
	}
	err := tokenizer.layout(tokenizer.measureIndent(line))
	if err != nil {
		return err
	}
	for {
		token, err := tokenizer.getNextToken(line)
		if err != nil {
			return err
		}
		if token == nil {
			break
		}
		tokenizer.pending = append(tokenizer.pending, token)
	}
	tokenizer.emit(NewlineTP, "", len(line)+1)
	return nil
}

func (tokenizer *Tokenizer) measureIndent(line []byte) int {
	indent := 0
	for indent < len(line) && util.IsIndent(line[indent]) {
		indent++
	}
	return indent
}

// layout compares indent with the innermost open block and emits INDENT or DEDENTs.
func (tokenizer *Tokenizer) layout(indent int) error {
	top := tokenizer.indentStack[len(tokenizer.indentStack)-1]
	if indent > top {
		tokenizer.indentStack = append(tokenizer.indentStack, indent)
		tokenizer.emit(IndentTP, "", 1)
		return nil
	}
	for indent < top {
		tokenizer.indentStack = tokenizer.indentStack[:len(tokenizer.indentStack)-1]
		tokenizer.emit(DedentTP, "", indent+1)
		top = tokenizer.indentStack[len(tokenizer.indentStack)-1]
	}
	if indent != top {
		return &LexicalError{
			Line:   tokenizer.currentLine,
			Column: indent + 1,
			Msg:    "unindent does not match any outer indentation level",
		}
	}
	return nil
}

func (tokenizer *Tokenizer) closeBlocks() {
	for len(tokenizer.indentStack) > 1 {
		tokenizer.indentStack = tokenizer.indentStack[:len(tokenizer.indentStack)-1]
		tokenizer.emit(DedentTP, "", 1)
	}
	tokenizer.pending = append(tokenizer.pending, &Token{Tp: EOFTP, Line: tokenizer.currentLine})
	tokenizer.finished = true
}

func (tokenizer *Tokenizer) emit(tp TokenType, content string, column int) {
	tokenizer.pending = append(tokenizer.pending, &Token{
		Content: content,
		Line:    tokenizer.currentLine,
		Column:  column,
		Tp:      tp,
	})
}

// getNextToken returns the next token from line, or nil when the line is used up.
func (tokenizer *Tokenizer) getNextToken(line []byte) (*Token, error) {
	tokenizer.trimSpace(line)
	if !tokenizer.hasRemainCharacters(line) {
		return nil, nil
	}
	c := line[tokenizer.currentPos]
	switch {
	case c == '#':
		tokenizer.currentPos = len(line)
		return nil, nil
	case c == '"':
		return tokenizer.tokenString(line, StringTP, tokenizer.currentPos)
	case c == 't' && tokenizer.currentPos+1 < len(line) && line[tokenizer.currentPos+1] == '"':
		startPos := tokenizer.currentPos
		tokenizer.currentPos++
		return tokenizer.tokenString(line, TemplateStringTP, startPos)
	case util.IsNumber(c):
		return tokenizer.tokenNumber(line), nil
	case util.IsLetterOrUnderscore(c):
		return tokenizer.toKeywordOrIdentifier(line), nil
	default:
		return tokenizer.tokenSymbol(line)
	}
}

func (tokenizer *Tokenizer) trimSpace(line []byte) {
	for tokenizer.currentPos < len(line) {
		l := line[tokenizer.currentPos]
		if util.IsIndent(l) || l == '\r' {
			tokenizer.currentPos++
			continue
		}
		break
	}
}

func (tokenizer *Tokenizer) hasRemainCharacters(line []byte) bool {
	return tokenizer.currentPos < len(line)
}

// tokenSymbol matches the longest operator starting at the current position.
func (tokenizer *Tokenizer) tokenSymbol(line []byte) (*Token, error) {
	for size := 3; size > 0; size-- {
		end := tokenizer.currentPos + size
		if end > len(line) {
			continue
		}
		symbol := string(line[tokenizer.currentPos:end])
		tp, ok := symbolTokenTPMap[symbol]
		if !ok {
			continue
		}
		token := &Token{Content: symbol, Line: tokenizer.currentLine, Column: tokenizer.currentPos + 1, Tp: tp}
		tokenizer.currentPos = end
		return token, nil
	}
	return nil, tokenizer.makeError(string(line[tokenizer.currentPos]), "")
}

// tokenString reads a quoted literal. A backslash consumes the next character verbatim.
func (tokenizer *Tokenizer) tokenString(line []byte, tp TokenType, startPos int) (*Token, error) {
	quotePos := tokenizer.currentPos
	tokenizer.currentPos++
	for tokenizer.currentPos < len(line) {
		switch line[tokenizer.currentPos] {
		case '\\':
			tokenizer.currentPos += 2
			continue
		case '"':
			tokenizer.currentPos++
			return &Token{
				Content: string(line[quotePos+1 : tokenizer.currentPos-1]),
				Line:    tokenizer.currentLine,
				Column:  startPos + 1,
				Tp:      tp,
			}, nil
		}
		tokenizer.currentPos++
	}
	tokenizer.currentPos = startPos
	return nil, tokenizer.makeError("\"", "unterminated string literal")
}

// tokenNumber reads an integer, or a double when a dot is directly followed by a digit.
// "1...3" therefore reads as 1, ..., 3.
func (tokenizer *Tokenizer) tokenNumber(line []byte) *Token {
	startPos := tokenizer.currentPos
	tokenizer.skipDigits(line)
	tp := IntegerTP
	if tokenizer.currentPos+1 < len(line) && line[tokenizer.currentPos] == '.' && util.IsNumber(line[tokenizer.currentPos+1]) {
		tokenizer.currentPos++
		tokenizer.skipDigits(line)
		tp = DoubleLiteralTP
	}
	return &Token{
		Content: string(line[startPos:tokenizer.currentPos]),
		Line:    tokenizer.currentLine,
		Column:  startPos + 1,
		Tp:      tp,
	}
}

func (tokenizer *Tokenizer) skipDigits(line []byte) {
	for tokenizer.currentPos < len(line) && util.IsNumber(line[tokenizer.currentPos]) {
		tokenizer.currentPos++
	}
}

func (tokenizer *Tokenizer) toKeywordOrIdentifier(line []byte) *Token {
	startPos := tokenizer.currentPos
	for tokenizer.currentPos < len(line) && util.IsLetterOrUnderscoreOrNumber(line[tokenizer.currentPos]) {
		tokenizer.currentPos++
	}
	word := string(line[startPos:tokenizer.currentPos])
	tp, isKeyWord := keyWordTokenTPMap[word]
	if !isKeyWord {
		tp = IdentifierTP
	}
	return &Token{Content: word, Line: tokenizer.currentLine, Column: startPos + 1, Tp: tp}
}

func (tokenizer *Tokenizer) makeError(near string, msg string) error {
	return &LexicalError{Char: near, Line: tokenizer.currentLine, Column: tokenizer.currentPos + 1, Msg: msg}
}
