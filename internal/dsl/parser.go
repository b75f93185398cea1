package dsl

// binding power for binary operators, lowest first; assignment sits below all
// of them and is handled separately because it is right-associative.
type binaryInfo struct {
	prec int
	op   BinaryOperator
}

var binaryOps = map[TokenType]binaryInfo{
	TokenOr:      {1, OpOr},
	TokenAnd:     {2, OpAnd},
	TokenEq:      {3, OpEq},
	TokenNeq:     {3, OpNeq},
	TokenGt:      {4, OpGt},
	TokenGte:     {4, OpGte},
	TokenLt:      {4, OpLt},
	TokenLte:     {4, OpLte},
	TokenPlus:    {5, OpAdd},
	TokenMinus:   {5, OpSub},
	TokenStar:    {6, OpMul},
	TokenSlash:   {6, OpDiv},
	TokenPercent: {6, OpMod},
}

// Parser builds a Program from a token slice. It stops at the first error.
// Newlines are statement separators at the top level but are ignored inside
// parentheses and call argument lists.
type Parser struct {
	tokens []Token
	pos    int
	depth  int
}

// NewParser creates a parser over tokens produced by Tokenize.
func NewParser(tokens []Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenEOF {
		tokens = append(tokens, Token{Type: TokenEOF})
	}
	return &Parser{tokens: tokens}
}

// Parse parses a token slice into a Program.
func Parse(tokens []Token) (*Program, error) {
	return NewParser(tokens).ParseProgram()
}

// ParseSource tokenizes and parses src.
func ParseSource(src string) (*Program, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}

// ParseProgram parses statements separated by one or more newlines.
func (p *Parser) ParseProgram() (*Program, error) {
	prog := &Program{}
	p.skipNewlines()
	for p.peek().Type != TokenEOF {
		stmt, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)

		switch tok := p.peek(); tok.Type {
		case TokenNewline:
			p.skipNewlines()
		case TokenEOF:
		default:
			return nil, p.errorAt(tok, "expected newline or end of input after statement, found %s", tok.describe())
		}
	}
	return prog, nil
}

func (p *Parser) at(i int) Token {
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

// peekAt returns the n-th upcoming token, honouring newline skipping.
func (p *Parser) peekAt(n int) Token {
	i := p.pos
	for {
		tok := p.at(i)
		if p.depth > 0 && tok.Type == TokenNewline {
			i++
			continue
		}
		if n == 0 || tok.Type == TokenEOF {
			return tok
		}
		n--
		i++
	}
}

func (p *Parser) peek() Token { return p.peekAt(0) }

func (p *Parser) next() Token {
	for p.depth > 0 && p.at(p.pos).Type == TokenNewline {
		p.pos++
	}
	tok := p.at(p.pos)
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) skipNewlines() {
	for p.at(p.pos).Type == TokenNewline {
		p.pos++
	}
}

func (p *Parser) expect(tt TokenType, context string) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.errorAt(tok, "expected %s %s, found %s", tt, context, tok.describe())
	}
	return p.next(), nil
}

func (p *Parser) errorAt(tok Token, format string, args ...interface{}) error {
	return newError(ParseError, tok.Pos, format, args...)
}

// expression := IDENT '=' expression | disjunction
func (p *Parser) parseExpression() (Expr, error) {
	if tok := p.peek(); tok.Type == TokenIdent && p.peekAt(1).Type == TokenAssign {
		p.next()
		p.next()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &Assignment{Name: tok.Lexeme, Value: value, At: tok.Pos}, nil
	}

	expr, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type == TokenAssign {
		return nil, p.errorAt(tok, "left side of '=' must be a bare identifier")
	}
	return expr, nil
}

// parseBinary climbs the precedence table; every binary level is left-associative.
func (p *Parser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		info, ok := binaryOps[tok.Type]
		if !ok || info.prec < minPrec {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(info.prec + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: info.op, Left: left, Right: right, At: tok.Pos}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	switch tok := p.peek(); tok.Type {
	case TokenNot:
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryNot{Operand: operand, At: tok.Pos}, nil
	case TokenMinus:
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryMinus{Operand: operand, At: tok.Pos}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenNumber:
		p.next()
		return &NumberLiteral{Value: tok.Number, At: tok.Pos}, nil
	case TokenString:
		p.next()
		return &StringLiteral{Value: tok.Text, At: tok.Pos}, nil
	case TokenTrue, TokenFalse:
		p.next()
		return &BoolLiteral{Value: tok.Type == TokenTrue, At: tok.Pos}, nil
	case TokenIdent:
		p.next()
		if p.peek().Type == TokenLParen {
			return p.parseCall(tok)
		}
		return &Identifier{Name: tok.Lexeme, At: tok.Pos}, nil
	case TokenLParen:
		p.next()
		p.depth++
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, "to close group"); err != nil {
			return nil, err
		}
		p.depth--
		return &Grouping{Inner: inner, At: tok.Pos}, nil
	case TokenIf:
		return p.parseConditional()
	}
	return nil, p.errorAt(tok, "unexpected %s, expected an expression", tok.describe())
}

// call := IDENT '(' (expression (',' expression)*)? ')'
func (p *Parser) parseCall(name Token) (Expr, error) {
	p.next() // (
	p.depth++
	call := &Call{Name: name.Lexeme, At: name.Pos}
	if p.peek().Type != TokenRParen {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if p.peek().Type != TokenComma {
				break
			}
			p.next()
		}
	}
	if _, err := p.expect(TokenRParen, "to close call to "+name.Lexeme); err != nil {
		return nil, err
	}
	p.depth--
	return call, nil
}

// conditional := 'if' expression 'then' expression 'else' expression
func (p *Parser) parseConditional() (Expr, error) {
	ifTok := p.next()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenThen, "after if condition"); err != nil {
		return nil, err
	}
	thenExpr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenElse, "in if expression"); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Conditional{Cond: cond, Then: thenExpr, Else: elseExpr, At: ifTok.Pos}, nil
}
