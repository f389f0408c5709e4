// Package script parses the ackulator statement language into the statement
// stream a session executes. The surface is line-oriented only by
// convention: statements are self-delimiting, comments run from "//" to end
// of line, and every word is lexed as an identifier so that grammar keywords
// like "value" or "class" stay available as property names.
//
//	make unit_class called Length
//	make base_unit called Meter, Meters { class: Length, symbol: "m", metric }
//	make label called Velocity for Length / Time
//	make rule called CircleGeometry for any Circle {
//	    where: R is Circle.Radius,
//	    conclude: Circle is Round,
//	}
//	find MyPizza.Area using AreaOfACircle where Circle is MyPizza
//	check MyPizza.Area = Pi * 0.01 * Meters ^ 2
package script

import (
	"fmt"

	"github.com/joshua-maros/ackulator/internal/types"
)

// ParseError is a grammar failure at a source position.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

// Parse scans and parses a whole script into statements.
func Parse(file, src string) ([]types.Statement, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{file: file, toks: toks}
	return p.script()
}

// ParseExpr parses a single expression, the REPL's bare-input form. Trailing
// input after the expression is an error.
func ParseExpr(file, src string) (types.Expr, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{file: file, toks: toks}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if !p.at(EOF) {
		return nil, p.errf(p.peek(), "unexpected %s after expression", p.peek().Type)
	}
	return e, nil
}

type parser struct {
	file string
	toks []Token
	pos  int
}

func (p *parser) peek() Token { return p.toks[p.pos] }

func (p *parser) next() Token {
	tok := p.toks[p.pos]
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *parser) at(t TokenType) bool { return p.peek().Type == t }

func (p *parser) accept(t TokenType) (Token, bool) {
	if p.at(t) {
		return p.next(), true
	}
	return Token{}, false
}

func (p *parser) expect(t TokenType, in string) (Token, error) {
	if tok, ok := p.accept(t); ok {
		return tok, nil
	}
	return Token{}, p.errf(p.peek(), "expected %s in %s, got %s", t, in, p.describe(p.peek()))
}

// word consumes the current token when it is the given soft keyword.
func (p *parser) word(w string) bool {
	if p.at(IDENT) && p.peek().Lexeme == w {
		p.next()
		return true
	}
	return false
}

func (p *parser) peekWord(w string) bool {
	return p.at(IDENT) && p.peek().Lexeme == w
}

func (p *parser) expectWord(w, in string) error {
	if p.word(w) {
		return nil
	}
	return p.errf(p.peek(), "expected %q in %s, got %s", w, in, p.describe(p.peek()))
}

func (p *parser) describe(tok Token) string {
	if tok.Type == IDENT || tok.Type == NUMBER {
		return fmt.Sprintf("%q", tok.Lexeme)
	}
	return tok.Type.String()
}

func (p *parser) errf(tok Token, format string, args ...any) error {
	return &ParseError{Line: tok.Line, Col: tok.Col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) posOf(tok Token) types.Pos {
	return types.Pos{File: p.file, Line: tok.Line, Col: tok.Col}
}

func (p *parser) script() ([]types.Statement, error) {
	var out []types.Statement
	for !p.at(EOF) {
		stmts, err := p.statement()
		if err != nil {
			return nil, err
		}
		out = append(out, stmts...)
	}
	return out, nil
}

func (p *parser) statement() ([]types.Statement, error) {
	tok := p.peek()
	if tok.Type != IDENT {
		return nil, p.errf(tok, "expected a statement, got %s", p.describe(tok))
	}
	switch tok.Lexeme {
	case "make":
		return p.makeStatement()
	case "find":
		st, err := p.findStatement()
		return wrap(st, err)
	case "check":
		st, err := p.checkStatement()
		return wrap(st, err)
	case "show":
		st, err := p.showStatement()
		return wrap(st, err)
	default:
		return nil, p.errf(tok, "expected make, find, check or show, got %q", tok.Lexeme)
	}
}

func wrap(st types.Statement, err error) ([]types.Statement, error) {
	if err != nil {
		return nil, err
	}
	return []types.Statement{st}, nil
}

func (p *parser) makeStatement() ([]types.Statement, error) {
	start := p.next() // make
	kindTok, err := p.expect(IDENT, "make statement")
	if err != nil {
		return nil, err
	}
	kind := kindTok.Lexeme
	if err := p.expectWord("called", "make statement"); err != nil {
		return nil, err
	}
	names, err := p.nameList()
	if err != nil {
		return nil, err
	}
	at := p.posOf(start)

	switch kind {
	case "unit_class":
		out := make([]types.Statement, len(names))
		for i, n := range names {
			out[i] = types.DeclareUnitClass{At: at, Name: n}
		}
		return out, nil

	case "entity_class":
		out := make([]types.Statement, len(names))
		for i, n := range names {
			out[i] = types.DeclareEntityClass{At: at, Name: n}
		}
		return out, nil

	case "base_unit":
		st, err := p.baseUnit(at, names)
		return wrap(st, err)

	case "derived_unit":
		st, err := p.derivedUnit(at, names)
		return wrap(st, err)

	case "label":
		if len(names) != 1 {
			return nil, p.errf(kindTok, "a label takes a single name, got %d", len(names))
		}
		if err := p.expectWord("for", "label declaration"); err != nil {
			return nil, err
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		return wrap(types.DeclareLabel{At: at, Name: names[0], Value: e}, nil)

	case "rule":
		if len(names) != 1 {
			return nil, p.errf(kindTok, "a rule takes a single name, got %d", len(names))
		}
		st, err := p.rule(at, names[0])
		return wrap(st, err)

	case "law":
		if len(names) != 1 {
			return nil, p.errf(kindTok, "a law takes a single name, got %d", len(names))
		}
		st, err := p.law(at, names[0])
		return wrap(st, err)

	case "value":
		if len(names) != 1 {
			return nil, p.errf(kindTok, "a value takes a single name, got %d", len(names))
		}
		st, err := p.value(at, names[0])
		return wrap(st, err)

	default:
		return nil, p.errf(kindTok,
			"unknown make kind %q, expected unit_class, base_unit, derived_unit, label, entity_class, rule, law or value", kind)
	}
}

func (p *parser) nameList() ([]string, error) {
	tok, err := p.expect(IDENT, "name list")
	if err != nil {
		return nil, err
	}
	names := []string{tok.Lexeme}
	for {
		if _, ok := p.accept(COMMA); !ok {
			return names, nil
		}
		tok, err := p.expect(IDENT, "name list")
		if err != nil {
			return nil, err
		}
		names = append(names, tok.Lexeme)
	}
}

func (p *parser) baseUnit(at types.Pos, names []string) (types.Statement, error) {
	st := types.DeclareBaseUnit{At: at, Names: names}
	modeSet := false
	err := p.block("base_unit", func(key Token) error {
		switch key.Lexeme {
		case "class":
			if st.Class != "" {
				return p.errf(key, "class given twice")
			}
			if _, err := p.expect(COLON, "base_unit class"); err != nil {
				return err
			}
			tok, err := p.expect(IDENT, "base_unit class")
			if err != nil {
				return err
			}
			st.Class = tok.Lexeme
		case "symbol":
			if st.Symbol != "" {
				return p.errf(key, "symbol given twice")
			}
			if _, err := p.expect(COLON, "base_unit symbol"); err != nil {
				return err
			}
			tok, err := p.expect(STRING, "base_unit symbol")
			if err != nil {
				return err
			}
			st.Symbol = tok.Text
		case "metric":
			if modeSet {
				return p.errf(key, "prefix mode given twice")
			}
			st.Prefixes = types.PrefixMetric
			modeSet = true
		case "partial_metric":
			if modeSet {
				return p.errf(key, "prefix mode given twice")
			}
			st.Prefixes = types.PrefixPartialMetric
			modeSet = true
		default:
			return p.errf(key, "unknown base_unit field %q, expected class, symbol, metric or partial_metric", key.Lexeme)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if st.Class == "" {
		return nil, &ParseError{Line: at.Line, Col: at.Col, Msg: "base_unit needs a class"}
	}
	return st, nil
}

func (p *parser) derivedUnit(at types.Pos, names []string) (types.Statement, error) {
	st := types.DeclareDerivedUnit{At: at, Names: names}
	err := p.block("derived_unit", func(key Token) error {
		switch key.Lexeme {
		case "symbol":
			if st.Symbol != "" {
				return p.errf(key, "symbol given twice")
			}
			if _, err := p.expect(COLON, "derived_unit symbol"); err != nil {
				return err
			}
			tok, err := p.expect(STRING, "derived_unit symbol")
			if err != nil {
				return err
			}
			st.Symbol = tok.Text
		case "value":
			if st.Value != nil {
				return p.errf(key, "value given twice")
			}
			if _, err := p.expect(COLON, "derived_unit value"); err != nil {
				return err
			}
			e, err := p.expr()
			if err != nil {
				return err
			}
			st.Value = e
		default:
			return p.errf(key, "unknown derived_unit field %q, expected symbol or value", key.Lexeme)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if st.Value == nil {
		return nil, &ParseError{Line: at.Line, Col: at.Col, Msg: "derived_unit needs a value"}
	}
	return st, nil
}

// block parses "{ entry, entry, }" where each entry starts with an IDENT key
// handed to the entry callback. Trailing commas are fine.
func (p *parser) block(in string, entry func(key Token) error) error {
	if _, err := p.expect(LBRACE, in); err != nil {
		return err
	}
	for {
		if _, ok := p.accept(RBRACE); ok {
			return nil
		}
		key, err := p.expect(IDENT, in)
		if err != nil {
			return err
		}
		if err := entry(key); err != nil {
			return err
		}
		if _, ok := p.accept(COMMA); ok {
			continue
		}
		if _, ok := p.accept(RBRACE); ok {
			return nil
		}
		return p.errf(p.peek(), "expected ',' or '}' in %s, got %s", in, p.describe(p.peek()))
	}
}

func (p *parser) quantifier(in string) (types.QuantifiedVar, error) {
	if err := p.expectWord("for", in); err != nil {
		return types.QuantifiedVar{}, err
	}
	if err := p.expectWord("any", in); err != nil {
		return types.QuantifiedVar{}, err
	}
	tok, err := p.expect(IDENT, in)
	if err != nil {
		return types.QuantifiedVar{}, err
	}
	// whether the variable name also names a class is the session's call
	return types.QuantifiedVar{Var: tok.Lexeme}, nil
}

func (p *parser) rule(at types.Pos, name string) (types.Statement, error) {
	st := types.DeclareRule{At: at, Name: name}
	binding, err := p.quantifier("rule declaration")
	if err != nil {
		return nil, err
	}
	st.Binding = binding

	err = p.block("rule body", func(key Token) error {
		switch key.Lexeme {
		case "where":
			if _, err := p.expect(COLON, "rule where"); err != nil {
				return err
			}
			cond, err := p.ruleCondition()
			if err != nil {
				return err
			}
			st.Wheres = append(st.Wheres, cond)
		case "conclude":
			if _, err := p.expect(COLON, "rule conclude"); err != nil {
				return err
			}
			con, err := p.conclusion()
			if err != nil {
				return err
			}
			st.Concludes = append(st.Concludes, con)
		default:
			return p.errf(key, "unknown rule entry %q, expected where or conclude", key.Lexeme)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(st.Concludes) == 0 {
		return nil, &ParseError{Line: at.Line, Col: at.Col,
			Msg: fmt.Sprintf("rule %s concludes nothing", name)}
	}
	return st, nil
}

// ruleCondition parses "R is Circle.Radius" (a property binding) or
// "X isa Circle" (a membership test).
func (p *parser) ruleCondition() (types.RuleCondition, error) {
	subj, err := p.expect(IDENT, "rule where")
	if err != nil {
		return types.RuleCondition{}, err
	}
	at := p.posOf(subj)
	if p.word("is") {
		src, err := p.propRef("rule where")
		if err != nil {
			return types.RuleCondition{}, err
		}
		return types.RuleCondition{At: at, Kind: types.CondBind, Subject: subj.Lexeme, Source: src}, nil
	}
	if p.word("isa") {
		cls, err := p.expect(IDENT, "rule where")
		if err != nil {
			return types.RuleCondition{}, err
		}
		return types.RuleCondition{At: at, Kind: types.CondIsa, Subject: subj.Lexeme, Class: cls.Lexeme}, nil
	}
	return types.RuleCondition{}, p.errf(p.peek(), "expected \"is\" or \"isa\" after %q", subj.Lexeme)
}

// conclusion parses "Circle is Round", "R isa Length" or
// "Circle.Diameter isa Length".
func (p *parser) conclusion() (types.Conclusion, error) {
	subj, err := p.expect(IDENT, "rule conclude")
	if err != nil {
		return types.Conclusion{}, err
	}
	at := p.posOf(subj)

	if _, ok := p.accept(DOT); ok {
		prop, err := p.expect(IDENT, "rule conclude")
		if err != nil {
			return types.Conclusion{}, err
		}
		if err := p.expectWord("isa", "rule conclude"); err != nil {
			return types.Conclusion{}, err
		}
		dim, err := p.expr()
		if err != nil {
			return types.Conclusion{}, err
		}
		return types.Conclusion{
			At:     at,
			Kind:   types.ConcludeType,
			Target: types.PropRef{At: at, Entity: subj.Lexeme, Property: prop.Lexeme},
			Dim:    dim,
		}, nil
	}

	if p.word("is") {
		cls, err := p.expect(IDENT, "rule conclude")
		if err != nil {
			return types.Conclusion{}, err
		}
		return types.Conclusion{At: at, Kind: types.ConcludeMembership, Subject: subj.Lexeme, Class: cls.Lexeme}, nil
	}
	if p.word("isa") {
		dim, err := p.expr()
		if err != nil {
			return types.Conclusion{}, err
		}
		return types.Conclusion{At: at, Kind: types.ConcludeType, Subject: subj.Lexeme, Dim: dim}, nil
	}
	return types.Conclusion{}, p.errf(p.peek(), "expected \"is\" or \"isa\" after %q", subj.Lexeme)
}

func (p *parser) law(at types.Pos, name string) (types.Statement, error) {
	st := types.DeclareLaw{At: at, Name: name}
	binding, err := p.quantifier("law declaration")
	if err != nil {
		return nil, err
	}
	st.Binding = binding

	haveEquation := false
	err = p.block("law body", func(key Token) error {
		switch key.Lexeme {
		case "where":
			if _, err := p.expect(COLON, "law where"); err != nil {
				return err
			}
			nameTok, err := p.expect(IDENT, "law where")
			if err != nil {
				return err
			}
			if err := p.expectWord("is", "law where"); err != nil {
				return err
			}
			src, err := p.propRef("law where")
			if err != nil {
				return err
			}
			st.Wheres = append(st.Wheres, types.LawBinding{
				At: p.posOf(nameTok), Name: nameTok.Lexeme, Source: src,
			})
		case "equation":
			if haveEquation {
				return p.errf(key, "a law has a single equation")
			}
			if _, err := p.expect(COLON, "law equation"); err != nil {
				return err
			}
			left, err := p.expr()
			if err != nil {
				return err
			}
			if _, err := p.expect(EQUALS, "law equation"); err != nil {
				return err
			}
			right, err := p.expr()
			if err != nil {
				return err
			}
			st.Equation = types.Equation{Left: left, Right: right}
			haveEquation = true
		default:
			return p.errf(key, "unknown law entry %q, expected where or equation", key.Lexeme)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveEquation {
		return nil, &ParseError{Line: at.Line, Col: at.Col,
			Msg: fmt.Sprintf("law %s needs an equation", name)}
	}
	return st, nil
}

func (p *parser) value(at types.Pos, name string) (types.Statement, error) {
	if err := p.expectWord("for", "value declaration"); err != nil {
		return nil, err
	}
	classes, err := p.nameList()
	if err != nil {
		return nil, err
	}
	st := types.DeclareValue{At: at, Name: name, Classes: classes}
	if !p.at(LBRACE) {
		return st, nil
	}
	err = p.block("value body", func(key Token) error {
		if _, err := p.expect(COLON, "value property"); err != nil {
			return err
		}
		e, err := p.expr()
		if err != nil {
			return err
		}
		st.Props = append(st.Props, types.PropertyInit{
			At: p.posOf(key), Name: key.Lexeme, Value: e,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (p *parser) findStatement() (types.Statement, error) {
	start := p.next() // find
	target, err := p.propRef("find statement")
	if err != nil {
		return nil, err
	}
	st := types.Find{At: p.posOf(start), Target: target}
	if p.word("using") {
		tok, err := p.expect(IDENT, "find using")
		if err != nil {
			return nil, err
		}
		st.Law = tok.Lexeme
	}
	if p.word("where") {
		for {
			v, err := p.expect(IDENT, "find where")
			if err != nil {
				return nil, err
			}
			if err := p.expectWord("is", "find where"); err != nil {
				return nil, err
			}
			e, err := p.expect(IDENT, "find where")
			if err != nil {
				return nil, err
			}
			st.Bindings = append(st.Bindings, types.FindBinding{
				At: p.posOf(v), Var: v.Lexeme, Entity: e.Lexeme,
			})
			if _, ok := p.accept(COMMA); !ok {
				break
			}
		}
	}
	return st, nil
}

func (p *parser) checkStatement() (types.Statement, error) {
	start := p.next() // check
	left, err := p.expr()
	if err != nil {
		return nil, err
	}
	var kind types.PredKind
	switch {
	case p.at(EQUALS):
		p.next()
		kind = types.PredEqual
	case p.word("is"):
		kind = types.PredIs
	case p.word("isa"):
		kind = types.PredIsa
	default:
		return nil, p.errf(p.peek(), "expected =, \"is\" or \"isa\" in check, got %s", p.describe(p.peek()))
	}
	right, err := p.expr()
	if err != nil {
		return nil, err
	}
	return types.Check{
		At:   p.posOf(start),
		Pred: types.Predicate{Kind: kind, Left: left, Right: right},
	}, nil
}

func (p *parser) showStatement() (types.Statement, error) {
	start := p.next() // show
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	st := types.Show{At: p.posOf(start), Expr: e}
	if p.word("is") {
		against, err := p.expr()
		if err != nil {
			return nil, err
		}
		st.Against = against
	}
	return st, nil
}

// propRef parses the Entity.Property form.
func (p *parser) propRef(in string) (types.PropRef, error) {
	entity, err := p.expect(IDENT, in)
	if err != nil {
		return types.PropRef{}, err
	}
	if _, err := p.expect(DOT, in); err != nil {
		return types.PropRef{}, err
	}
	prop, err := p.expect(IDENT, in)
	if err != nil {
		return types.PropRef{}, err
	}
	return types.PropRef{At: p.posOf(entity), Entity: entity.Lexeme, Property: prop.Lexeme}, nil
}

// Expression grammar, loosest to tightest: + -, * /, unary -, ^ (right
// associative, binding tighter than negation so -2^2 is -(2^2)).

func (p *parser) expr() (types.Expr, error) {
	return p.sum()
}

func (p *parser) sum() (types.Expr, error) {
	left, err := p.product()
	if err != nil {
		return nil, err
	}
	for {
		var op types.BinaryOp
		switch {
		case p.at(PLUS):
			op = types.OpAdd
		case p.at(MINUS):
			op = types.OpSub
		default:
			return left, nil
		}
		tok := p.next()
		right, err := p.product()
		if err != nil {
			return nil, err
		}
		left = types.Binary{At: p.posOf(tok), Op: op, X: left, Y: right}
	}
}

func (p *parser) product() (types.Expr, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		var op types.BinaryOp
		switch {
		case p.at(STAR):
			op = types.OpMul
		case p.at(SLASH):
			op = types.OpDiv
		default:
			return left, nil
		}
		tok := p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = types.Binary{At: p.posOf(tok), Op: op, X: left, Y: right}
	}
}

func (p *parser) unary() (types.Expr, error) {
	if tok, ok := p.accept(MINUS); ok {
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return types.Unary{At: p.posOf(tok), Op: types.UnaryNeg, X: x}, nil
	}
	return p.power()
}

func (p *parser) power() (types.Expr, error) {
	left, err := p.primary()
	if err != nil {
		return nil, err
	}
	if tok, ok := p.accept(CARET); ok {
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		return types.Binary{At: p.posOf(tok), Op: types.OpPow, X: left, Y: right}, nil
	}
	return left, nil
}

func (p *parser) primary() (types.Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case NUMBER:
		p.next()
		return types.NumberLit{At: p.posOf(tok), Value: tok.Value, Text: tok.Lexeme, Trunc: tok.Trunc}, nil

	case IDENT:
		p.next()
		if p.at(DOT) && p.toks[p.pos+1].Type == IDENT {
			p.next()
			prop := p.next()
			return types.PropRef{At: p.posOf(tok), Entity: tok.Lexeme, Property: prop.Lexeme}, nil
		}
		return types.NameRef{At: p.posOf(tok), Name: tok.Lexeme}, nil

	case LPAREN:
		p.next()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN, "parenthesized expression"); err != nil {
			return nil, err
		}
		return e, nil

	default:
		return nil, p.errf(tok, "expected an expression, got %s", p.describe(tok))
	}
}
