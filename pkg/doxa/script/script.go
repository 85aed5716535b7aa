// Package script implements the textual batch surface of the reasoner:
// declaration directives, KB axioms, named formulas, and Assert/Refute
// expectations, with the usual connective syntax on top of the core's
// negation/disjunction/existential formula tree.
package script

import (
	"fmt"
	"strconv"

	"github.com/cognicore/doxa/pkg/doxa"
	"github.com/cognicore/doxa/pkg/doxa/clause"
	"github.com/cognicore/doxa/pkg/doxa/formula"
	"github.com/cognicore/doxa/pkg/doxa/term"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokNewline
	tokIdent
	tokNumber
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokLAngle
	tokRAngle
	tokSlash
	tokColon
	tokAssign  // :=
	tokArrow   // ->
	tokImplies // =>
	tokEq      // ==
	tokNeq     // !=
	tokAnd     // &&
	tokOr      // ||
	tokNot     // !
)

type token struct {
	kind tokKind
	text string
	line int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	if t.kind == tokNewline {
		return "end of line"
	}
	return fmt.Sprintf("%q", t.text)
}

func lex(src string) ([]token, error) {
	var toks []token
	line := 1
	i := 0
	emit := func(k tokKind, text string) { toks = append(toks, token{kind: k, text: text, line: line}) }
	for i < len(src) {
		ch := src[i]
		switch {
		case ch == '\n':
			emit(tokNewline, "\n")
			line++
			i++
		case ch == ' ' || ch == '\t' || ch == '\r':
			i++
		case ch == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case isIdentStart(ch):
			j := i
			for j < len(src) && isIdentPart(src[j]) {
				j++
			}
			emit(tokIdent, src[i:j])
			i = j
		case ch >= '0' && ch <= '9':
			j := i
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			emit(tokNumber, src[i:j])
			i = j
		default:
			two := ""
			if i+1 < len(src) {
				two = src[i : i+2]
			}
			switch two {
			case ":=":
				emit(tokAssign, two)
				i += 2
				continue
			case "->":
				emit(tokArrow, two)
				i += 2
				continue
			case "=>":
				emit(tokImplies, two)
				i += 2
				continue
			case "==":
				emit(tokEq, two)
				i += 2
				continue
			case "!=":
				emit(tokNeq, two)
				i += 2
				continue
			case "&&":
				emit(tokAnd, two)
				i += 2
				continue
			case "||":
				emit(tokOr, two)
				i += 2
				continue
			}
			switch ch {
			case '(':
				emit(tokLParen, "(")
			case ')':
				emit(tokRParen, ")")
			case ',':
				emit(tokComma, ",")
			case '.':
				emit(tokDot, ".")
			case '<':
				emit(tokLAngle, "<")
			case '>':
				emit(tokRAngle, ">")
			case '/':
				emit(tokSlash, "/")
			case ':':
				emit(tokColon, ":")
			case '!':
				emit(tokNot, "!")
			default:
				return nil, fmt.Errorf("line %d: unexpected character %q", line, string(ch))
			}
			i++
		}
	}
	emit(tokEOF, "")
	return toks, nil
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9') || ch == '\''
}

// Statement is one parsed directive.
type Statement struct {
	Line int
	// Kind is the directive keyword: Sort, Name, Variable, Function, KB,
	// Let, Assert, or Refute.
	Kind string
	// Formula is set for KB, Let, Assert, and Refute.
	Formula *formula.Formula
}

type parser struct {
	ctx  *doxa.Context
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokKind, what string) (token, error) {
	t := p.next()
	if t.kind != k {
		return t, fmt.Errorf("line %d: expected %s, got %s", t.line, what, t)
	}
	return t, nil
}

func (p *parser) skipNewlines() {
	for p.peek().kind == tokNewline {
		p.next()
	}
}

func (p *parser) endStatement() error {
	t := p.peek()
	if t.kind == tokNewline || t.kind == tokEOF {
		return nil
	}
	return fmt.Errorf("line %d: trailing input %s", t.line, t)
}

// statement parses one directive and applies its declarations to the
// context as a side effect.
func (p *parser) statement() (*Statement, error) {
	p.skipNewlines()
	if p.peek().kind == tokEOF {
		return nil, nil
	}
	t, err := p.expect(tokIdent, "a directive")
	if err != nil {
		return nil, err
	}
	st := &Statement{Line: t.line, Kind: t.text}
	switch t.text {
	case "Sort":
		id, err := p.expect(tokIdent, "a sort identifier")
		if err != nil {
			return nil, err
		}
		if err := p.ctx.RegisterSort(id.text); err != nil {
			return nil, fmt.Errorf("line %d: %w", id.line, err)
		}
	case "Name", "Variable":
		id, err := p.expect(tokIdent, "an identifier")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokArrow, "'->'"); err != nil {
			return nil, err
		}
		sortID, err := p.expect(tokIdent, "a sort identifier")
		if err != nil {
			return nil, err
		}
		if t.text == "Name" {
			err = p.ctx.RegisterName(id.text, sortID.text)
		} else {
			err = p.ctx.RegisterVariable(id.text, sortID.text)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", id.line, err)
		}
	case "Function":
		id, err := p.expect(tokIdent, "a function identifier")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokSlash, "'/'"); err != nil {
			return nil, err
		}
		ar, err := p.expect(tokNumber, "an arity")
		if err != nil {
			return nil, err
		}
		arity, _ := strconv.Atoi(ar.text)
		if _, err := p.expect(tokArrow, "'->'"); err != nil {
			return nil, err
		}
		sortID, err := p.expect(tokIdent, "a sort identifier")
		if err != nil {
			return nil, err
		}
		if err := p.ctx.RegisterFunction(id.text, arity, sortID.text); err != nil {
			return nil, fmt.Errorf("line %d: %w", id.line, err)
		}
	case "KB", "Assert", "Refute":
		if _, err := p.expect(tokColon, "':'"); err != nil {
			return nil, err
		}
		phi, err := p.formula()
		if err != nil {
			return nil, err
		}
		st.Formula = phi
	case "Let":
		id, err := p.expect(tokIdent, "a formula identifier")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokAssign, "':='"); err != nil {
			return nil, err
		}
		phi, err := p.formula()
		if err != nil {
			return nil, err
		}
		p.ctx.RegisterFormula(id.text, phi)
		st.Formula = phi
	default:
		return nil, fmt.Errorf("line %d: unknown directive %q", t.line, t.text)
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return st, nil
}

// formula parses with the precedence ->  <  ||  <  &&  <  unary.
func (p *parser) formula() (*formula.Formula, error) {
	lhs, err := p.disjunction()
	if err != nil {
		return nil, err
	}
	if p.peek().kind == tokArrow {
		p.next()
		rhs, err := p.formula()
		if err != nil {
			return nil, err
		}
		return formula.Or(formula.Not(lhs), rhs), nil
	}
	return lhs, nil
}

func (p *parser) disjunction() (*formula.Formula, error) {
	lhs, err := p.conjunction()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		rhs, err := p.conjunction()
		if err != nil {
			return nil, err
		}
		lhs = formula.Or(lhs, rhs)
	}
	return lhs, nil
}

func (p *parser) conjunction() (*formula.Formula, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		lhs = formula.Not(formula.Or(formula.Not(lhs), formula.Not(rhs)))
	}
	return lhs, nil
}

func (p *parser) unary() (*formula.Formula, error) {
	t := p.peek()
	switch {
	case t.kind == tokNot:
		p.next()
		phi, err := p.unary()
		if err != nil {
			return nil, err
		}
		return formula.Not(phi), nil
	case t.kind == tokIdent && t.text == "G":
		p.next()
		phi, err := p.unary()
		if err != nil {
			return nil, err
		}
		return formula.Guarantee(phi), nil
	case t.kind == tokIdent && (t.text == "Ex" || t.text == "Fa"):
		p.next()
		id, err := p.expect(tokIdent, "a variable")
		if err != nil {
			return nil, err
		}
		if !p.ctx.IsRegisteredVariable(id.text) {
			return nil, fmt.Errorf("line %d: %q is not a registered variable", id.line, id.text)
		}
		x, _ := p.ctx.LookupTerm(id.text)
		if _, err := p.expect(tokDot, "'.'"); err != nil {
			return nil, err
		}
		body, err := p.formula()
		if err != nil {
			return nil, err
		}
		if t.text == "Ex" {
			return formula.Exists(x, body), nil
		}
		return formula.Not(formula.Exists(x, formula.Not(body))), nil
	case t.kind == tokIdent && (t.text == "Know" || t.text == "Cons"):
		p.next()
		k, err := p.level()
		if err != nil {
			return nil, err
		}
		body, err := p.unary()
		if err != nil {
			return nil, err
		}
		if t.text == "Know" {
			return p.ctx.Know(k, body)
		}
		return p.ctx.Cons(k, body)
	case t.kind == tokIdent && t.text == "Bel":
		p.next()
		k, l, err := p.levelPair()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokLParen, "'('"); err != nil {
			return nil, err
		}
		ante, err := p.formula()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokImplies, "'=>'"); err != nil {
			return nil, err
		}
		conse, err := p.formula()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return p.ctx.Bel(k, l, ante, conse)
	case t.kind == tokLParen:
		p.next()
		phi, err := p.formula()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return phi, nil
	default:
		return p.atom()
	}
}

func (p *parser) level() (int, error) {
	if _, err := p.expect(tokLAngle, "'<'"); err != nil {
		return 0, err
	}
	n, err := p.expect(tokNumber, "a split level")
	if err != nil {
		return 0, err
	}
	if _, err := p.expect(tokRAngle, "'>'"); err != nil {
		return 0, err
	}
	k, _ := strconv.Atoi(n.text)
	return k, nil
}

func (p *parser) levelPair() (int, int, error) {
	if _, err := p.expect(tokLAngle, "'<'"); err != nil {
		return 0, 0, err
	}
	n1, err := p.expect(tokNumber, "a split level")
	if err != nil {
		return 0, 0, err
	}
	if _, err := p.expect(tokComma, "','"); err != nil {
		return 0, 0, err
	}
	n2, err := p.expect(tokNumber, "a split level")
	if err != nil {
		return 0, 0, err
	}
	if _, err := p.expect(tokRAngle, "'>'"); err != nil {
		return 0, 0, err
	}
	k, _ := strconv.Atoi(n1.text)
	l, _ := strconv.Atoi(n2.text)
	return k, l, nil
}

// atom parses either a named formula reference or an equality literal.
func (p *parser) atom() (*formula.Formula, error) {
	t := p.peek()
	if t.kind == tokIdent && p.ctx.IsRegisteredFormula(t.text) {
		p.next()
		phi, err := p.ctx.LookupFormula(t.text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", t.line, err)
		}
		return phi.Clone(), nil
	}
	t1, err := p.term()
	if err != nil {
		return nil, err
	}
	op := p.next()
	var lit clause.Literal
	switch op.kind {
	case tokEq:
		t2, err := p.term()
		if err != nil {
			return nil, err
		}
		lit, err = p.ctx.Eq(t1, t2)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", op.line, err)
		}
	case tokNeq:
		t2, err := p.term()
		if err != nil {
			return nil, err
		}
		lit, err = p.ctx.Neq(t1, t2)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", op.line, err)
		}
	default:
		return nil, fmt.Errorf("line %d: expected '==' or '!=', got %s", op.line, op)
	}
	return formula.Atomic(clause.Unit(lit)), nil
}

func (p *parser) term() (term.Term, error) {
	id, err := p.expect(tokIdent, "a term")
	if err != nil {
		return term.Term{}, err
	}
	if p.ctx.IsRegisteredFunction(id.text) {
		if _, err := p.expect(tokLParen, "'('"); err != nil {
			return term.Term{}, err
		}
		var args []term.Term
		for {
			a, err := p.term()
			if err != nil {
				return term.Term{}, err
			}
			args = append(args, a)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return term.Term{}, err
		}
		t, err := p.ctx.Term(id.text, args...)
		if err != nil {
			return term.Term{}, fmt.Errorf("line %d: %w", id.line, err)
		}
		return t, nil
	}
	t, err := p.ctx.LookupTerm(id.text)
	if err != nil {
		return term.Term{}, fmt.Errorf("line %d: %w", id.line, err)
	}
	return t, nil
}

// Parse lexes and parses src against ctx, applying declarations as they
// are read, and returns the statements in order.
func Parse(ctx *doxa.Context, src string) ([]*Statement, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{ctx: ctx, toks: toks}
	var stmts []*Statement
	for {
		st, err := p.statement()
		if err != nil {
			return stmts, err
		}
		if st == nil {
			return stmts, nil
		}
		stmts = append(stmts, st)
	}
}
