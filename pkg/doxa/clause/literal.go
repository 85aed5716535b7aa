// Package clause provides equality literals and clauses over terms.
//
// A literal is t1 == t2 or t1 != t2 between same-sorted terms, canonicalized
// so that the left-hand side is the larger term under the fixed term order.
// A clause is a deduplicated set of literals read as a disjunction.
package clause

import (
	"fmt"

	"github.com/cognicore/doxa/pkg/doxa/term"
)

// Literal is a canonicalized equality or inequality between two terms.
// The zero Literal is invalid for use; construct with Eq and Neq.
type Literal struct {
	lhs, rhs term.Term
	pos      bool
}

// Eq builds the literal t1 == t2. Both terms must have the same sort.
func Eq(t1, t2 term.Term) Literal {
	return newLiteral(t1, t2, true)
}

// Neq builds the literal t1 != t2. Both terms must have the same sort.
func Neq(t1, t2 term.Term) Literal {
	return newLiteral(t1, t2, false)
}

func newLiteral(t1, t2 term.Term, pos bool) Literal {
	if term.Compare(t1, t2) < 0 {
		t1, t2 = t2, t1
	}
	return Literal{lhs: t1, rhs: t2, pos: pos}
}

// Lhs returns the canonical left-hand side.
func (a Literal) Lhs() term.Term { return a.lhs }

// Rhs returns the canonical right-hand side.
func (a Literal) Rhs() term.Term { return a.rhs }

// Pos reports whether the literal is an equality.
func (a Literal) Pos() bool { return a.pos }

// Flip returns the literal with the opposite sign.
func (a Literal) Flip() Literal { return Literal{lhs: a.lhs, rhs: a.rhs, pos: !a.pos} }

// Valid reports whether the literal holds in every model: t == t, or
// n1 != n2 for distinct names.
func (a Literal) Valid() bool {
	if a.pos {
		return a.lhs == a.rhs
	}
	return a.lhs.Name() && a.rhs.Name() && a.lhs != a.rhs
}

// Invalid reports whether the literal holds in no model: t != t, or
// n1 == n2 for distinct names.
func (a Literal) Invalid() bool {
	if a.pos {
		return a.lhs.Name() && a.rhs.Name() && a.lhs != a.rhs
	}
	return a.lhs == a.rhs
}

// Ground reports whether no variable occurs in the literal.
func (a Literal) Ground() bool { return a.lhs.Ground() && a.rhs.Ground() }

// Primitive reports whether the lhs is a function applied to names and the
// rhs is a name, or both sides are names.
func (a Literal) Primitive() bool {
	if a.lhs.Name() && a.rhs.Name() {
		return true
	}
	return a.lhs.Primitive() && a.rhs.Name()
}

// QuasiPrimitive reports whether the lhs is a function applied to names or
// variables and the rhs is a name or a variable.
func (a Literal) QuasiPrimitive() bool {
	return a.lhs.QuasiPrimitive() && (a.rhs.Name() || a.rhs.Variable())
}

// FunctionFree reports whether no function symbol occurs in the literal.
func (a Literal) FunctionFree() bool { return !a.lhs.Function() && !a.rhs.Function() }

// Subsumes reports whether a implies b in every model. That is the case
// when a == b, or when a is t == n and b is t != n' for distinct names
// n, n'.
func Subsumes(a, b Literal) bool {
	if a == b {
		return true
	}
	return a.lhs == b.lhs && a.pos && !b.pos &&
		a.rhs.Name() && b.rhs.Name() && a.rhs != b.rhs
}

// Complementary reports whether a and b cannot hold together: equal and
// unequal versions of the same term pair, or t == n and t == n' for
// distinct names.
func Complementary(a, b Literal) bool {
	if a.lhs != b.lhs {
		return false
	}
	if a.rhs == b.rhs && a.pos != b.pos {
		return true
	}
	return a.pos && b.pos && a.rhs.Name() && b.rhs.Name() && a.rhs != b.rhs
}

// Substitute applies theta to both sides and re-canonicalizes.
func (a Literal) Substitute(f *term.Factory, theta func(term.Term) (term.Term, bool)) Literal {
	return newLiteral(f.Substitute(a.lhs, theta), f.Substitute(a.rhs, theta), a.pos)
}

// EachTerm calls fn for the lhs, the rhs, and every argument subterm, until
// fn returns false.
func (a Literal) EachTerm(fn func(term.Term) bool) bool {
	return eachTerm(a.lhs, fn) && eachTerm(a.rhs, fn)
}

func eachTerm(t term.Term, fn func(term.Term) bool) bool {
	if !fn(t) {
		return false
	}
	for _, arg := range t.Args() {
		if !eachTerm(arg, fn) {
			return false
		}
	}
	return true
}

func compareLiterals(a, b Literal) int {
	if c := term.Compare(a.lhs, b.lhs); c != 0 {
		return c
	}
	if c := term.Compare(a.rhs, b.rhs); c != 0 {
		return c
	}
	switch {
	case a.pos == b.pos:
		return 0
	case a.pos:
		return 1
	}
	return -1
}

func (a Literal) String() string {
	op := "=="
	if !a.pos {
		op = "!="
	}
	return fmt.Sprintf("%v %s %v", a.lhs, op, a.rhs)
}
