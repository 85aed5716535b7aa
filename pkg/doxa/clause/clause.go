package clause

import (
	"sort"
	"strings"

	"github.com/cognicore/doxa/pkg/doxa/term"
)

// Clause is a finite set of literals read as a disjunction. Literals are
// stored sorted and deduplicated; invalid literals are dropped at
// construction since they cannot contribute to a model. The zero Clause is
// the empty clause, i.e. falsum.
type Clause struct {
	lits []Literal
}

// New builds the canonical clause over the given literals.
func New(lits ...Literal) Clause {
	kept := make([]Literal, 0, len(lits))
	for _, a := range lits {
		if !a.Invalid() {
			kept = append(kept, a)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return compareLiterals(kept[i], kept[j]) < 0 })
	out := kept[:0]
	for i, a := range kept {
		if i == 0 || compareLiterals(kept[i-1], a) != 0 {
			out = append(out, a)
		}
	}
	return Clause{lits: out}
}

// Unit builds a clause of one literal.
func Unit(a Literal) Clause { return New(a) }

// Size returns the number of literals.
func (c Clause) Size() int { return len(c.lits) }

// Empty reports whether the clause is falsum.
func (c Clause) Empty() bool { return len(c.lits) == 0 }

// IsUnit reports whether the clause has exactly one literal.
func (c Clause) IsUnit() bool { return len(c.lits) == 1 }

// Head returns the first literal in canonical order.
func (c Clause) Head() Literal { return c.lits[0] }

// Literals returns the literals in canonical order. Do not modify.
func (c Clause) Literals() []Literal { return c.lits }

// Valid reports whether some literal holds in every model.
func (c Clause) Valid() bool {
	for _, a := range c.lits {
		if a.Valid() {
			return true
		}
	}
	return false
}

// Ground reports whether no variable occurs in the clause.
func (c Clause) Ground() bool {
	for _, a := range c.lits {
		if !a.Ground() {
			return false
		}
	}
	return true
}

// Primitive reports whether every literal is primitive.
func (c Clause) Primitive() bool {
	for _, a := range c.lits {
		if !a.Primitive() {
			return false
		}
	}
	return true
}

// QuasiPrimitive reports whether every literal is quasi-primitive or
// function-free.
func (c Clause) QuasiPrimitive() bool {
	for _, a := range c.lits {
		if !a.QuasiPrimitive() && !a.FunctionFree() {
			return false
		}
	}
	return true
}

// Equal reports whether c and d contain the same literals.
func (c Clause) Equal(d Clause) bool {
	if len(c.lits) != len(d.lits) {
		return false
	}
	for i := range c.lits {
		if c.lits[i] != d.lits[i] {
			return false
		}
	}
	return true
}

// Subsumes reports whether c implies d in every model: every literal of c
// has a subsumee in d.
func (c Clause) Subsumes(d Clause) bool {
	for _, a := range c.lits {
		ok := false
		for _, b := range d.lits {
			if Subsumes(a, b) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// SatisfiedBy reports whether the unit u alone satisfies the clause, that
// is, u implies some literal of c.
func (c Clause) SatisfiedBy(u Literal) bool {
	for _, b := range c.lits {
		if Subsumes(u, b) {
			return true
		}
	}
	return false
}

// PropagateUnit removes the literals of c that the unit u contradicts.
// It returns the possibly-shrunk clause and whether anything changed; a
// clause that empties is falsum under u.
func (c Clause) PropagateUnit(u Literal) (Clause, bool) {
	kept := make([]Literal, 0, len(c.lits))
	for _, b := range c.lits {
		if !Complementary(u, b) {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(c.lits) {
		return c, false
	}
	return Clause{lits: kept}, true
}

// Substitute applies theta to every literal and re-canonicalizes.
func (c Clause) Substitute(f *term.Factory, theta func(term.Term) (term.Term, bool)) Clause {
	lits := make([]Literal, len(c.lits))
	for i, a := range c.lits {
		lits[i] = a.Substitute(f, theta)
	}
	return New(lits...)
}

// EachTerm calls fn for every term and subterm in the clause, until fn
// returns false.
func (c Clause) EachTerm(fn func(term.Term) bool) bool {
	for _, a := range c.lits {
		if !a.EachTerm(fn) {
			return false
		}
	}
	return true
}

// FreeVars returns the variables occurring in the clause.
func (c Clause) FreeVars() []term.Term {
	seen := make(map[term.Term]struct{})
	var vars []term.Term
	c.EachTerm(func(t term.Term) bool {
		if t.Variable() {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				vars = append(vars, t)
			}
		}
		return true
	})
	term.SortTerms(vars)
	return vars
}

func (c Clause) String() string {
	if len(c.lits) == 0 {
		return "[]"
	}
	parts := make([]string, len(c.lits))
	for i, a := range c.lits {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, " || ") + "]"
}
