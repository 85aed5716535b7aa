// Package term provides sorted symbols and hash-consed terms.
//
// All symbols and terms of a reasoning session are interned by a single
// Factory. Interning makes structural equality coincide with Go equality:
// two terms built from the same symbol and arguments are the same value.
// A Factory is shared by every knowledge base in a process that wants to
// exchange terms; it is not safe for concurrent writers.
package term

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cognicore/doxa/pkg/doxa/internalerr"
)

// Sort identifies a sort. Every term has exactly one sort; equality is only
// defined between terms of the same sort.
type Sort int32

type symbolKind uint8

const (
	kindName symbolKind = iota
	kindVariable
	kindFunction
)

// Symbol is an interned name, variable, or function symbol.
type Symbol struct {
	id          int32
	sort        Sort
	arity       int
	kind        symbolKind
	placeholder bool
}

// Sort returns the symbol's sort (for functions, the sort of applications).
func (s Symbol) Sort() Sort { return s.sort }

// Arity returns the number of arguments a function symbol takes.
func (s Symbol) Arity() int { return s.arity }

// Name reports whether the symbol is a name.
func (s Symbol) Name() bool { return s.kind == kindName }

// Variable reports whether the symbol is a variable.
func (s Symbol) Variable() bool { return s.kind == kindVariable }

// Function reports whether the symbol is a function symbol.
func (s Symbol) Function() bool { return s.kind == kindFunction }

// Placeholder reports whether the symbol is a grounder-minted name.
func (s Symbol) Placeholder() bool { return s.placeholder }

type termData struct {
	id   int32
	sym  Symbol
	args []Term
}

// Term is a variable, a name, or a function applied to argument terms.
// The zero Term is the null term. Terms are comparable with ==; interning
// guarantees that structurally equal terms are identical.
type Term struct {
	d *termData
}

// Null reports whether t is the null term.
func (t Term) Null() bool { return t.d == nil }

// Symbol returns the head symbol.
func (t Term) Symbol() Symbol { return t.d.sym }

// Sort returns the term's sort.
func (t Term) Sort() Sort { return t.d.sym.sort }

// Args returns the argument terms. The slice must not be modified.
func (t Term) Args() []Term { return t.d.args }

// Arity returns the number of arguments.
func (t Term) Arity() int { return len(t.d.args) }

// Name reports whether the term is a name.
func (t Term) Name() bool { return t.d.sym.kind == kindName }

// Placeholder reports whether the term is a grounder-minted name.
func (t Term) Placeholder() bool { return t.d.sym.kind == kindName && t.d.sym.placeholder }

// Variable reports whether the term is a variable.
func (t Term) Variable() bool { return t.d.sym.kind == kindVariable }

// Function reports whether the term is function-headed.
func (t Term) Function() bool { return t.d.sym.kind == kindFunction }

// Ground reports whether no variable occurs in the term.
func (t Term) Ground() bool {
	if t.Variable() {
		return false
	}
	for _, a := range t.d.args {
		if !a.Ground() {
			return false
		}
	}
	return true
}

// Primitive reports whether the term is a function applied to names only.
func (t Term) Primitive() bool {
	if !t.Function() {
		return false
	}
	for _, a := range t.d.args {
		if !a.Name() {
			return false
		}
	}
	return true
}

// QuasiPrimitive reports whether the term is a function applied to names
// and variables only.
func (t Term) QuasiPrimitive() bool {
	if !t.Function() {
		return false
	}
	for _, a := range t.d.args {
		if !a.Name() && !a.Variable() {
			return false
		}
	}
	return true
}

func (t Term) rank() int {
	switch t.d.sym.kind {
	case kindFunction:
		return 2
	case kindName:
		return 1
	default:
		return 0
	}
}

// ID returns the term's interning id, unique per factory.
func (t Term) ID() int32 { return t.d.id }

func (t Term) String() string {
	if t.Null() {
		return "<null>"
	}
	var tag string
	switch {
	case t.Placeholder():
		tag = "#"
	case t.Name():
		tag = "n"
	case t.Variable():
		tag = "x"
	default:
		tag = "f"
	}
	if len(t.d.args) == 0 {
		return fmt.Sprintf("%s%d", tag, t.d.sym.id)
	}
	s := fmt.Sprintf("%s%d(", tag, t.d.sym.id)
	for i, a := range t.d.args {
		if i > 0 {
			s += ","
		}
		s += a.String()
	}
	return s + ")"
}

// Compare establishes the fixed total order on terms: function-headed terms
// order above name-headed terms, names above variables, ties broken by
// interning id. It returns -1, 0, or +1.
func Compare(t, u Term) int {
	if tr, ur := t.rank(), u.rank(); tr != ur {
		if tr < ur {
			return -1
		}
		return 1
	}
	switch {
	case t.d.id < u.d.id:
		return -1
	case t.d.id > u.d.id:
		return 1
	}
	return 0
}

// Factory interns sorts, symbols, and terms. It is the single handle to the
// shared term pool; see the package comment for the sharing contract.
type Factory struct {
	nextSort int32
	nextSym  int32
	nextTerm int32
	terms    map[string]*termData
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{terms: make(map[string]*termData)}
}

// NewSort creates a fresh sort.
func (f *Factory) NewSort() Sort {
	f.nextSort++
	return Sort(f.nextSort)
}

func (f *Factory) newSymbol(kind symbolKind, s Sort, arity int, placeholder bool) Symbol {
	f.nextSym++
	return Symbol{id: f.nextSym, sort: s, arity: arity, kind: kind, placeholder: placeholder}
}

// NewName creates a fresh ordinary name of the given sort.
func (f *Factory) NewName(s Sort) Term {
	return f.intern(f.newSymbol(kindName, s, 0, false), nil)
}

// NewPlaceholder creates a fresh placeholder name of the given sort.
// Placeholders are minted by the grounder and never appear in user axioms.
func (f *Factory) NewPlaceholder(s Sort) Term {
	return f.intern(f.newSymbol(kindName, s, 0, true), nil)
}

// NewVariable creates a fresh variable of the given sort.
func (f *Factory) NewVariable(s Sort) Term {
	return f.intern(f.newSymbol(kindVariable, s, 0, false), nil)
}

// NewFunction creates a fresh function symbol with the given result sort.
func (f *Factory) NewFunction(s Sort, arity int) (Symbol, error) {
	if arity < 0 {
		return Symbol{}, fmt.Errorf("function arity %d: %w", arity, internalerr.ErrArityMismatch)
	}
	return f.newSymbol(kindFunction, s, arity, false), nil
}

// NewTerm builds the interned application of sym to args.
func (f *Factory) NewTerm(sym Symbol, args ...Term) (Term, error) {
	if !sym.Function() && len(args) > 0 {
		return Term{}, fmt.Errorf("symbol takes no arguments: %w", internalerr.ErrArityMismatch)
	}
	if sym.Function() && len(args) != sym.arity {
		return Term{}, fmt.Errorf("function wants %d arguments, got %d: %w", sym.arity, len(args), internalerr.ErrArityMismatch)
	}
	for _, a := range args {
		if a.Null() {
			return Term{}, fmt.Errorf("null argument: %w", internalerr.ErrUnknownID)
		}
	}
	return f.intern(sym, args), nil
}

func (f *Factory) intern(sym Symbol, args []Term) Term {
	key := make([]byte, 0, 4+4*len(args))
	key = binary.AppendVarint(key, int64(sym.id))
	for _, a := range args {
		key = binary.AppendVarint(key, int64(a.d.id))
	}
	if d, ok := f.terms[string(key)]; ok {
		return Term{d}
	}
	f.nextTerm++
	d := &termData{id: f.nextTerm, sym: sym, args: append([]Term(nil), args...)}
	f.terms[string(key)] = d
	return Term{d}
}

// Substitute rewrites t top-down: theta is tried on a term before its
// arguments. theta returns the replacement for a term and whether one
// applies; replacements are not substituted into again.
func (f *Factory) Substitute(t Term, theta func(Term) (Term, bool)) Term {
	if u, ok := theta(t); ok {
		return u
	}
	if !t.Function() || len(t.d.args) == 0 {
		return t
	}
	args := make([]Term, len(t.d.args))
	changed := false
	for i, a := range t.d.args {
		args[i] = f.Substitute(a, theta)
		if args[i] != a {
			changed = true
		}
	}
	if !changed {
		return t
	}
	return f.intern(t.d.sym, args)
}

// SortTerms sorts ts in place by the fixed total order.
func SortTerms(ts []Term) {
	sort.Slice(ts, func(i, j int) bool { return Compare(ts[i], ts[j]) < 0 })
}
