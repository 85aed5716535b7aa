package script

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/cognicore/doxa/pkg/doxa"
)

// Result tallies the expectations of a run.
type Result struct {
	Asserts  int
	Refutes  int
	Failed   int
	Failures []string
}

// OK reports whether every Assert held and every Refute failed as expected.
func (r *Result) OK() bool { return r.Failed == 0 }

// Merge folds other into r.
func (r *Result) Merge(other *Result) {
	r.Asserts += other.Asserts
	r.Refutes += other.Refutes
	r.Failed += other.Failed
	r.Failures = append(r.Failures, other.Failures...)
}

// Runner executes scripts against a context and reports verdicts.
type Runner struct {
	Ctx *doxa.Context
	// Out receives one line per expectation. Nil silences the runner.
	Out io.Writer
}

func (r *Runner) printf(format string, args ...interface{}) {
	if r.Out != nil {
		fmt.Fprintf(r.Out, format, args...)
	}
}

// RunFile runs the script at path.
func (r *Runner) RunFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.Run(path, string(data))
}

// Run parses and executes src. A parse error aborts the run; expectation
// failures do not.
func (r *Runner) Run(name, src string) (*Result, error) {
	stmts, err := Parse(r.Ctx, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	res := &Result{}
	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()
	for _, st := range stmts {
		switch st.Kind {
		case "KB":
			if ok := r.Ctx.AddToKB(st.Formula); !ok {
				r.printf("%s %s:%d: axiom not acceptable: %s\n", fail("WARN"), name, st.Line, st.Formula)
			}
		case "Assert", "Refute":
			want := st.Kind == "Assert"
			if want {
				res.Asserts++
			} else {
				res.Refutes++
			}
			got := r.Ctx.Query(st.Formula)
			if got == want {
				r.printf("%s %s:%d: %s: %s\n", pass("PASS"), name, st.Line, st.Kind, st.Formula)
			} else {
				res.Failed++
				msg := fmt.Sprintf("%s:%d: %s: %s (got %v)", name, st.Line, st.Kind, st.Formula, got)
				res.Failures = append(res.Failures, msg)
				r.printf("%s %s\n", fail("FAIL"), msg)
			}
		}
	}
	return res, nil
}
