// Package export renders an assembled solver.Problem into the LP and
// MPS file formats (spec section 4.5), for operators who want to feed
// a batch into an external solver or diff two batches' programmes
// byte-for-byte. Both writers iterate Problem.Variables and
// Problem.Constraints in their stored (insertion) order and list the
// terms of each row (and the MPS QUADOBJ entries) by ascending
// variable index, so output is deterministic given a
// deterministically-built Problem.
package export

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/andrescamacho/flowtrading-go/internal/application/solver"
)

// WriteLP renders p in CPLEX-style LP format: a maximize objective,
// one row per equality constraint, and a Bounds section with one line
// for every variable, default (0, +inf) bounds included.
func WriteLP(w io.Writer, p *solver.Problem) error {
	if err := writeLPObjective(w, p); err != nil {
		return err
	}
	if err := writeLPConstraints(w, p); err != nil {
		return err
	}
	return writeLPBounds(w, p)
}

func writeLPObjective(w io.Writer, p *solver.Problem) error {
	if _, err := fmt.Fprintln(w, "Maximize"); err != nil {
		return err
	}
	terms := make([]string, 0, len(p.Variables))
	for _, v := range p.Variables {
		switch {
		case v.Quadratic != 0:
			terms = append(terms, fmt.Sprintf("%s %s + [ %s %s ^2 ] / 2", signedCoeff(v.Linear), v.Name, signedCoeff(v.Quadratic), v.Name))
		case v.Linear != 0:
			terms = append(terms, fmt.Sprintf("%s %s", signedCoeff(v.Linear), v.Name))
		}
	}
	if len(terms) == 0 {
		terms = append(terms, "0")
	}
	_, err := fmt.Fprintf(w, " obj: %s\n", joinTerms(terms))
	return err
}

func writeLPConstraints(w io.Writer, p *solver.Problem) error {
	if _, err := fmt.Fprintln(w, "Subject To"); err != nil {
		return err
	}
	for i, c := range p.Constraints {
		terms := rowTerms(p, c)
		if len(terms) == 0 {
			terms = append(terms, "0")
		}
		if _, err := fmt.Fprintf(w, " %s: %s = 0\n", rowName(i, c), joinTerms(terms)); err != nil {
			return err
		}
	}
	return nil
}

func writeLPBounds(w io.Writer, p *solver.Problem) error {
	if _, err := fmt.Fprintln(w, "Bounds"); err != nil {
		return err
	}
	for _, v := range p.Variables {
		switch {
		case math.IsInf(v.Lower, -1) && math.IsInf(v.Upper, 1):
			if _, err := fmt.Fprintf(w, " %s free\n", v.Name); err != nil {
				return err
			}
		case math.IsInf(v.Lower, -1):
			if _, err := fmt.Fprintf(w, " -inf <= %s <= %s\n", v.Name, formatNum(v.Upper)); err != nil {
				return err
			}
		case math.IsInf(v.Upper, 1):
			if _, err := fmt.Fprintf(w, " %s <= %s <= +inf\n", formatNum(v.Lower), v.Name); err != nil {
				return err
			}
		default:
			if _, err := fmt.Fprintf(w, " %s <= %s <= %s\n", formatNum(v.Lower), v.Name, formatNum(v.Upper)); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "End")
	return err
}

func rowTerms(p *solver.Problem, c solver.Constraint) []string {
	idx := make([]int, 0, len(c.Coeffs))
	for i := range c.Coeffs {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	terms := make([]string, 0, len(idx))
	for _, i := range idx {
		coeff := c.Coeffs[i]
		if coeff == 0 {
			continue
		}
		terms = append(terms, fmt.Sprintf("%s %s", signedCoeff(coeff), p.Variables[i].Name))
	}
	return terms
}

func rowName(i int, c solver.Constraint) string {
	switch c.Kind {
	case solver.ConstraintClearing:
		return fmt.Sprintf("clear_%s", c.Product.String())
	case solver.ConstraintLinkage:
		return fmt.Sprintf("link_%s", c.Demand.String())
	default:
		return fmt.Sprintf("row_%d", i)
	}
}

func joinTerms(terms []string) string {
	out := terms[0]
	for _, t := range terms[1:] {
		if len(t) > 0 && t[0] == '-' {
			out += " - " + t[1:]
		} else {
			out += " + " + t
		}
	}
	return out
}

func signedCoeff(v float64) string {
	return formatNum(v)
}

func formatNum(v float64) string {
	return fmt.Sprintf("%g", v)
}
