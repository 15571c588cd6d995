package export

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/andrescamacho/flowtrading-go/internal/application/solver"
)

// WriteMPS renders p in free-format MPS: NAME/ROWS/COLUMNS/RHS/RANGES
// omitted (every row's RHS is zero)/BOUNDS/QUADOBJ/ENDATA. QUADOBJ is
// a CPLEX extension carrying the diagonal quadratic objective terms;
// solvers that don't understand it can still read the linear terms
// out of COLUMNS and treat the programme as an LP relaxation.
func WriteMPS(w io.Writer, p *solver.Problem, name string) error {
	if _, err := fmt.Fprintf(w, "NAME          %s\n", name); err != nil {
		return err
	}
	if err := writeMPSRows(w, p); err != nil {
		return err
	}
	if err := writeMPSColumns(w, p); err != nil {
		return err
	}
	if err := writeMPSBounds(w, p); err != nil {
		return err
	}
	if err := writeMPSQuadObj(w, p); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "ENDATA")
	return err
}

func writeMPSRows(w io.Writer, p *solver.Problem) error {
	if _, err := fmt.Fprintln(w, "ROWS"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, " N  obj"); err != nil {
		return err
	}
	for i, c := range p.Constraints {
		if _, err := fmt.Fprintf(w, " E  %s\n", rowName(i, c)); err != nil {
			return err
		}
	}
	return nil
}

func writeMPSColumns(w io.Writer, p *solver.Problem) error {
	if _, err := fmt.Fprintln(w, "COLUMNS"); err != nil {
		return err
	}
	for i, v := range p.Variables {
		if v.Linear != 0 {
			if _, err := fmt.Fprintf(w, "    %s  obj  %s\n", v.Name, formatNum(v.Linear)); err != nil {
				return err
			}
		}
		for rowIdx, c := range p.Constraints {
			coeff, ok := c.Coeffs[i]
			if !ok || coeff == 0 {
				continue
			}
			if _, err := fmt.Fprintf(w, "    %s  %s  %s\n", v.Name, rowName(rowIdx, c), formatNum(coeff)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeMPSBounds(w io.Writer, p *solver.Problem) error {
	if _, err := fmt.Fprintln(w, "BOUNDS"); err != nil {
		return err
	}
	for _, v := range p.Variables {
		switch {
		case math.IsInf(v.Lower, -1) && math.IsInf(v.Upper, 1):
			if _, err := fmt.Fprintf(w, " FR BND  %s\n", v.Name); err != nil {
				return err
			}
		case math.IsInf(v.Lower, -1):
			if _, err := fmt.Fprintf(w, " MI BND  %s\n", v.Name); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, " UP BND  %s  %s\n", v.Name, formatNum(v.Upper)); err != nil {
				return err
			}
		case math.IsInf(v.Upper, 1):
			if _, err := fmt.Fprintf(w, " LO BND  %s  %s\n", v.Name, formatNum(v.Lower)); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, " PL BND  %s\n", v.Name); err != nil {
				return err
			}
		default:
			if _, err := fmt.Fprintf(w, " LO BND  %s  %s\n", v.Name, formatNum(v.Lower)); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, " UP BND  %s  %s\n", v.Name, formatNum(v.Upper)); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeMPSQuadObj(w io.Writer, p *solver.Problem) error {
	idx := make([]int, 0, len(p.Variables))
	for i, v := range p.Variables {
		if v.Quadratic != 0 {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil
	}
	sort.Ints(idx)
	if _, err := fmt.Fprintln(w, "QUADOBJ"); err != nil {
		return err
	}
	for _, i := range idx {
		v := p.Variables[i]
		if _, err := fmt.Fprintf(w, "    %s  %s  %s\n", v.Name, v.Name, formatNum(v.Quadratic)); err != nil {
			return err
		}
	}
	return nil
}
