// SPDX-License-Identifier: MIT

package mip

import (
	"fmt"
	"math"
)

// Var is a decision variable owned by a Model.
type Var struct {
	model   *Model
	index   int
	name    string
	lower   float64
	upper   float64
	integer bool
}

// Index returns the position of v in Model.Vars and Solution.Values.
func (v *Var) Index() int { return v.index }

// Name returns the variable name.
func (v *Var) Name() string { return v.name }

// Bounds returns (lower, upper).
func (v *Var) Bounds() (float64, float64) { return v.lower, v.upper }

// Integer reports whether v must take an integral value.
func (v *Var) Integer() bool { return v.integer }

func (v *Var) String() string { return v.name }

// Constraint is a ranged linear row: lower ≤ Σ coef·var ≤ upper.
// Either side may be infinite.
type Constraint struct {
	model *Model
	name  string
	lower float64
	upper float64
	coef  map[int]float64
	order []int // insertion order of variable indices, for determinism
}

// Name returns the row name.
func (c *Constraint) Name() string { return c.name }

// Bounds returns (lower, upper).
func (c *Constraint) Bounds() (float64, float64) { return c.lower, c.upper }

// SetCoefficient sets (overwrites) the coefficient of v in c.
// A variable from another model is recorded as a model error and surfaces
// from Validate/Solve.
func (c *Constraint) SetCoefficient(v *Var, coef float64) {
	if v == nil || v.model != c.model {
		c.model.fail(fmt.Errorf("constraint %q: %w", c.name, ErrForeignVar))
		return
	}
	if math.IsNaN(coef) || math.IsInf(coef, 0) {
		c.model.fail(fmt.Errorf("constraint %q, var %q: %w", c.name, v.name, ErrBadCoefficient))
		return
	}
	if _, ok := c.coef[v.index]; !ok {
		c.order = append(c.order, v.index)
	}
	c.coef[v.index] = coef
}

// Coefficient returns the coefficient of v (0 when absent).
func (c *Constraint) Coefficient(v *Var) float64 {
	if v == nil || v.model != c.model {
		return 0
	}

	return c.coef[v.index]
}

// Len returns the number of variables with a coefficient in c.
func (c *Constraint) Len() int { return len(c.order) }

// Model is a minimization MIP under construction.
type Model struct {
	name string
	vars []*Var
	rows []*Constraint
	obj  map[int]float64
	err  error
}

// NewModel returns an empty model.
func NewModel(name string) *Model {
	return &Model{name: name, obj: make(map[int]float64)}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

func (m *Model) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

func (m *Model) addVar(lower, upper float64, integer bool, name string) *Var {
	v := &Var{
		model:   m,
		index:   len(m.vars),
		name:    name,
		lower:   lower,
		upper:   upper,
		integer: integer,
	}
	if math.IsNaN(lower) || math.IsNaN(upper) || math.IsInf(lower, 0) || lower > upper {
		m.fail(fmt.Errorf("var %q [%g, %g]: %w", name, lower, upper, ErrBadBounds))
	}
	m.vars = append(m.vars, v)

	return v
}

// NumVar adds a continuous variable with bounds [lower, upper].
// upper may be +Inf; lower must be finite.
func (m *Model) NumVar(lower, upper float64, name string) *Var {
	return m.addVar(lower, upper, false, name)
}

// IntVar adds an integer variable with bounds [lower, upper].
func (m *Model) IntVar(lower, upper float64, name string) *Var {
	return m.addVar(lower, upper, true, name)
}

// BoolVar adds a binary variable.
func (m *Model) BoolVar(name string) *Var {
	return m.addVar(0, 1, true, name)
}

// Constraint adds an empty row lower ≤ · ≤ upper.
func (m *Model) Constraint(lower, upper float64, name string) *Constraint {
	c := &Constraint{
		model: m,
		name:  name,
		lower: lower,
		upper: upper,
		coef:  make(map[int]float64),
	}
	if math.IsNaN(lower) || math.IsNaN(upper) || lower > upper ||
		math.IsInf(lower, 1) || math.IsInf(upper, -1) {
		m.fail(fmt.Errorf("constraint %q [%g, %g]: %w", name, lower, upper, ErrBadBounds))
	}
	m.rows = append(m.rows, c)

	return c
}

// SetObjectiveCoefficient sets the cost of v in the minimized objective.
func (m *Model) SetObjectiveCoefficient(v *Var, coef float64) {
	if v == nil || v.model != m {
		m.fail(fmt.Errorf("objective: %w", ErrForeignVar))
		return
	}
	if math.IsNaN(coef) || math.IsInf(coef, 0) {
		m.fail(fmt.Errorf("objective, var %q: %w", v.name, ErrBadCoefficient))
		return
	}
	if coef == 0 {
		delete(m.obj, v.index)
		return
	}
	m.obj[v.index] = coef
}

// ObjectiveCoefficient returns the cost of v.
func (m *Model) ObjectiveCoefficient(v *Var) float64 {
	if v == nil || v.model != m {
		return 0
	}

	return m.obj[v.index]
}

// Vars returns the variables in creation order. The slice must not be modified.
func (m *Model) Vars() []*Var { return m.vars }

// Constraints returns the rows in creation order. The slice must not be modified.
func (m *Model) Constraints() []*Constraint { return m.rows }

// NumVars returns the number of variables.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of rows.
func (m *Model) NumConstraints() int { return len(m.rows) }

// NumIntegers returns the number of integer variables.
func (m *Model) NumIntegers() int {
	n := 0
	for _, v := range m.vars {
		if v.integer {
			n++
		}
	}

	return n
}

// Validate returns the first construction error recorded on the model.
func (m *Model) Validate() error {
	if m == nil {
		return ErrNilModel
	}

	return m.err
}

// Evaluate returns the objective value of values and the largest violation
// of any row or bound. It is used to cross-check solver output.
func (m *Model) Evaluate(values []float64) (objective, violation float64) {
	for j, c := range m.obj {
		objective += c * values[j]
	}
	for _, v := range m.vars {
		x := values[v.index]
		violation = math.Max(violation, v.lower-x)
		violation = math.Max(violation, x-v.upper)
	}
	for _, r := range m.rows {
		var s float64
		for _, j := range r.order {
			s += r.coef[j] * values[j]
		}
		violation = math.Max(violation, r.lower-s)
		violation = math.Max(violation, s-r.upper)
	}

	return objective, violation
}
