// SPDX-License-Identifier: MIT

// Bounded revised primal simplex for node relaxations.
//
// Rationale (succinct):
//  1. Each row i is a logical column r_i with A·x − r = 0 and lo_i ≤ r_i ≤ hi_i.
//     A ranged row therefore costs one basis row, not two, and row bounds
//     are handled exactly like variable bounds.
//  2. Variable bounds are kept on the variables: nonbasic columns sit at a
//     bound and the ratio test knows both ends, so no bound rows exist and
//     binaries cost nothing extra.
//  3. Phase 1 minimizes the sum of bound violations of the basic columns
//     from whatever basis is current. Any basis is a valid start, so every
//     branch-and-bound node warm-starts from the last node's basis; after a
//     branch only the branched column is out of bounds.
//  4. The basis inverse is dense (m×m), updated in O(m²) per pivot and
//     rebuilt from scratch with gonum's LU inverse every refactorEvery pivots
//     or when the row residual drifts.
//  5. Ratio test: two-pass Harris with tolerance ptol, picking the largest
//     pivot among near-ties. Bland's rule takes over after a run of
//     degenerate pivots.
//  6. stop is polled before every pivot, so a deadline or a cancelled
//     context interrupts a long relaxation instead of waiting for it.
//
// Complexity:
//   - Per pivot: O(m² + nnz(A)) (pricing, one FTRAN, inverse update).
//   - Reinversion: O(m³), amortized over refactorEvery pivots.
//   - Memory: O(m² + nnz(A)).

package mip

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// fixTol decides when a variable's bounds have collapsed to one value.
	fixTol = 1e-12
	// ptol is the primal feasibility tolerance on basic values.
	ptol = 1e-9
	// pivTol is the smallest accepted pivot magnitude.
	pivTol = 1e-9
	// resTol bounds the relative row residual accepted at termination.
	resTol = 1e-9
	// refactorEvery is the number of pivots between reinversions.
	refactorEvery = 200
	// blandAfter degenerate pivots in a row switch pricing to Bland's rule.
	blandAfter = 50
)

type lpOutcome int

const (
	lpOptimal lpOutcome = iota
	lpInfeasible
	lpUnbounded
	lpInterrupted
)

// relaxation is the LP optimum of one branch-and-bound node.
type relaxation struct {
	outcome   lpOutcome
	values    []float64 // per model variable
	objective float64
}

type colStatus uint8

const (
	isBasic colStatus = iota
	atLower
	atUpper
	atZero // nonbasic free column held at 0
)

// simplex is the LP state kept across the nodes of one Solve call.
type simplex struct {
	m, n int // rows, structural columns

	// Structural columns, compressed: column j holds
	// rowIdx/val[colStart[j]:colStart[j+1]].
	colStart []int
	rowIdx   []int
	val      []float64

	cost []float64 // n structural costs; logical costs are 0
	dtol float64

	// Columns 0..n-1 are structural, n..n+m-1 logical.
	lb, ub []float64
	x      []float64
	status []colStatus
	head   []int     // head[p] is the column basic at position p
	binv   []float64 // basis inverse, row-major m×m
	pivots int       // pivots since the last reinversion

	// Scratch, length m.
	cb, pi, alpha, work []float64
}

// newSimplex compiles m into column form with the all-logical basis.
func newSimplex(m *Model, dtol float64) *simplex {
	var (
		rows = len(m.rows)
		n    = len(m.vars)
		cnt  = make([]int, n+1)
	)
	for _, r := range m.rows {
		for _, j := range r.order {
			if r.coef[j] != 0 {
				cnt[j+1]++
			}
		}
	}
	for j := 0; j < n; j++ {
		cnt[j+1] += cnt[j]
	}
	s := &simplex{
		m:        rows,
		n:        n,
		colStart: cnt,
		rowIdx:   make([]int, cnt[n]),
		val:      make([]float64, cnt[n]),
		cost:     make([]float64, n),
		dtol:     dtol,
		lb:       make([]float64, n+rows),
		ub:       make([]float64, n+rows),
		x:        make([]float64, n+rows),
		status:   make([]colStatus, n+rows),
		head:     make([]int, rows),
		binv:     make([]float64, rows*rows),
		cb:       make([]float64, rows),
		pi:       make([]float64, rows),
		alpha:    make([]float64, rows),
		work:     make([]float64, rows),
	}
	next := append([]int(nil), cnt[:n]...)
	for i, r := range m.rows {
		for _, j := range r.order {
			if a := r.coef[j]; a != 0 {
				s.rowIdx[next[j]] = i
				s.val[next[j]] = a
				next[j]++
			}
		}
		s.lb[n+i], s.ub[n+i] = r.lower, r.upper
	}
	for j, c := range m.obj {
		s.cost[j] = c
	}
	for j := 0; j < n; j++ {
		s.status[j] = atLower
	}
	for i := 0; i < rows; i++ {
		s.head[i] = n + i
		s.status[n+i] = isBasic
		s.binv[i*rows+i] = -1
	}

	return s
}

// solve runs the relaxation under structural bounds [lower, upper],
// starting from the current basis.
func (s *simplex) solve(lower, upper []float64, stop func() bool) (relaxation, error) {
	for j := 0; j < s.n; j++ {
		if upper[j] < lower[j]-fixTol {
			return relaxation{outcome: lpInfeasible}, nil
		}
		s.lb[j], s.ub[j] = lower[j], upper[j]
	}
	for j := range s.status {
		if s.status[j] != isBasic {
			s.place(j, s.status[j])
		}
	}
	s.computeBasics()

	var (
		maxIter    = 50*(s.m+s.n) + 1000
		degenerate int
		bland      bool
	)
	for iter := 0; ; iter++ {
		if stop != nil && stop() {
			return relaxation{outcome: lpInterrupted}, nil
		}
		if iter >= maxIter {
			return relaxation{}, fmt.Errorf("%w: no convergence after %d pivots", ErrNumerical, iter)
		}
		if s.pivots >= refactorEvery {
			if err := s.reinvert(); err != nil {
				return relaxation{}, err
			}
		}

		phase1 := s.phaseCosts()
		s.btran()
		q, dq := s.price(phase1, bland)
		if q < 0 {
			if s.pivots > 0 {
				// Confirm termination on freshly computed basic values.
				if s.drifted() {
					if err := s.reinvert(); err != nil {
						return relaxation{}, err
					}
					continue
				}
				if s.phaseCosts() != phase1 {
					continue
				}
			}
			if phase1 {
				return relaxation{outcome: lpInfeasible}, nil
			}
			return s.result(), nil
		}

		dir := 1.0
		if dq > 0 {
			dir = -1
		}
		s.ftran(q)
		r, t, leaveAt := s.ratio(q, dir)
		if math.IsInf(t, 1) {
			if phase1 {
				if s.pivots > 0 {
					if err := s.reinvert(); err != nil {
						return relaxation{}, err
					}
					continue
				}
				return relaxation{}, fmt.Errorf("%w: unbounded phase-1 ray", ErrNumerical)
			}
			return relaxation{outcome: lpUnbounded}, nil
		}

		if t <= ptol {
			degenerate++
			bland = degenerate > blandAfter
		} else {
			degenerate, bland = 0, false
		}

		s.x[q] += dir * t
		for p := 0; p < s.m; p++ {
			if a := s.alpha[p]; a != 0 {
				s.x[s.head[p]] -= dir * t * a
			}
		}
		if r < 0 {
			// Bound flip: the entering column crossed its own range.
			if s.status[q] == atUpper {
				s.place(q, atLower)
			} else {
				s.place(q, atUpper)
			}
			continue
		}
		s.pivot(r, q, leaveAt)
	}
}

// place makes column j nonbasic at the bound named by want, falling back to
// the other bound (or 0) when that one is infinite.
func (s *simplex) place(j int, want colStatus) {
	lo, hi := s.lb[j], s.ub[j]
	switch {
	case want == atUpper && !math.IsInf(hi, 1):
		s.status[j], s.x[j] = atUpper, hi
	case !math.IsInf(lo, -1):
		s.status[j], s.x[j] = atLower, lo
	case !math.IsInf(hi, 1):
		s.status[j], s.x[j] = atUpper, hi
	default:
		s.status[j], s.x[j] = atZero, 0
	}
}

// column visits the nonzeros of column j.
func (s *simplex) column(j int, fn func(i int, a float64)) {
	if j >= s.n {
		fn(j-s.n, -1)
		return
	}
	for k := s.colStart[j]; k < s.colStart[j+1]; k++ {
		fn(s.rowIdx[k], s.val[k])
	}
}

// rowActivity sets work = Σ over nonbasic (or all) columns of a_j·x_j.
func (s *simplex) rowActivity(all bool) {
	w := s.work
	for i := range w {
		w[i] = 0
	}
	for j := 0; j < s.n; j++ {
		if (all || s.status[j] != isBasic) && s.x[j] != 0 {
			xj := s.x[j]
			for k := s.colStart[j]; k < s.colStart[j+1]; k++ {
				w[s.rowIdx[k]] += s.val[k] * xj
			}
		}
	}
	for i := 0; i < s.m; i++ {
		if all || s.status[s.n+i] != isBasic {
			w[i] -= s.x[s.n+i]
		}
	}
}

// computeBasics solves B·x_B = −N·x_N.
func (s *simplex) computeBasics() {
	s.rowActivity(false)
	for p := 0; p < s.m; p++ {
		var v float64
		row := s.binv[p*s.m : (p+1)*s.m]
		for i, w := range s.work {
			if w != 0 {
				v -= row[i] * w
			}
		}
		s.x[s.head[p]] = v
	}
}

// drifted recomputes the basic values and reports whether the rows are no
// longer satisfied to resTol (relative to the largest value).
func (s *simplex) drifted() bool {
	s.computeBasics()
	s.rowActivity(true)
	var res, scale float64
	for _, w := range s.work {
		res = math.Max(res, math.Abs(w))
	}
	for _, v := range s.x {
		scale = math.Max(scale, math.Abs(v))
	}

	return res > resTol*(1+scale)
}

// reinvert rebuilds the basis inverse with gonum and refreshes x_B.
func (s *simplex) reinvert() error {
	s.pivots = 0
	if s.m == 0 {
		return nil
	}
	b := mat.NewDense(s.m, s.m, nil)
	for p, j := range s.head {
		s.column(j, func(i int, a float64) { b.Set(i, p, a) })
	}
	var inv mat.Dense
	if err := inv.Inverse(b); err != nil {
		// Ill-conditioned is tolerated; exactly singular is not.
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return fmt.Errorf("%w: basis inverse: %v", ErrNumerical, err)
		}
	}
	for p := 0; p < s.m; p++ {
		copy(s.binv[p*s.m:(p+1)*s.m], inv.RawRowView(p))
	}
	s.computeBasics()

	return nil
}

// phaseCosts fills cb with the phase-1 gradient of the total bound
// violation, or the true costs when the basis is feasible. It reports
// whether phase 1 is active.
func (s *simplex) phaseCosts() bool {
	infeasible := false
	for p, j := range s.head {
		switch {
		case s.x[j] < s.lb[j]-ptol:
			s.cb[p] = -1
			infeasible = true
		case s.x[j] > s.ub[j]+ptol:
			s.cb[p] = 1
			infeasible = true
		default:
			s.cb[p] = 0
		}
	}
	if infeasible {
		return true
	}
	for p, j := range s.head {
		if j < s.n {
			s.cb[p] = s.cost[j]
		} else {
			s.cb[p] = 0
		}
	}

	return false
}

// btran sets pi = cbᵀ·B⁻¹.
func (s *simplex) btran() {
	for i := range s.pi {
		s.pi[i] = 0
	}
	for p, c := range s.cb {
		if c == 0 {
			continue
		}
		row := s.binv[p*s.m : (p+1)*s.m]
		for i, v := range row {
			s.pi[i] += c * v
		}
	}
}

// reducedCost returns c_j − piᵀ·a_j under the active phase.
func (s *simplex) reducedCost(j int, phase1 bool) float64 {
	if j >= s.n {
		return s.pi[j-s.n]
	}
	var d float64
	if !phase1 {
		d = s.cost[j]
	}
	for k := s.colStart[j]; k < s.colStart[j+1]; k++ {
		d -= s.pi[s.rowIdx[k]] * s.val[k]
	}

	return d
}

// price picks the entering column: the largest improving reduced cost
// (Dantzig), or the lowest improving index under Bland's rule.
func (s *simplex) price(phase1, bland bool) (int, float64) {
	var (
		pick = -1
		best float64
		dq   float64
	)
	for j, st := range s.status {
		if st == isBasic || s.ub[j]-s.lb[j] <= fixTol {
			continue
		}
		d := s.reducedCost(j, phase1)
		var score float64
		switch st {
		case atLower:
			score = -d
		case atUpper:
			score = d
		case atZero:
			score = math.Abs(d)
		}
		if score <= s.dtol {
			continue
		}
		if bland {
			return j, d
		}
		if score > best {
			pick, best, dq = j, score, d
		}
	}

	return pick, dq
}

// ftran sets alpha = B⁻¹·a_q.
func (s *simplex) ftran(q int) {
	for p := range s.alpha {
		s.alpha[p] = 0
	}
	s.column(q, func(i int, a float64) {
		for p := 0; p < s.m; p++ {
			if b := s.binv[p*s.m+i]; b != 0 {
				s.alpha[p] += b * a
			}
		}
	})
}

// limit returns the step at which basic position p blocks a move of the
// entering column in direction dir, relaxed by tol, and the bound it
// stops at. ok is false when p never blocks.
func (s *simplex) limit(p int, dir, tol float64) (t float64, leaveAt colStatus, ok bool) {
	a := s.alpha[p]
	if math.Abs(a) <= pivTol {
		return 0, 0, false
	}
	var (
		j     = s.head[p]
		delta = -dir * a // rate of change of x_j per unit step
		x     = s.x[j]
		lo    = s.lb[j]
		hi    = s.ub[j]
	)
	switch {
	case x < lo-ptol:
		// Below its range: blocks on reaching lo.
		if delta > 0 {
			return (lo - x + tol) / delta, atLower, true
		}
	case x > hi+ptol:
		if delta < 0 {
			return (x - hi + tol) / -delta, atUpper, true
		}
	case delta < 0 && !math.IsInf(lo, -1):
		return (x - lo + tol) / -delta, atLower, true
	case delta > 0 && !math.IsInf(hi, 1):
		return (hi - x + tol) / delta, atUpper, true
	}

	return 0, 0, false
}

// ratio runs the two-pass Harris test. It returns the leaving position
// (−1 for a bound flip of q), the step length and the leaving bound.
func (s *simplex) ratio(q int, dir float64) (int, float64, colStatus) {
	tmax := math.Inf(1)
	for p := 0; p < s.m; p++ {
		if t, _, ok := s.limit(p, dir, ptol); ok && t < tmax {
			tmax = t
		}
	}
	span := s.ub[q] - s.lb[q]
	if s.status[q] == atZero {
		span = math.Inf(1)
	}
	if span <= tmax {
		return -1, span, 0
	}
	if math.IsInf(tmax, 1) {
		return -1, tmax, 0
	}

	var (
		leave   = -1
		size    float64
		step    float64
		leaveAt colStatus
	)
	for p := 0; p < s.m; p++ {
		t, at, ok := s.limit(p, dir, 0)
		if !ok || t > tmax {
			continue
		}
		if a := math.Abs(s.alpha[p]); a > size {
			leave, size, step, leaveAt = p, a, t, at
		}
	}
	if step < 0 {
		step = 0
	}

	return leave, step, leaveAt
}

// pivot swaps column q into basis position r; the leaving column becomes
// nonbasic at leaveAt.
func (s *simplex) pivot(r, q int, leaveAt colStatus) {
	var (
		m    = s.m
		out  = s.head[r]
		prow = s.binv[r*m : (r+1)*m]
		ar   = s.alpha[r]
	)
	for i := range prow {
		prow[i] /= ar
	}
	for p := 0; p < m; p++ {
		a := s.alpha[p]
		if p == r || a == 0 {
			continue
		}
		row := s.binv[p*m : (p+1)*m]
		for i, v := range prow {
			if v != 0 {
				row[i] -= a * v
			}
		}
	}
	s.head[r] = q
	s.status[q] = isBasic
	s.place(out, leaveAt)
	s.pivots++
}

// result packages the optimal structural values, clamped to their bounds.
func (s *simplex) result() relaxation {
	out := relaxation{outcome: lpOptimal, values: make([]float64, s.n)}
	for j := 0; j < s.n; j++ {
		out.values[j] = math.Min(math.Max(s.x[j], s.lb[j]), s.ub[j])
		out.objective += s.cost[j] * out.values[j]
	}

	return out
}
