// SPDX-License-Identifier: MIT

// Package mip provides a small mixed-integer linear programming layer:
// a model container and an exact branch-and-bound solver.
//
// Model surface (mirrors the usual LP/MIP builder APIs):
//
//	m := mip.NewModel("plan")
//	x := m.NumVar(0, math.Inf(1), "x")    // continuous, x ≥ 0
//	y := m.BoolVar("y")                    // binary
//	c := m.Constraint(0, 65, "row")        // 0 ≤ Σ a·v ≤ 65
//	c.SetCoefficient(x, 1.5)
//	c.SetCoefficient(y, -300)
//	m.SetObjectiveCoefficient(x, 1)        // minimize
//
// Solving:
//
//	sol, err := mip.Solve(ctx, m, mip.DefaultOptions())
//	if err != nil { ... }                  // invalid model/options or numeric failure
//	if sol.Status == mip.StatusOptimal { fmt.Println(sol.Value(x)) }
//
// Algorithm:
//  1. Each node relaxes integrality and solves the LP with a bounded revised
//     primal simplex (simplex.go). Rows are ranged logical columns and
//     variable bounds stay on the variables, so the basis has one row per
//     constraint. The basis inverse is rebuilt with gonum/mat.
//  2. Nodes warm-start from the previous node's basis. Depth-first branching
//     on the most fractional integer variable (lowest index on ties), nearer
//     side first. Nodes whose LP bound is not better than the incumbent by
//     more than Eps (or the relative Gap) are pruned.
//  3. Limits: context cancellation, Options.TimeLimit and Options.NodeLimit.
//     Cancellation and the deadline are also honoured inside a relaxation.
//     Stopping with an incumbent yields StatusFeasible; without one,
//     StatusNotSolved.
//
// The objective is always minimized. Lower bounds must be finite.
//
// Complexity: exponential in the number of integer variables in the worst
// case; each node costs one warm-started simplex solve.
package mip
