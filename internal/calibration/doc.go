// Package calibration fits logistic growth curves to a start condition and a
// future target by exhaustive grid search.
//
// For every requested growth rate the calibrator walks a log-spaced grid of
// asymptotic capacities. For each capacity it picks the peak year whose curve
// best reproduces the start rate, then scores that (capacity, peak year) pair
// by how well its storage rate at the target year matches the target rate.
// The capacity with the lowest target error wins. Ties always resolve to the
// lowest grid index, so results are reproducible bit for bit.
//
// There is no "no solution" outcome: the best grid point is returned together
// with its residuals and callers judge the fit quality.
package calibration
