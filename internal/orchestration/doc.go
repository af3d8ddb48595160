// Package orchestration runs the calibration and projection of every growth
// scenario of a request concurrently and assembles the run's output. It
// decouples the engine from presentation via the ProgressReporter and
// ResultPresenter interfaces.
package orchestration
