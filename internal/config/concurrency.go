package config

import "runtime"

// EffectiveConcurrency resolves the number of scenarios evaluated at once:
// the configured value when positive, otherwise the number of CPUs, never
// more than the number of scenarios.
func EffectiveConcurrency(configured, numScenarios int) int {
	n := configured
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if numScenarios > 0 && n > numScenarios {
		n = numScenarios
	}
	if n < 1 {
		n = 1
	}
	return n
}
