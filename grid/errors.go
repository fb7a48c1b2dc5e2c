package grid

import "fmt"

// ConfigurationError reports an invalid model setup. It is raised before the
// time loop starts and is always fatal.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func ConfigErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// NumericalDivergenceError reports NaN/Inf contamination of the field arrays.
// The coupling algorithm has no stability margin against propagating corrupted
// boundary data between grids, so the run aborts immediately.
type NumericalDivergenceError struct {
	GridName  string
	Component string
	Iteration int
}

func (e *NumericalDivergenceError) Error() string {
	return fmt.Sprintf("numerical divergence: non-finite %s detected in grid [%s] at iteration %d",
		e.Component, e.GridName, e.Iteration)
}
