package config

import "time"

// ScheduleConfig holds batch auction cadence configuration.
type ScheduleConfig struct {
	// Period between scheduled batch runs
	Period time.Duration `mapstructure:"period" validate:"required"`

	// TimeUnitSeconds is the trade-rate normalization unit passed to the solver
	TimeUnitSeconds float64 `mapstructure:"time_unit_seconds" validate:"min=1"`

	// SolveTimeout bounds a single batch solve
	SolveTimeout time.Duration `mapstructure:"solve_timeout" validate:"required"`
}
