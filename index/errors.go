package index

import (
	"fmt"

	"trajgrid/trajectory"
)

// ConfigurationError is returned when a grid index cannot be created from the given bounds and cell sizes.
type ConfigurationError struct {
	Message string `json:"message"`
}

func newConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{
		Message: fmt.Sprintf("Invalid grid configuration: "+format, args...),
	}
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// InvalidTrajectoryError is returned when a trajectory cannot be inserted, e.g. because its timestamps do not
// strictly increase. Nothing of such a trajectory is inserted.
type InvalidTrajectoryError struct {
	Message      string        `json:"message"`
	TrajectoryID trajectory.ID `json:"trajectory-id"`
	cause        error
}

func newInvalidTrajectoryError(id trajectory.ID, cause error) *InvalidTrajectoryError {
	return &InvalidTrajectoryError{
		Message:      fmt.Sprintf("Invalid trajectory %d: %s", id, cause.Error()),
		TrajectoryID: id,
		cause:        cause,
	}
}

func (e *InvalidTrajectoryError) Error() string {
	return e.Message
}

func (e *InvalidTrajectoryError) Unwrap() error {
	return e.cause
}
