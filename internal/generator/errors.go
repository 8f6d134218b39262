package generator

import (
	"errors"
	"fmt"
)

// ErrNoHostService is returned when no endpoint-host service is available.
var ErrNoHostService = errors.New("no endpoint host service found")

// ConfigurationError aborts a whole generation run.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
