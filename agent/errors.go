package agent

import (
	"errors"
	"fmt"

	"github.com/hupe1980/sherpa/core"
)

// ConfigurationError reports a static configuration problem detected while
// preparing an agent turn (unknown agent id, broken prompt template).
type ConfigurationError struct {
	AgentID core.AgentID
	Err     error
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("agent %q configuration error: %v", string(e.AgentID), e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, core.ErrConfiguration) succeed.
func (e *ConfigurationError) Is(target error) bool {
	return target == core.ErrConfiguration
}

// IsConfigurationError reports whether err is a *ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
