// Package schema validates events arriving from the presentation layer and
// the control APIs before they reach the pipeline.
package schema

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"ambient-assistant/internal/observability/logging"
)

// ErrInvalidEvent wraps every validation failure.
var ErrInvalidEvent = errors.New("invalid event")

type Validator struct {
	validate *validator.Validate
	logger   zerolog.Logger
}

func New() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logging.WithComponent("schema"),
	}
}

// Validate checks event against its struct tags.
func (v *Validator) Validate(event any) error {
	if err := v.validate.Struct(event); err != nil {
		v.logger.Debug().Err(err).Str("event", fmt.Sprintf("%T", event)).Msg("Event rejected")
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	return nil
}
