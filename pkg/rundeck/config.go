package rundeck

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validate checks that the configuration can address one instance.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required, is.URL),
		validation.Field(&c.Token, validation.When(c.TokenFile == "", validation.Required)),
		validation.Field(&c.RetryMax, validation.Min(0)),
		validation.Field(&c.HTTPTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.RetryWaitMax, validation.When(c.RetryWaitMin > 0, validation.Min(c.RetryWaitMin))),
	)
	if err != nil {
		return fmt.Errorf("invalid rundeck config: %w", err)
	}

	return nil
}
