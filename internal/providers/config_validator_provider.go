package providers

import (
	"barcodedrop/internal/structures"
	"errors"
	"fmt"
	"strings"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (c *CnfValidator) Validate() error {
	if strings.TrimSpace(c.conf.Username) == "" {
		return errors.New("username is required")
	}

	v := validate.Struct(c.conf)
	if !v.Validate() {
		return v.Errors
	}

	return c.validateChannel()
}

// The channel section is only mandatory while live updates are on.
func (c *CnfValidator) validateChannel() error {
	ch := c.conf.Channel
	if ch.Disabled {
		return nil
	}
	if !strings.HasPrefix(ch.URL, "ws://") && !strings.HasPrefix(ch.URL, "wss://") {
		return fmt.Errorf("channel.url must be a ws:// or wss:// URL, got %q", ch.URL)
	}
	if ch.MinDelay <= 0 {
		return errors.New("channel.minDelay must be positive")
	}
	if ch.MaxDelay < ch.MinDelay {
		return fmt.Errorf("channel.maxDelay (%s) is below channel.minDelay (%s)", ch.MaxDelay, ch.MinDelay)
	}
	if ch.GrowthFactor < 1 {
		return fmt.Errorf("channel.growthFactor must be >= 1, got %v", ch.GrowthFactor)
	}
	if ch.ConnectTimeout <= 0 {
		return errors.New("channel.connectTimeout must be positive")
	}
	return nil
}
