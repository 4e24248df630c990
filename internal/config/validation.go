package config

import (
	"fmt"
	"net/url"

	"github.com/go-playground/validator/v10"
)

// Validate checks struct tags and the cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	u, err := url.Parse(c.OneBot.WSURL)
	if err != nil {
		return fmt.Errorf("onebot.ws_url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("onebot.ws_url: scheme must be ws or wss, got %q", u.Scheme)
	}

	return nil
}
