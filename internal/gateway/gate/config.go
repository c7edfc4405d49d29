package gate

import (
	"strings"
	"time"
)

type Config struct {
	Key    string
	Secret string

	RESTBaseURL string
	HTTPTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	out.Key = strings.TrimSpace(out.Key)
	out.Secret = strings.TrimSpace(out.Secret)
	out.RESTBaseURL = strings.TrimSpace(out.RESTBaseURL)
	if out.HTTPTimeout <= 0 {
		out.HTTPTimeout = 15 * time.Second
	}
	return out
}
