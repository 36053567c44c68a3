package registry

import (
	"log/slog"

	"github.com/meigma/asar/registry/oras"
)

// Client pushes and pulls archives.
type Client struct {
	oci    OCIClient
	logger *slog.Logger

	// orasOpts are handed to the default ORAS client when no OCIClient is set.
	orasOpts []oras.Option
}

func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// New creates a client.
//
// Without WithOCIClient an ORAS client is built from the pass-through
// options (WithPlainHTTP, WithDockerConfig, and so on).
func New(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.oci == nil {
		orasOpts := c.orasOpts
		if c.logger != nil {
			orasOpts = append(orasOpts, oras.WithLogger(c.logger))
		}
		c.oci = oras.New(orasOpts...)
	}
	return c
}
