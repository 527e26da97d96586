package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// Validate normalizes and checks the whole config. Datatypes referenced by
// routes must already be registered in TypeReg when this runs.
func (c *Config) Validate() error {
	if len(c.Routes) == 0 {
		return errors.New("no routes defined")
	}
	if err := c.validateRoutes(); err != nil {
		return err
	}
	return c.validateCompletions()
}

func (c *Config) validateRoutes() error {
	for i := range c.Routes {
		if err := c.Routes[i].normalize(); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
		if err := c.Routes[i].validate(); err != nil {
			return fmt.Errorf("route %d (%s %s): %w", i, c.Routes[i].Method, c.Routes[i].Path, err)
		}
		if iv := c.Routes[i].Handler.Invoke; iv != nil {
			if dt := strings.TrimSpace(iv.DataType); dt != "" {
				if _, ok := TypeReg[dt]; !ok {
					return fmt.Errorf("handler.invoke.datatype %q not registered", dt)
				}
			}
			if len(iv.Transformers) > 0 && strings.TrimSpace(iv.DataType) == "" {
				return errors.New("handler.invoke.transformers specified but datatype is empty")
			}
		}
	}
	return nil
}

func (c *Config) validateCompletions() error {
	for i := range c.Completions {
		cc := &c.Completions[i]
		if strings.TrimSpace(cc.Address) == "" {
			return fmt.Errorf("completion %d: address required", i)
		}
		if cc.BufferSize == 0 {
			cc.BufferSize = 1024
		}
		if cc.BufferSize < 0 {
			return fmt.Errorf("completion %d: buffer_size must be >= 0", i)
		}
		if cc.TLS != nil && cc.TLS.Enable {
			if strings.TrimSpace(cc.TLS.ServerCert) == "" || strings.TrimSpace(cc.TLS.ServerKey) == "" || strings.TrimSpace(cc.TLS.CA) == "" {
				return fmt.Errorf("completion %d tls: server_cert, server_key, and ca are required when enable=true", i)
			}
		}
	}
	return nil
}
