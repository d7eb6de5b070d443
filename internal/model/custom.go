package model

import (
	"encoding/json"
	"strings"

	"github.com/dukerupert/casa/internal/errs"
)

// Custom stores free-form settings a client keeps per module.
type Custom struct {
	Base
	Module string          `json:"module"`
	Data   json.RawMessage `json:"data,omitempty"`
	User   string          `json:"user"`
}

func (c *Custom) Owner() string { return c.User }

func (c *Custom) Validate() error {
	if strings.TrimSpace(c.Module) == "" {
		return errs.New(errs.EInvalid, "module is required")
	}
	if c.User == "" {
		return errs.New(errs.EInvalid, "user is required")
	}
	return nil
}
