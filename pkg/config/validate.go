// Package config loads and validates service configuration.
package config

import (
	"fmt"
	"strings"
)

// ValidateCore ensures critical configuration is present.
func (c *Config) ValidateCore() error {
	var missing []string

	if strings.TrimSpace(c.Server.Port) == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if strings.TrimSpace(c.Redis.URL) == "" {
		missing = append(missing, "REDIS_URL")
	}
	if strings.TrimSpace(c.Gateways.EmployeeAPIURL) == "" {
		missing = append(missing, "EMPLOYEE_API_URL")
	}
	if strings.TrimSpace(c.Gateways.OrderAPIURL) == "" {
		missing = append(missing, "ORDER_API_URL")
	}
	if strings.TrimSpace(c.Gateways.ExtractionAPIURL) == "" {
		missing = append(missing, "EXTRACTION_API_URL")
	}
	if strings.TrimSpace(c.Link.Secret) == "" || c.Link.Secret == "change-this-secret" {
		missing = append(missing, "INVITE_LINK_SECRET")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return nil
}
