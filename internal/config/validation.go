package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateGateway checks the settings the gateway service depends on.
// The external gateway key is intentionally optional: an empty key disables
// external validation, which the gateway logs as a hazard at startup.
func (c *Config) ValidateGateway() error {
	if strings.TrimSpace(c.InternalServiceKey) == "" {
		return fmt.Errorf("%w: set APP_INTERNAL_SERVICE_KEY", ErrMissingInternalKey)
	}

	u, err := url.Parse(c.StorageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidStorageURL, c.StorageURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidStorageURL, u.Scheme)
	}

	return nil
}

// ValidateStorage checks the settings the storage service depends on.
func (c *Config) ValidateStorage() error {
	if strings.TrimSpace(c.InternalServiceKey) == "" {
		return fmt.Errorf("%w: set APP_INTERNAL_SERVICE_KEY", ErrMissingInternalKey)
	}
	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host is empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name is empty", ErrInvalidPostgresDBName)
	}
	return nil
}
