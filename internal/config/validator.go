package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidStorageDrivers returns the list of supported key-value backends
func ValidStorageDrivers() []string {
	return []string{"memory", "sqlite", "postgres"}
}

// ValidNotifyDrivers returns the list of supported event notifiers
func ValidNotifyDrivers() []string {
	return []string{"none", "log", "amqp"}
}

const (
	minTick = 100 * time.Millisecond
	maxTick = 5 * time.Second
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{"server.addr", c.Server.Addr, "must not be empty"})
	}
	if !slices.Contains([]string{"debug", "release", "test"}, c.Server.GinMode) {
		errs = append(errs, ValidationError{"server.gin_mode", c.Server.GinMode, "must be debug, release or test"})
	}

	if !slices.Contains(ValidStorageDrivers(), c.Storage.Driver) {
		errs = append(errs, ValidationError{"storage.driver", c.Storage.Driver, "must be one of " + strings.Join(ValidStorageDrivers(), ", ")})
	}
	if c.Storage.Driver == "sqlite" && c.Storage.SQLitePath == "" {
		errs = append(errs, ValidationError{"storage.sqlite_path", c.Storage.SQLitePath, "required for sqlite driver"})
	}
	if c.Storage.Driver == "postgres" {
		pg := c.Storage.Postgres
		if pg.Host == "" || pg.User == "" || pg.Database == "" {
			errs = append(errs, ValidationError{"storage.postgres", pg.Host, "host, user and database are required"})
		}
	}

	if !slices.Contains(ValidLogLevels(), strings.ToUpper(c.Logging.Level)) {
		errs = append(errs, ValidationError{"logging.level", c.Logging.Level, "must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}

	for field, raw := range map[string]string{
		"geocoding.search_url":  c.Geocoding.SearchURL,
		"geocoding.reverse_url": c.Geocoding.ReverseURL,
		"routing.base_url":      c.Routing.BaseURL,
	} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{field, raw, "must be an absolute URL"})
		}
	}
	if strings.TrimSpace(c.Geocoding.UserAgent) == "" {
		errs = append(errs, ValidationError{"geocoding.user_agent", c.Geocoding.UserAgent, "required by the Nominatim usage policy"})
	}
	if c.Geocoding.Viewbox != "" && len(strings.Split(c.Geocoding.Viewbox, ",")) != 4 {
		errs = append(errs, ValidationError{"geocoding.viewbox", c.Geocoding.Viewbox, "must have four comma separated values"})
	}
	if c.Geocoding.Limit < 1 || c.Geocoding.Limit > 50 {
		errs = append(errs, ValidationError{"geocoding.limit", c.Geocoding.Limit, "must be between 1 and 50"})
	}

	if c.Packing.Duration <= 0 {
		errs = append(errs, ValidationError{"packing.duration", c.Packing.Duration, "must be positive"})
	}
	if c.Packing.Tick < minTick || c.Packing.Tick > maxTick {
		errs = append(errs, ValidationError{"packing.tick", c.Packing.Tick, fmt.Sprintf("must be between %s and %s", minTick, maxTick)})
	}

	if !slices.Contains(ValidNotifyDrivers(), c.Notify.Driver) {
		errs = append(errs, ValidationError{"notify.driver", c.Notify.Driver, "must be one of " + strings.Join(ValidNotifyDrivers(), ", ")})
	}
	if c.Notify.Driver == "amqp" && (c.Notify.AMQP.Host == "" || c.Notify.AMQP.Exchange == "") {
		errs = append(errs, ValidationError{"notify.amqp", c.Notify.AMQP.Host, "host and exchange are required"})
	}

	return errs
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"DEBUG", "INFO", "WARN", "ERROR"}
}
