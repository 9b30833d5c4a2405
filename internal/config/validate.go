package config

import (
	"strings"
	"time"
)

// DateLayout is the portal's DD-MM-YYYY date parameter format.
const DateLayout = "02-01-2006"

// Validate checks the fields a command mode depends on. It returns a *Error
// listing every problem found, or nil.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "harvest":
		problems = append(problems, c.validateSession()...)
		problems = append(problems, c.validateStore()...)
		problems = append(problems, c.validateHarvest()...)
	case "resolve":
		problems = append(problems, c.validateStore()...)
		problems = append(problems, c.validateResolve()...)
	case "session":
		problems = append(problems, c.validateSession()...)
	case "store":
		problems = append(problems, c.validateStore()...)
	default:
		return Invalidf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return Invalidf("config: validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateSession() []string {
	var p []string
	if c.Session.BaseURL == "" {
		p = append(p, "session.base_url is required")
	}
	if c.Session.AuthCookie == "" {
		p = append(p, "session.auth_cookie is required")
	}
	if c.Session.MaxRetries < 1 {
		p = append(p, "session.max_retries must be >= 1")
	}
	if c.Session.RefreshThreshold < 1 {
		p = append(p, "session.refresh_threshold must be >= 1")
	}
	if c.Session.JitterMinMs < 0 || c.Session.JitterMaxMs < c.Session.JitterMinMs {
		p = append(p, "session.jitter_min_ms must be >= 0 and <= jitter_max_ms")
	}
	if c.Fetch.MaxAttempts < 1 {
		p = append(p, "fetch.max_attempts must be >= 1")
	}
	return p
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" && len(c.Store.Connection) == 0 {
			return []string{"store.database_url or store.connection is required"}
		}
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return []string{"store.sqlite_path is required"}
		}
	default:
		return []string{"store.driver must be postgres or sqlite"}
	}
	return nil
}

func (c *Config) validateHarvest() []string {
	var p []string
	if c.Harvest.EndpointsFile == "" {
		p = append(p, "harvest.endpoints_file is required")
	}
	if c.Harvest.SchemaFile == "" {
		p = append(p, "harvest.schema_file is required")
	}
	if c.Harvest.WindowDays < 1 {
		p = append(p, "harvest.window_days must be >= 1")
	}
	if c.Harvest.BatchSize < 1 {
		p = append(p, "harvest.batch_size must be >= 1")
	}
	if _, err := time.Parse(DateLayout, c.Harvest.StartDate); err != nil {
		p = append(p, "harvest.start_date must be DD-MM-YYYY")
	}
	if c.Harvest.EndDate != "" {
		if _, err := time.Parse(DateLayout, c.Harvest.EndDate); err != nil {
			p = append(p, "harvest.end_date must be DD-MM-YYYY")
		}
	}
	return p
}

func (c *Config) validateResolve() []string {
	if c.Resolve.Threshold < 0 || c.Resolve.Threshold > 1 {
		return []string{"resolve.threshold must be between 0 and 1"}
	}
	return nil
}
