package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate checks the configuration and returns structured results.
func (c Config) Validate() []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateVersion()...)
	results = append(results, c.validateRegistry()...)
	results = append(results, c.validateCache()...)
	results = append(results, c.validateLog()...)
	results = append(results, c.validateOutdated()...)
	return results
}

// Errors returns the error-level findings of Validate.
func (c Config) Errors() []ValidationResult {
	var errs []ValidationResult
	for _, r := range c.Validate() {
		if r.Level == "error" {
			errs = append(errs, r)
		}
	}
	return errs
}

func (c Config) validateVersion() []ValidationResult {
	if c.Version != 1 {
		return []ValidationResult{{
			Level:   "error",
			Message: fmt.Sprintf("unsupported config version %d", c.Version),
		}}
	}
	return nil
}

func (c Config) validateRegistry() []ValidationResult {
	var results []ValidationResult
	u, err := url.Parse(strings.TrimSpace(c.Registry.URL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("registry.url %q is not an http(s) URL", c.Registry.URL),
		})
	} else if u.Scheme == "http" {
		results = append(results, ValidationResult{
			Level:   "warning",
			Message: fmt.Sprintf("registry.url %q is not using https", c.Registry.URL),
		})
	}
	if c.Registry.TimeoutSec < 0 {
		results = append(results, ValidationResult{
			Level:   "error",
			Message: fmt.Sprintf("registry.timeout_s must not be negative (got %d)", c.Registry.TimeoutSec),
		})
	}
	return results
}

func (c Config) validateCache() []ValidationResult {
	if c.Cache.TTLSec < 0 {
		return []ValidationResult{{
			Level:   "error",
			Message: fmt.Sprintf("cache.ttl_s must not be negative (got %d)", c.Cache.TTLSec),
		}}
	}
	return nil
}

func (c Config) validateLog() []ValidationResult {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return []ValidationResult{{
			Level:   "error",
			Message: fmt.Sprintf("log.level %q is not a known level", c.Log.Level),
		}}
	}
	return nil
}

func (c Config) validateOutdated() []ValidationResult {
	if c.Outdated.Concurrency < 1 {
		return []ValidationResult{{
			Level:   "error",
			Message: fmt.Sprintf("outdated.concurrency must be at least 1 (got %d)", c.Outdated.Concurrency),
		}}
	}
	if c.Outdated.Concurrency > 16 {
		return []ValidationResult{{
			Level:   "warning",
			Message: fmt.Sprintf("outdated.concurrency %d may trip the index rate limit", c.Outdated.Concurrency),
		}}
	}
	return nil
}
