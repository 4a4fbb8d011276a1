package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

var knownManagers = map[string]bool{
	"winget":     true,
	"chocolatey": true,
	"scoop":      true,
}

var validLogLevels = map[string]bool{
	"debug":   true,
	"info":    true,
	"warn":    true,
	"warning": true,
	"error":   true,
}

// Validate checks the config for invalid values and returns all errors found.
// Values that would break the operation queue are clamped to a safe range;
// everything else is reported and logged as a warning without blocking startup.
func (c *Config) Validate() []error {
	var errs []error

	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, fmt.Errorf("data_dir is empty, using default"))
		c.DataDir = dataDir()
	}

	if c.GUIBridgeURL != "" {
		u, err := url.Parse(c.GUIBridgeURL)
		if err != nil {
			errs = append(errs, fmt.Errorf("gui_bridge_url %q is not a valid URL: %w", c.GUIBridgeURL, err))
		} else if u.Scheme != "ws" && u.Scheme != "wss" {
			errs = append(errs, fmt.Errorf("gui_bridge_url scheme must be ws or wss, got %q", u.Scheme))
		}
	}

	for _, name := range c.EnabledManagers {
		if !knownManagers[strings.ToLower(name)] {
			errs = append(errs, fmt.Errorf("unknown manager %q", name))
		}
	}

	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Errorf("log_level %q is not valid (use debug, info, warn, error)", c.LogLevel))
	}

	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q is not valid (use text or json)", c.LogFormat))
	}

	if c.MaxConcurrentOperations < 1 {
		errs = append(errs, fmt.Errorf("max_concurrent_operations %d is below minimum 1, clamping", c.MaxConcurrentOperations))
		c.MaxConcurrentOperations = 1
	} else if c.MaxConcurrentOperations > 16 {
		errs = append(errs, fmt.Errorf("max_concurrent_operations %d exceeds maximum 16, clamping", c.MaxConcurrentOperations))
		c.MaxConcurrentOperations = 16
	}

	if c.OperationQueueSize < 1 {
		errs = append(errs, fmt.Errorf("operation_queue_size %d is below minimum 1, clamping", c.OperationQueueSize))
		c.OperationQueueSize = 1
	} else if c.OperationQueueSize > 4096 {
		errs = append(errs, fmt.Errorf("operation_queue_size %d exceeds maximum 4096, clamping", c.OperationQueueSize))
		c.OperationQueueSize = 4096
	}

	for _, err := range errs {
		slog.Warn("config validation", "error", err)
	}

	return errs
}
