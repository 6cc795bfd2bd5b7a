package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks settings required before any stage can run. Gateway
// credentials are validated by the components that use them.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.SrcDir) == "" {
		problems = append(problems, "paths.src_dir is required")
	}
	if strings.TrimSpace(c.Paths.TmpDir) == "" {
		problems = append(problems, "paths.tmp_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir is required")
	}
	if c.IIIF.Version != 2 && c.IIIF.Version != 3 {
		problems = append(problems, fmt.Sprintf("iiif.version must be 2 or 3, got %d", c.IIIF.Version))
	}
	if c.Tools.TimeoutSeconds < 0 {
		problems = append(problems, "tools.timeout_seconds must not be negative")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be text or json, got %q", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
