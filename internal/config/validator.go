package config

import (
	"fmt"
	"strings"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s = %v: %s", e.Field, e.Value, e.Message)
}

// ValidationErrors aggregates every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "config: no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

var validLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

// Validate checks the configuration and returns every violation at once.
func (c *Config) Validate() error {
	var errs ValidationErrors

	if !validLevels[strings.ToUpper(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of DEBUG, INFO, WARN, ERROR",
		})
	}

	if c.Storage.Persist && c.Storage.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "storage.dir",
			Value:   c.Storage.Dir,
			Message: "required when storage.persist is true",
		})
	}

	if c.TUI.MaxHistory < 0 {
		errs = append(errs, ValidationError{
			Field:   "tui.max_history",
			Value:   c.TUI.MaxHistory,
			Message: "must be zero or positive",
		})
	}

	if c.Capability.DownloadBytes == 0 {
		errs = append(errs, ValidationError{
			Field:   "capability.download_bytes",
			Value:   c.Capability.DownloadBytes,
			Message: "must be positive",
		})
	}

	for i, lang := range c.Languages {
		if strings.TrimSpace(lang.Code) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("languages[%d].code", i),
				Value:   lang.Code,
				Message: "language code cannot be empty",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
