package config

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/go-playground/validator/v10"

	"mcserver/internal/paths"
)

var validate = validator.New()

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate checks the struct constraints and returns the first failures
// joined into one error.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", fe.Namespace(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", fe.Namespace(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s fails %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
	}
}

// Check runs Validate plus environment checks that only warrant a warning:
// whether the java binary is on PATH and whether the root directory exists.
func (c Config) Check() []ValidationResult {
	var results []ValidationResult
	if err := c.Validate(); err != nil {
		results = append(results, ValidationResult{Level: "error", Message: err.Error()})
	}

	if c.JavaBin != "" {
		if _, err := exec.LookPath(c.JavaBin); err != nil {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("java binary %q not found in PATH", c.JavaBin),
			})
		}
	}

	if c.Root != "" {
		exists, err := paths.DirExists(c.Root)
		switch {
		case err != nil:
			results = append(results, ValidationResult{Level: "error", Message: fmt.Sprintf("stat root: %v", err)})
		case !exists:
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("root directory %q does not exist yet", c.Root),
			})
		}
	}
	return results
}

// HasErrors reports whether any result is at error level.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.Level == "error" {
			return true
		}
	}
	return false
}
