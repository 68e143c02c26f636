package services

import (
	"errors"
	"fmt"
	"strings"

	"datapacks/internal/status"
)

var (
	ErrDiscovery     = errors.New("discovery error")
	ErrMetadata      = errors.New("metadata error")
	ErrDefinition    = errors.New("definition error")
	ErrCompile       = errors.New("compile error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes phase context while tagging it
// with the provided marker for later status classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, phase, operation, message string, err error) error {
	detail := buildDetail(phase, operation, message)
	if marker == nil {
		marker = ErrMetadata
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a per-record failure to the status recorded for it.
func FailureStatus(err error) status.Status {
	if errors.Is(err, ErrNotFound) {
		return status.Ignored
	}
	return status.Error
}

// IsStructural reports whether err means the input tree or definition is
// unusable, as opposed to a failure isolated to one record.
func IsStructural(err error) bool {
	return errors.Is(err, ErrMetadata) || errors.Is(err, ErrDefinition) || errors.Is(err, ErrConfiguration)
}

func buildDetail(phase, operation, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "datapack failure"
	}
	return strings.Join(parts, ": ")
}
