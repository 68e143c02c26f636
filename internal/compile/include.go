package compile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrIncludeNotFound is returned when no include path holds the file.
var ErrIncludeNotFound = errors.New("requested file not found")

// FindInclude returns the path and content of the first readable file named
// name under paths, searched in order.
func FindInclude(name string, paths []string) (string, string, error) {
	for _, dir := range paths {
		candidate := filepath.Join(dir, name)
		raw, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		return candidate, string(raw), nil
	}
	return "", "", fmt.Errorf("%w: %s", ErrIncludeNotFound, name)
}
