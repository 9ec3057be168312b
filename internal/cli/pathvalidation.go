package cli

import (
	"fmt"
	"path/filepath"
	"strings"
)

// validateUserPath rejects names that would escape the working directory or
// carry shell metacharacters.
func validateUserPath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) || strings.Contains(cleaned, "..") {
		return fmt.Errorf("path traversal not allowed in path: %s", path)
	}
	if strings.ContainsAny(cleaned, ";|&$`\\\"'<>(){}[]!*?~") {
		return fmt.Errorf("invalid characters in file path: %s", path)
	}
	return nil
}
