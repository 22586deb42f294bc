package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Lookup resolves a secret by name.
// NAME_FILE (Docker/Kubernetes secrets) wins over NAME; a missing value yields "".
func Lookup(name string) (string, error) {
	if path := os.Getenv(name + "_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read secret file %s: %w", path, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return os.Getenv(name), nil
}

// Optional returns the secret or fallback when it is unset or unreadable.
func Optional(name, fallback string) string {
	value, err := Lookup(name)
	if err != nil || value == "" {
		return fallback
	}
	return value
}
