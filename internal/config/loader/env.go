package loader

import (
	"os"
	"strings"
)

// EnvLoader loads configuration from explicitly mapped environment
// variables. Values are kept as strings; the decoder converts them.
type EnvLoader struct {
	mapping map[string]string // Env var -> config path
}

// NewEnvLoader creates a loader for mapping.
func NewEnvLoader(mapping map[string]string) *EnvLoader {
	m := make(map[string]string, len(mapping))
	for env, path := range mapping {
		m[env] = path
	}
	return &EnvLoader{mapping: m}
}

// Load reads the mapped variables that are set. Empty values count as
// unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)
	for env, path := range l.mapping {
		if val := os.Getenv(env); val != "" {
			setByPath(config, path, val)
		}
	}
	return config, nil
}

// AddMapping adds a custom environment variable mapping.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	l.mapping[envVar] = configPath
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			next := make(map[string]any)
			current[part] = next
			current = next
		}
	}

	current[parts[len(parts)-1]] = value
}
