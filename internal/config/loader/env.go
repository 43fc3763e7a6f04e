package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvLoader loads configuration from environment variables.
//
// PREFIX_SECTION_KEY maps to section.key, with the remaining words of the
// key joined by underscores: GOTODEF_PLUGIN_TAB_WIDTH is plugin.tab_width.
// Sections listed as nested take one more level, so
// GOTODEF_SERVERS_GO_COMMAND is servers.go.command.
type EnvLoader struct {
	prefix  string
	nested  map[string]bool
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "GOTODEF_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		nested:  map[string]bool{"servers": true},
		environ: os.Environ,
	}
}

// WithEnviron replaces the environment source.
func (l *EnvLoader) WithEnviron(fn func() []string) *EnvLoader {
	l.environ = fn
	return l
}

// Load reads environment variables and returns a configuration map.
// Empty values are treated as set.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) {
			continue
		}

		path := l.envToPath(name)
		if len(path) < 2 {
			continue
		}
		setByPath(config, path, parseValue(value))
	}

	return config, nil
}

// envToPath converts GOTODEF_PLUGIN_TAB_WIDTH to [plugin tab_width].
func (l *EnvLoader) envToPath(env string) []string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	parts := strings.Split(name, "_")
	if len(parts) < 2 || parts[0] == "" {
		return nil
	}

	section := parts[0]
	rest := parts[1:]
	if l.nested[section] {
		if len(rest) < 2 {
			return nil
		}
		return []string{section, rest[0], strings.Join(rest[1:], "_")}
	}
	return []string{section, strings.Join(rest, "_")}
}

// parseValue attempts to parse the string value into an appropriate type.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Only with a decimal point, so integers stay integers.
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}

// setByPath sets a value in a nested map.
func setByPath(data map[string]any, path []string, value any) {
	current := data
	for _, part := range path[:len(path)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[path[len(path)-1]] = value
}
