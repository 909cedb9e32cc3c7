package hook

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError lists why a hook config does not satisfy its plugin.
type ValidationError struct {
	Plugin   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config for plugin %s: %s", e.Plugin, strings.Join(e.Problems, "; "))
}

// Validate checks that plugin declares action and that config satisfies the
// manifest's configSchema when one is present. An empty config is treated
// as {}.
func Validate(plugin *Plugin, action string, config json.RawMessage) error {
	if !plugin.Manifest.HasAction(action) {
		return &ValidationError{
			Plugin:   plugin.Manifest.Name,
			Problems: []string{fmt.Sprintf("unknown action %q", action)},
		}
	}

	if len(plugin.Manifest.ConfigSchema) == 0 {
		return nil
	}
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(plugin.Manifest.ConfigSchema),
		gojsonschema.NewBytesLoader(config),
	)
	if err != nil {
		return fmt.Errorf("validate config for plugin %s: %w", plugin.Manifest.Name, err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return &ValidationError{Plugin: plugin.Manifest.Name, Problems: problems}
}
