package rules

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// settingsValidator validates decoded settings structs against their
// `validate` tags.
var settingsValidator = validator.New()

// DecodeSettings decodes a settings bag into a typed settings struct and
// validates it. The round trip through YAML keeps the settings format
// identical whether a rule is built from a config file or from a literal
// map.
func DecodeSettings(settings map[string]any, out any) error {
	raw, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode settings: %w", err)
	}
	if err := settingsValidator.Struct(out); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}
