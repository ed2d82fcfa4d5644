package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// fieldAlias has the same fields as FieldDefinition without its methods,
// which keeps the custom decoders below from recursing.
type fieldAlias FieldDefinition

// UnmarshalJSON decodes a field and drops null entries from its options.
// A present options array stays non-nil even when nothing is left in it.
func (f *FieldDefinition) UnmarshalJSON(data []byte) error {
	var raw struct {
		fieldAlias
		Options []json.RawMessage `json:"options"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = FieldDefinition(raw.fieldAlias)
	f.Options = nil
	if raw.Options != nil {
		f.Options = make([]Option, 0, len(raw.Options))
	}
	for _, r := range raw.Options {
		if bytes.Equal(bytes.TrimSpace(r), []byte("null")) {
			continue
		}
		var o Option
		if err := o.UnmarshalJSON(r); err != nil {
			return fmt.Errorf("field %q: %w", f.ID, err)
		}
		f.Options = append(f.Options, o)
	}
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for hand-written schema files.
func (f *FieldDefinition) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		ID          string      `yaml:"id"`
		Label       string      `yaml:"label"`
		Type        FieldType   `yaml:"type"`
		Placeholder string      `yaml:"placeholder"`
		Required    bool        `yaml:"required"`
		Options     []yaml.Node `yaml:"options"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*f = FieldDefinition{
		ID:          raw.ID,
		Label:       raw.Label,
		Type:        raw.Type,
		Placeholder: raw.Placeholder,
		Required:    raw.Required,
	}
	if raw.Options != nil {
		f.Options = make([]Option, 0, len(raw.Options))
	}
	for i := range raw.Options {
		n := &raw.Options[i]
		if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
			continue
		}
		var o Option
		if err := o.UnmarshalYAML(n); err != nil {
			return fmt.Errorf("field %q: %w", f.ID, err)
		}
		f.Options = append(f.Options, o)
	}
	return nil
}

// MarshalJSON omits options that were never given but keeps an empty list,
// so a stored schema decodes back to the same field.
func (f FieldDefinition) MarshalJSON() ([]byte, error) {
	out := struct {
		fieldAlias
		Options *[]Option `json:"options,omitempty"`
	}{fieldAlias: fieldAlias(f)}
	if f.Options != nil {
		out.Options = &f.Options
	}
	return json.Marshal(out)
}

// ParseJSON decodes and checks a JSON schema document.
func ParseJSON(data []byte) (FormSchema, error) {
	var s FormSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return FormSchema{}, fmt.Errorf("schema: decoding JSON: %w", err)
	}
	if err := s.Check(); err != nil {
		return FormSchema{}, err
	}
	return s, nil
}

// ParseYAML decodes and checks a YAML schema document. JSON is valid YAML,
// so this also accepts .json files.
func ParseYAML(data []byte) (FormSchema, error) {
	var s FormSchema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return FormSchema{}, fmt.Errorf("schema: decoding YAML: %w", err)
	}
	if err := s.Check(); err != nil {
		return FormSchema{}, err
	}
	return s, nil
}
