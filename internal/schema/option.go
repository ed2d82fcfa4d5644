package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// OptionKind tags which representation an Option was written in.
type OptionKind int

const (
	// OptionValue is a bare scalar option: "red".
	OptionValue OptionKind = iota
	// OptionPair is an object option: {"value": "red", "label": "Red"}.
	OptionPair
)

// Option is one allowed value of a select field.
//
// Value holds a JSON scalar (string, float64 or bool) or nil when an object
// option has no usable value. Integers decoded from YAML are widened to float64
// so they compare equal to JSON input.
type Option struct {
	Kind  OptionKind
	Value any
	Label string
}

// DisplayLabel is what error messages show: the label of an object option,
// falling back to its value, or the bare value itself.
func (o Option) DisplayLabel() string {
	if o.Kind == OptionPair && o.Label != "" {
		return o.Label
	}
	return FormatScalar(o.Value)
}

// Matches reports whether v is strictly equal to the option value.
// A string never equals a number here, the same as === would have it.
func (o Option) Matches(v any) bool {
	switch want := o.Value.(type) {
	case string:
		got, ok := v.(string)
		return ok && got == want
	case float64:
		got, ok := v.(float64)
		return ok && got == want
	case bool:
		got, ok := v.(bool)
		return ok && got == want
	}
	return false
}

func (o Option) MarshalJSON() ([]byte, error) {
	if o.Kind == OptionValue {
		return json.Marshal(o.Value)
	}
	pair := struct {
		Value any    `json:"value"`
		Label string `json:"label,omitempty"`
	}{o.Value, o.Label}
	return json.Marshal(pair)
}

func (o *Option) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("schema: empty option")
	}
	if data[0] == '{' {
		var pair struct {
			Value any `json:"value"`
			Label any `json:"label"`
		}
		if err := json.Unmarshal(data, &pair); err != nil {
			return fmt.Errorf("schema: decoding option: %w", err)
		}
		*o = Option{Kind: OptionPair, Value: scalar(pair.Value), Label: labelText(pair.Label)}
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("schema: decoding option: %w", err)
	}
	switch v.(type) {
	case string, float64, bool:
		*o = Option{Kind: OptionValue, Value: v}
		return nil
	}
	return fmt.Errorf("schema: option must be a string or an object, got %s", data)
}

func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var pair struct {
			Value any `yaml:"value"`
			Label any `yaml:"label"`
		}
		if err := node.Decode(&pair); err != nil {
			return fmt.Errorf("schema: decoding option: %w", err)
		}
		*o = Option{Kind: OptionPair, Value: scalar(pair.Value), Label: labelText(pair.Label)}
		return nil
	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("schema: decoding option: %w", err)
		}
		if v = scalar(v); v != nil {
			*o = Option{Kind: OptionValue, Value: v}
			return nil
		}
	}
	return fmt.Errorf("schema: option at line %d must be a string or a mapping", node.Line)
}

// FormatScalar renders a JSON scalar the way it reads in a message.
func FormatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func scalar(v any) any {
	switch t := v.(type) {
	case string, float64, bool:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	}
	return nil
}

func labelText(v any) string {
	if v == nil {
		return ""
	}
	return FormatScalar(scalar(v))
}
