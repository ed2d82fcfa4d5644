// Package schema is the typed model of a form definition.
//
// A schema arrives as loosely typed JSON (from the generator or a hand-written
// file). It is decoded here once, into explicit Go types, so that validation
// code never has to branch on the raw shape again. In particular select options,
// which may be bare strings or {value,label} objects, become a tagged union.
package schema

import (
	"errors"
	"fmt"
)

// FieldType is the kind of input a field collects.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeEmail    FieldType = "email"
	TypeNumber   FieldType = "number"
	TypeTextarea FieldType = "textarea"
	TypeSelect   FieldType = "select"
)

// Known reports whether t is one of the closed set of field types.
// Unknown types are still accepted and validated as text.
func (t FieldType) Known() bool {
	switch t {
	case TypeText, TypeEmail, TypeNumber, TypeTextarea, TypeSelect:
		return true
	}
	return false
}

// FormSchema is an ordered list of fields plus display metadata.
// Once stored as part of a form it is never mutated.
type FormSchema struct {
	ID          string            `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string            `json:"title" yaml:"title"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []FieldDefinition `json:"fields" yaml:"fields"`
}

// FieldDefinition is one named, typed input slot.
type FieldDefinition struct {
	ID          string    `json:"id" yaml:"id"`
	Label       string    `json:"label" yaml:"label"`
	Type        FieldType `json:"type" yaml:"type"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required    bool      `json:"required" yaml:"required"`
	// Options is nil when the document has no options list and empty when
	// the list is present but holds no usable entries.
	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`
}

// DisplayLabel is the name used in error messages. Falls back to the id.
func (f FieldDefinition) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

// Field returns the definition with the given id.
func (s FormSchema) Field(id string) (FieldDefinition, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// Check rejects documents that are not shaped like a schema at all. It does not
// deduplicate field ids; keeping them unique is the author's job.
func (s FormSchema) Check() error {
	if s.Fields == nil {
		return errors.New("schema: fields are required")
	}
	for i, f := range s.Fields {
		if f.ID == "" {
			return fmt.Errorf("schema: field %d has no id", i)
		}
	}
	return nil
}
