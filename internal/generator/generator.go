// Package generator turns a natural-language form description into a schema
// document by asking a chat-completions language model.
package generator

import (
	"context"
	"regexp"
	"strings"
)

// Generator produces the raw JSON text of a form schema for prompt.
// Callers own decoding and checking the result.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// SystemPrompt instructs the model to answer with a bare schema document.
const SystemPrompt = `You are a form schema generator. Convert natural language form descriptions into structured JSON form schemas.

Output ONLY valid JSON in this exact format:
{
  "title": "Form Title",
  "description": "Brief description of the form",
  "fields": [
    {
      "id": "fieldName",
      "label": "Field Label",
      "type": "text|email|number|textarea|select",
      "placeholder": "Optional placeholder text",
      "required": true|false,
      "options": [{"value": "opt1", "label": "Option 1"}] // Only for select type
    }
  ]
}

Rules:
- Use camelCase for field id
- type must be one of: text, email, number, textarea, select
- Include "options" array only for select fields (with value and label properties)
- Make sensible decisions about required fields
- Generate 3-10 fields based on the description
- Add helpful placeholder text where appropriate
- Output ONLY the JSON, no markdown, no explanation`

var (
	openingFence = regexp.MustCompile("^```(?:json)?\\n?")
	closingFence = regexp.MustCompile("\\n?```$")
)

// StripFences removes a markdown code fence around the model's answer.
// Models are told not to add one but often do.
func StripFences(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = openingFence.ReplaceAllString(s, "")
		s = closingFence.ReplaceAllString(s, "")
	}
	return s
}

// Static always answers with the same document or error. It backs offline
// mode when no model API key is configured, and tests.
type Static struct {
	Response []byte
	Err      error
}

func (s Static) Generate(_ context.Context, _ string) ([]byte, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Response, nil
}

// SampleSchema is what Static serves in offline mode.
const SampleSchema = `{
  "title": "Contact Form",
  "description": "Get in touch with us",
  "fields": [
    {"id": "fullName", "label": "Full Name", "type": "text", "placeholder": "Jane Doe", "required": true},
    {"id": "email", "label": "Email", "type": "email", "placeholder": "jane@example.com", "required": true},
    {"id": "topic", "label": "Topic", "type": "select", "required": false,
     "options": [{"value": "sales", "label": "Sales"}, {"value": "support", "label": "Support"}]},
    {"id": "message", "label": "Message", "type": "textarea", "placeholder": "How can we help?", "required": true}
  ]
}`
