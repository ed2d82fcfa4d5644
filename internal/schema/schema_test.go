package schema

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contactJSON = `{
  "id": "schema-1",
  "title": "Contact",
  "fields": [
    {"id": "name", "label": "Name", "type": "text", "required": true, "placeholder": "Jane"},
    {"id": "plan", "label": "Plan", "type": "select",
     "options": ["free", {"value": "pro", "label": "Pro plan"}, {"value": "team"}, null, 3]}
  ]
}`

func TestParseJSON_NormalizesOptions(t *testing.T) {
	s, err := ParseJSON([]byte(contactJSON))
	require.NoError(t, err)

	plan, ok := s.Field("plan")
	require.True(t, ok)

	want := []Option{
		{Kind: OptionValue, Value: "free"},
		{Kind: OptionPair, Value: "pro", Label: "Pro plan"},
		{Kind: OptionPair, Value: "team"},
		{Kind: OptionValue, Value: float64(3)},
	}
	if diff := cmp.Diff(want, plan.Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestOption_DisplayLabel(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
		want string
	}{
		{"bare string", Option{Kind: OptionValue, Value: "free"}, "free"},
		{"pair with label", Option{Kind: OptionPair, Value: "pro", Label: "Pro plan"}, "Pro plan"},
		{"pair without label", Option{Kind: OptionPair, Value: "team"}, "team"},
		{"numeric value", Option{Kind: OptionValue, Value: float64(3)}, "3"},
		{"fractional value", Option{Kind: OptionPair, Value: 2.5}, "2.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opt.DisplayLabel())
		})
	}
}

func TestOption_MatchesIsStrict(t *testing.T) {
	num := Option{Kind: OptionValue, Value: float64(3)}
	assert.True(t, num.Matches(float64(3)))
	assert.False(t, num.Matches("3"))

	str := Option{Kind: OptionPair, Value: "a", Label: "Option A"}
	assert.True(t, str.Matches("a"))
	assert.False(t, str.Matches("A"))

	missing := Option{Kind: OptionPair, Label: "Broken"}
	assert.False(t, missing.Matches(""))
}

func TestOption_JSONRoundTripKeepsRepresentation(t *testing.T) {
	s, err := ParseJSON([]byte(contactJSON))
	require.NoError(t, err)

	out, err := json.Marshal(s.Fields[1].Options)
	require.NoError(t, err)
	assert.JSONEq(t, `["free", {"value":"pro","label":"Pro plan"}, {"value":"team"}, 3]`, string(out))
}

func TestParseYAML(t *testing.T) {
	doc := `
title: Feedback
fields:
  - id: rating
    label: Rating
    type: select
    required: true
    options:
      - 1
      - value: 2
        label: Two
      - ~
  - id: comment
    label: Comment
    type: textarea
`
	s, err := ParseYAML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, s.Fields, 2)

	want := []Option{
		{Kind: OptionValue, Value: float64(1)},
		{Kind: OptionPair, Value: float64(2), Label: "Two"},
	}
	if diff := cmp.Diff(want, s.Fields[0].Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, s.Fields[0].Required)
	assert.Equal(t, TypeTextarea, s.Fields[1].Type)
	assert.False(t, s.Fields[1].Required)
}

func TestParse_EmptyOptionsStayPresent(t *testing.T) {
	doc := `{"fields":[
		{"id":"none","type":"select"},
		{"id":"null","type":"select","options":null},
		{"id":"empty","type":"select","options":[]},
		{"id":"nulls","type":"select","options":[null]}
	]}`

	for name, parse := range map[string]func([]byte) (FormSchema, error){
		"json": ParseJSON,
		"yaml": ParseYAML,
	} {
		t.Run(name, func(t *testing.T) {
			s, err := parse([]byte(doc))
			require.NoError(t, err)
			assert.Nil(t, s.Fields[0].Options)
			assert.Nil(t, s.Fields[1].Options)
			assert.NotNil(t, s.Fields[2].Options)
			assert.Empty(t, s.Fields[2].Options)
			assert.NotNil(t, s.Fields[3].Options)
			assert.Empty(t, s.Fields[3].Options)
		})
	}
}

func TestFieldDefinition_MarshalKeepsEmptyOptions(t *testing.T) {
	s, err := ParseJSON([]byte(`{"fields":[
		{"id":"a","label":"A","type":"text"},
		{"id":"b","label":"B","type":"select","options":[]}
	]}`))
	require.NoError(t, err)

	out, err := json.Marshal(s.Fields)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":"a","label":"A","type":"text","required":false},
		{"id":"b","label":"B","type":"select","required":false,"options":[]}
	]`, string(out))

	again, err := ParseJSON(append(append([]byte(`{"fields":`), out...), '}'))
	require.NoError(t, err)
	if diff := cmp.Diff(s, again); diff != "" {
		t.Errorf("round trip changed the schema (-want +got):\n%s", diff)
	}
}

func TestParseYAML_AcceptsJSON(t *testing.T) {
	s, err := ParseYAML([]byte(contactJSON))
	require.NoError(t, err)
	assert.Equal(t, "schema-1", s.ID)
	assert.Len(t, s.Fields[1].Options, 4)
}

func TestParse_RejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not an object", `["a"]`},
		{"no fields", `{"title":"x"}`},
		{"field without id", `{"title":"x","fields":[{"label":"Name","type":"text"}]}`},
		{"option is an array", `{"fields":[{"id":"a","type":"select","options":[["x"]]}]}`},
		{"truncated", `{"fields":[`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestFieldDefinition_DisplayLabelFallsBackToID(t *testing.T) {
	assert.Equal(t, "Email", FieldDefinition{ID: "email", Label: "Email"}.DisplayLabel())
	assert.Equal(t, "email", FieldDefinition{ID: "email"}.DisplayLabel())
}

func TestFieldType_Known(t *testing.T) {
	assert.True(t, TypeSelect.Known())
	assert.False(t, FieldType("date").Known())
}
