package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sakif/promptforms/internal/repository"
	"github.com/sakif/promptforms/internal/schema"
)

// dryRunDB builds statements without ever connecting.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return gdb
}

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"bob", "%bob%"},
		{"50%", `%50\%%`},
		{"a_b", `%a\_b%`},
		{`c:\tmp`, `%c:\\tmp%`},
		{"", "%%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsPattern(tt.term), "term %q", tt.term)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505"}
	assert.True(t, isUniqueViolation(dup))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(fmt.Errorf("boom")))
}

func TestSearchScope_FieldScoped(t *testing.T) {
	stmt := dryRunDB(t).
		Model(&submissionRow{}).
		Where("form_id = ?", "f1").
		Scopes(searchScope(repository.SubmissionSearch{Term: "50%", Field: "name"})).
		Find(&[]submissionRow{}).
		Statement

	assert.Contains(t, stmt.SQL.String(), `data ->> $2 ILIKE $3`)
	assert.Equal(t, []any{"f1", "name", `%50\%%`}, stmt.Vars)
}

func TestSearchScope_FreeText(t *testing.T) {
	stmt := dryRunDB(t).
		Model(&submissionRow{}).
		Where("form_id = ?", "f1").
		Scopes(searchScope(repository.SubmissionSearch{Term: "Bob"})).
		Find(&[]submissionRow{}).
		Statement

	assert.Contains(t, stmt.SQL.String(), `data::text ILIKE $2`)
	assert.Equal(t, []any{"f1", "%Bob%"}, stmt.Vars)
}

func TestFormRow_ToModel(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	row := formRow{
		ID:         "f1",
		Title:      "Contact",
		SchemaJSON: datatypes.JSON(`{"title":"Contact","fields":[{"id":"plan","label":"Plan","type":"select","required":false,"options":["a",{"value":"b","label":"B"}]}]}`),
		OwnerID:    "u1",
		CreatedAt:  created,
		UpdatedAt:  created,
	}

	f, err := row.toModel()
	require.NoError(t, err)
	assert.Equal(t, "u1", f.OwnerID)
	require.Len(t, f.Schema.Fields, 1)
	assert.Equal(t, []schema.Option{
		{Kind: schema.OptionValue, Value: "a"},
		{Kind: schema.OptionPair, Value: "b", Label: "B"},
	}, f.Schema.Fields[0].Options)

	row.SchemaJSON = datatypes.JSON(`not json`)
	_, err = row.toModel()
	assert.Error(t, err)
}
