package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/promptforms/internal/auth"
	"github.com/sakif/promptforms/internal/generator"
	"github.com/sakif/promptforms/internal/model"
	"github.com/sakif/promptforms/internal/repository/sqlite"
	"github.com/sakif/promptforms/internal/schema"
)

// fixture wires every service to one in-memory database, the way main does
// with a real one.
type fixture struct {
	db          *sqlite.DB
	cache       *fakeCache
	forms       *FormService
	submissions *SubmissionService
	auth        *AuthService
	tokens      *auth.TokenService
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture(t *testing.T, gen generator.Generator) *fixture {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("service-test-secret-32-chars!!!!", 0)
	require.NoError(t, err)

	if gen == nil {
		gen = generator.Static{Response: []byte(generator.SampleSchema)}
	}

	logger := testLogger()
	fc := newFakeCache()
	forms := NewFormService(db, db, gen, fc, logger)
	return &fixture{
		db:          db,
		cache:       fc,
		forms:       forms,
		submissions: NewSubmissionService(forms, db, db, logger),
		auth:        NewAuthService(db, tokens, auth.NewPasswordServiceWithCost(bcrypt.MinCost), logger),
		tokens:      tokens,
	}
}

// user creates a password account and returns its ID.
func (f *fixture) user(t *testing.T, email string) string {
	t.Helper()
	res, err := f.auth.Signup(context.Background(), email, "password123")
	require.NoError(t, err)
	return res.User.ID
}

func (f *fixture) form(t *testing.T, ownerID string) *model.Form {
	t.Helper()
	fs := contactSchema()
	form, err := f.forms.Create(context.Background(), ownerID, "Contact", &fs)
	require.NoError(t, err)
	return form
}

func contactSchema() schema.FormSchema {
	return schema.FormSchema{
		Title: "Contact",
		Fields: []schema.FieldDefinition{
			{ID: "name", Label: "Name", Type: schema.TypeText, Required: true},
			{ID: "email", Label: "Email", Type: schema.TypeEmail, Required: true},
			{ID: "age", Label: "Age", Type: schema.TypeNumber},
			{ID: "plan", Label: "Plan", Type: schema.TypeSelect, Options: []schema.Option{
				{Kind: schema.OptionPair, Value: "free", Label: "Free"},
				{Kind: schema.OptionPair, Value: "pro", Label: "Pro"},
			}},
		},
	}
}

// fakeCache is an in-memory FormCache that records evictions.
type fakeCache struct {
	mu          sync.Mutex
	forms       map[string]model.Form
	hits        int
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{forms: make(map[string]model.Form)}
}

func (c *fakeCache) Get(_ context.Context, id string) (*model.Form, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.forms[id]
	if !ok {
		return nil, false
	}
	c.hits++
	return &f, true
}

func (c *fakeCache) Set(_ context.Context, f *model.Form) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forms[f.ID] = *f
}

func (c *fakeCache) Invalidate(_ context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.forms, id)
	c.invalidated = append(c.invalidated, id)
}
