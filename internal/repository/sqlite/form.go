package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/promptforms/internal/apperror"
	"github.com/sakif/promptforms/internal/model"
	"github.com/sakif/promptforms/internal/repository"
)

var _ repository.FormRepository = (*DB)(nil)

// CreateForm inserts form, assigning its ID and timestamps.
func (db *DB) CreateForm(ctx context.Context, form *model.Form) error {
	doc, err := marshalJSON(form.Schema)
	if err != nil {
		return fmt.Errorf("sqlite: encoding form schema: %w", err)
	}

	form.ID = xid.New().String()
	now := time.Now().UTC()
	form.CreatedAt = now
	form.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO forms (id, title, schema_json, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		form.ID,
		form.Title,
		doc,
		form.OwnerID,
		form.CreatedAt,
		form.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating form: %w", err)
	}
	return nil
}

// GetFormByID returns a live form. ownerID "" skips the ownership check,
// which is how the public endpoints look forms up.
func (db *DB) GetFormByID(ctx context.Context, id, ownerID string) (*model.Form, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, title, schema_json, owner_id, created_at, updated_at
		 FROM forms
		 WHERE id = ? AND is_deleted = 0 AND (? = '' OR owner_id = ?)`,
		id, ownerID, ownerID,
	)

	var (
		f   model.Form
		doc string
	)
	err := row.Scan(&f.ID, &f.Title, &doc, &f.OwnerID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("form", id)
		}
		return nil, fmt.Errorf("sqlite: getting form %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(doc), &f.Schema); err != nil {
		return nil, fmt.Errorf("sqlite: decoding schema of form %s: %w", id, err)
	}
	return &f, nil
}

// ListFormsByOwner returns the owner's live forms, newest first, each with
// its submission count.
func (db *DB) ListFormsByOwner(ctx context.Context, ownerID string) ([]model.Form, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT f.id, f.title, f.schema_json, f.owner_id, f.created_at, f.updated_at,
		        (SELECT COUNT(*) FROM submissions s WHERE s.form_id = f.id)
		 FROM forms f
		 WHERE f.owner_id = ? AND f.is_deleted = 0
		 ORDER BY f.created_at DESC, f.rowid DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing forms: %w", err)
	}
	defer rows.Close()

	forms := []model.Form{}
	for rows.Next() {
		var (
			f   model.Form
			doc string
		)
		if err := rows.Scan(
			&f.ID, &f.Title, &doc, &f.OwnerID,
			&f.CreatedAt, &f.UpdatedAt, &f.SubmissionCount,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning form row: %w", err)
		}
		if err := json.Unmarshal([]byte(doc), &f.Schema); err != nil {
			return nil, fmt.Errorf("sqlite: decoding schema of form %s: %w", f.ID, err)
		}
		forms = append(forms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating forms: %w", err)
	}
	return forms, nil
}

// SoftDeleteForm hides a form from every lookup. Its submissions stay.
func (db *DB) SoftDeleteForm(ctx context.Context, id, ownerID string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE forms SET is_deleted = 1, updated_at = ?
		 WHERE id = ? AND owner_id = ? AND is_deleted = 0`,
		time.Now().UTC(), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting form %s: %w", id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("form", id)
	}
	return nil
}

// marshalJSON encodes v without HTML escaping, so the stored text contains
// "<" rather than "\u003c" and whole-document search sees what was submitted.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
