package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/promptforms/internal/model"
	"github.com/sakif/promptforms/internal/repository"
)

var _ repository.SubmissionRepository = (*DB)(nil)

const submissionColumns = `s.id, s.form_id, s.data, s.created_at`

// Newest first; rowid breaks ties between submissions stored in the same
// clock tick so the order stays stable across pages.
const submissionOrder = `ORDER BY s.created_at DESC, s.rowid DESC`

// CreateSubmission inserts sub in a single statement, assigning its ID and
// creation time.
func (db *DB) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	doc, err := marshalJSON(sub.Data)
	if err != nil {
		return fmt.Errorf("sqlite: encoding submission data: %w", err)
	}

	sub.ID = xid.New().String()
	sub.CreatedAt = time.Now().UTC()

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO submissions (id, form_id, data, created_at) VALUES (?, ?, ?, ?)`,
		sub.ID, sub.FormID, doc, sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating submission for form %s: %w", sub.FormID, err)
	}
	return nil
}

func (db *DB) CountSubmissions(ctx context.Context, formID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE form_id = ?`, formID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting submissions of form %s: %w", formID, err)
	}
	return n, nil
}

func (db *DB) ListSubmissions(ctx context.Context, formID string, opts repository.ListOptions) ([]model.Submission, error) {
	return db.querySubmissions(ctx,
		`SELECT `+submissionColumns+` FROM submissions s
		 WHERE s.form_id = ? `+submissionOrder+` LIMIT ? OFFSET ?`,
		formID, opts.Limit, opts.Offset,
	)
}

func (db *DB) SearchSubmissions(ctx context.Context, formID string, search repository.SubmissionSearch, opts repository.ListOptions) ([]model.Submission, error) {
	cond, args := searchCondition(search)
	args = append([]any{formID}, args...)
	args = append(args, opts.Limit, opts.Offset)

	return db.querySubmissions(ctx,
		`SELECT `+submissionColumns+` FROM submissions s
		 WHERE s.form_id = ? AND `+cond+` `+submissionOrder+` LIMIT ? OFFSET ?`,
		args...,
	)
}

func (db *DB) CountSearchSubmissions(ctx context.Context, formID string, search repository.SubmissionSearch) (int, error) {
	cond, args := searchCondition(search)
	args = append([]any{formID}, args...)

	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions s WHERE s.form_id = ? AND `+cond,
		args...,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting matching submissions of form %s: %w", formID, err)
	}
	return n, nil
}

func (db *DB) AllSubmissions(ctx context.Context, formID string) ([]model.Submission, error) {
	return db.querySubmissions(ctx,
		`SELECT `+submissionColumns+` FROM submissions s
		 WHERE s.form_id = ? `+submissionOrder,
		formID,
	)
}

// searchCondition builds the WHERE fragment for a search.
//
// A field search looks at one top-level value of the data object. Booleans
// are compared by their JSON spelling and null never matches, as with a
// Postgres `data->>'field'` lookup. instr keeps the term literal: % and _
// have no special meaning.
func searchCondition(search repository.SubmissionSearch) (string, []any) {
	if search.Field != "" {
		return `EXISTS (
			SELECT 1 FROM json_each(s.data) j
			WHERE j.key = ?
			  AND instr(casefold(CASE j.type
			          WHEN 'true' THEN 'true'
			          WHEN 'false' THEN 'false'
			          WHEN 'null' THEN NULL
			          ELSE j.value END), casefold(?)) > 0)`,
			[]any{search.Field, search.Term}
	}
	return `instr(casefold(s.data), casefold(?)) > 0`, []any{search.Term}
}

func (db *DB) querySubmissions(ctx context.Context, query string, args ...any) ([]model.Submission, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing submissions: %w", err)
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var (
			s   model.Submission
			doc string
		)
		if err := rows.Scan(&s.ID, &s.FormID, &doc, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning submission row: %w", err)
		}
		if err := json.Unmarshal([]byte(doc), &s.Data); err != nil {
			return nil, fmt.Errorf("sqlite: decoding submission %s: %w", s.ID, err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating submissions: %w", err)
	}
	return subs, nil
}
