package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sakif/promptforms/internal/model"
	"github.com/sakif/promptforms/internal/repository"
)

// xids sort by creation time within a process, so id breaks created_at ties.
const submissionOrder = "created_at DESC, id DESC"

func (db *DB) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	doc, err := json.Marshal(sub.Data)
	if err != nil {
		return fmt.Errorf("postgres: encoding submission data: %w", err)
	}

	row := submissionRow{
		ID:        xid.New().String(),
		FormID:    sub.FormID,
		Data:      datatypes.JSON(doc),
		CreatedAt: time.Now().UTC(),
	}
	if err := db.gdb.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("postgres: creating submission for form %s: %w", sub.FormID, err)
	}

	sub.ID = row.ID
	sub.CreatedAt = row.CreatedAt
	return nil
}

func (db *DB) CountSubmissions(ctx context.Context, formID string) (int, error) {
	return db.count(db.forForm(ctx, formID))
}

func (db *DB) ListSubmissions(ctx context.Context, formID string, opts repository.ListOptions) ([]model.Submission, error) {
	return db.find(db.forForm(ctx, formID).Limit(opts.Limit).Offset(opts.Offset))
}

func (db *DB) SearchSubmissions(ctx context.Context, formID string, search repository.SubmissionSearch, opts repository.ListOptions) ([]model.Submission, error) {
	q := db.forForm(ctx, formID).Scopes(searchScope(search))
	return db.find(q.Limit(opts.Limit).Offset(opts.Offset))
}

func (db *DB) CountSearchSubmissions(ctx context.Context, formID string, search repository.SubmissionSearch) (int, error) {
	return db.count(db.forForm(ctx, formID).Scopes(searchScope(search)))
}

func (db *DB) AllSubmissions(ctx context.Context, formID string) ([]model.Submission, error) {
	return db.find(db.forForm(ctx, formID))
}

func (db *DB) forForm(ctx context.Context, formID string) *gorm.DB {
	return db.gdb.WithContext(ctx).Model(&submissionRow{}).Where("form_id = ?", formID)
}

func (db *DB) count(q *gorm.DB) (int, error) {
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("postgres: counting submissions: %w", err)
	}
	return int(n), nil
}

func (db *DB) find(q *gorm.DB) ([]model.Submission, error) {
	var rows []submissionRow
	if err := q.Order(submissionOrder).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("postgres: listing submissions: %w", err)
	}

	subs := make([]model.Submission, 0, len(rows))
	for _, r := range rows {
		s := model.Submission{ID: r.ID, FormID: r.FormID, CreatedAt: r.CreatedAt}
		if err := json.Unmarshal(r.Data, &s.Data); err != nil {
			return nil, fmt.Errorf("postgres: decoding submission %s: %w", r.ID, err)
		}
		subs = append(subs, s)
	}
	return subs, nil
}
