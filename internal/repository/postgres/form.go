package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sakif/promptforms/internal/apperror"
	"github.com/sakif/promptforms/internal/model"
)

func (db *DB) CreateForm(ctx context.Context, form *model.Form) error {
	doc, err := json.Marshal(form.Schema)
	if err != nil {
		return fmt.Errorf("postgres: encoding form schema: %w", err)
	}

	now := time.Now().UTC()
	row := formRow{
		ID:         xid.New().String(),
		Title:      form.Title,
		SchemaJSON: datatypes.JSON(doc),
		OwnerID:    form.OwnerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := db.gdb.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("postgres: creating form: %w", err)
	}

	form.ID = row.ID
	form.CreatedAt = row.CreatedAt
	form.UpdatedAt = row.UpdatedAt
	return nil
}

func (db *DB) GetFormByID(ctx context.Context, id, ownerID string) (*model.Form, error) {
	q := db.gdb.WithContext(ctx).Where("id = ? AND NOT is_deleted", id)
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}

	var row formRow
	if err := q.Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("form", id)
		}
		return nil, fmt.Errorf("postgres: getting form %s: %w", id, err)
	}
	return row.toModel()
}

type formListRow struct {
	formRow
	SubmissionCount int
}

func (db *DB) ListFormsByOwner(ctx context.Context, ownerID string) ([]model.Form, error) {
	var rows []formListRow
	err := db.gdb.WithContext(ctx).
		Table("forms AS f").
		Select("f.*, (SELECT COUNT(*) FROM submissions s WHERE s.form_id = f.id) AS submission_count").
		Where("f.owner_id = ? AND NOT f.is_deleted", ownerID).
		Order("f.created_at DESC, f.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: listing forms: %w", err)
	}

	forms := make([]model.Form, 0, len(rows))
	for _, r := range rows {
		f, err := r.toModel()
		if err != nil {
			return nil, err
		}
		f.SubmissionCount = r.SubmissionCount
		forms = append(forms, *f)
	}
	return forms, nil
}

func (db *DB) SoftDeleteForm(ctx context.Context, id, ownerID string) error {
	res := db.gdb.WithContext(ctx).
		Model(&formRow{}).
		Where("id = ? AND owner_id = ? AND NOT is_deleted", id, ownerID).
		Updates(map[string]any{"is_deleted": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return fmt.Errorf("postgres: deleting form %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("form", id)
	}
	return nil
}

func (r formRow) toModel() (*model.Form, error) {
	f := &model.Form{
		ID:        r.ID,
		Title:     r.Title,
		OwnerID:   r.OwnerID,
		IsDeleted: r.IsDeleted,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if err := json.Unmarshal(r.SchemaJSON, &f.Schema); err != nil {
		return nil, fmt.Errorf("postgres: decoding schema of form %s: %w", r.ID, err)
	}
	return f, nil
}
