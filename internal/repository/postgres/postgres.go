// Package postgres implements the repository interfaces on PostgreSQL with
// GORM. Schemas and submission data live in jsonb columns so searches run
// inside the database with ->> and ::text.
package postgres

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sakif/promptforms/internal/repository"
)

var _ repository.Store = (*DB)(nil)

// DB wraps a *gorm.DB and implements repository.Store.
type DB struct {
	gdb *gorm.DB
}

type userRow struct {
	ID           string `gorm:"primaryKey;type:varchar(20)"`
	Email        string `gorm:"type:text;not null;default:'';index:idx_users_email,unique,where:email <> ''"`
	PasswordHash string `gorm:"type:text;not null;default:''"`
	GitHubID     int64  `gorm:"column:github_id;not null;default:0;index:idx_users_github_id,unique,where:github_id <> 0"`
	Login        string `gorm:"type:text;not null;default:''"`
	AvatarURL    string `gorm:"type:text;not null;default:''"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type formRow struct {
	ID         string         `gorm:"primaryKey;type:varchar(20)"`
	Title      string         `gorm:"type:text;not null"`
	SchemaJSON datatypes.JSON `gorm:"column:schema_json;type:jsonb;not null"`
	OwnerID    string         `gorm:"type:varchar(20);not null;index:idx_forms_owner_created,priority:1"`
	IsDeleted  bool           `gorm:"not null;default:false"`
	CreatedAt  time.Time      `gorm:"index:idx_forms_owner_created,priority:2"`
	UpdatedAt  time.Time
}

func (formRow) TableName() string { return "forms" }

type submissionRow struct {
	ID        string         `gorm:"primaryKey;type:varchar(20)"`
	FormID    string         `gorm:"type:varchar(20);not null;index:idx_submissions_form_created,priority:1"`
	Data      datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time      `gorm:"index:idx_submissions_form_created,priority:2"`
}

func (submissionRow) TableName() string { return "submissions" }

// New connects to dsn and migrates the schema.
func New(dsn string) (*DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: opening database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: getting connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxIdleTime(time.Minute)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)

	if err := gdb.AutoMigrate(&userRow{}, &formRow{}, &submissionRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("postgres: running migrations: %w", err)
	}

	return &DB{gdb: gdb}, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	sqlDB, err := db.gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isUniqueViolation reports SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns a search term into an ILIKE pattern that matches it
// literally anywhere in the text.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// searchScope narrows a submissions query to rows matching search.
func searchScope(search repository.SubmissionSearch) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if search.Field != "" {
			return q.Where(`data ->> ? ILIKE ? ESCAPE '\'`, search.Field, containsPattern(search.Term))
		}
		return q.Where(`data::text ILIKE ? ESCAPE '\'`, containsPattern(search.Term))
	}
}
