package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/referral-api/internal/models"
)

// SchoolRepository provides database access for school registrants.
type SchoolRepository struct {
	db *sqlx.DB
	sb squirrel.StatementBuilderType
}

// NewSchoolRepository creates a new instance of SchoolRepository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var schoolColumns = []string{
	"id", "name", "password_hash", "phone_number", "school_name", "standard", "address",
	"referral_code", "feedback_details", "is_enabled", "video_url", "video_key", "created_at", "updated_at",
}

// Create inserts a school. A taken phone number yields a DuplicateError.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	if school.ReferralCode == "" {
		school.ReferralCode = models.DirectReferralCode
	}
	now := time.Now().UTC()
	if school.CreatedAt.IsZero() {
		school.CreatedAt = now
	}
	school.UpdatedAt = now
	const query = `INSERT INTO schools (id, name, password_hash, phone_number, school_name, standard, address, referral_code, feedback_details, is_enabled, video_url, video_key, created_at, updated_at)
	VALUES (:id, :name, :password_hash, :phone_number, :school_name, :standard, :address, :referral_code, :feedback_details, :is_enabled, :video_url, :video_key, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, school); err != nil {
		return translateWriteError("create school", err)
	}
	return nil
}

// FindByPhone returns a school by its login phone number.
func (r *SchoolRepository) FindByPhone(ctx context.Context, phone string) (*models.School, error) {
	return r.findOne(ctx, "find school by phone", squirrel.Eq{"phone_number": phone})
}

// FindByID returns a school by identifier regardless of its enabled state.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	if !isRecordID(id) {
		return nil, sql.ErrNoRows
	}
	return r.findOne(ctx, "find school by id", squirrel.Eq{"id": id})
}

func (r *SchoolRepository) findOne(ctx context.Context, op string, where squirrel.Sqlizer) (*models.School, error) {
	query, args, err := r.sb.Select(schoolColumns...).From("schools").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &school, nil
}

// List returns schools matching filter in signup order. Disabled schools are
// skipped unless filter.IncludeDisabled is set.
func (r *SchoolRepository) List(ctx context.Context, filter models.SchoolFilter) ([]models.School, error) {
	q := r.sb.Select(schoolColumns...).From("schools")
	if filter.ReferralCodes != nil {
		q = q.Where(squirrel.Eq{"referral_code": filter.ReferralCodes})
	}
	if filter.ExcludeDirect {
		q = q.Where(squirrel.NotEq{"referral_code": models.DirectReferralCode})
	}
	if !filter.IncludeDisabled {
		q = q.Where(squirrel.Eq{"is_enabled": true})
	}
	query, args, err := q.OrderBy("created_at ASC", "id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("list schools: build query: %w", err)
	}

	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, query, args...); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// SetEnabled flips the soft-delete flag. Writing the current value again is
// not an error; a missing school returns sql.ErrNoRows.
func (r *SchoolRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if !isRecordID(id) {
		return sql.ErrNoRows
	}
	query, args, err := r.sb.Update("schools").
		Set("is_enabled", enabled).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("set school enabled: build query: %w", err)
	}
	return r.execAffectingOne(ctx, "set school enabled", query, args...)
}

// UpdateVideo records the stored object key and its public URL.
func (r *SchoolRepository) UpdateVideo(ctx context.Context, id, key, url string) error {
	if !isRecordID(id) {
		return sql.ErrNoRows
	}
	query, args, err := r.sb.Update("schools").
		Set("video_url", url).
		Set("video_key", key).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("update school video: build query: %w", err)
	}
	return r.execAffectingOne(ctx, "update school video", query, args...)
}

func (r *SchoolRepository) execAffectingOne(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
