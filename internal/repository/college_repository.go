package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/referral-api/internal/models"
)

// CollegeRepository provides database access for colleges.
type CollegeRepository struct {
	db *sqlx.DB
}

// NewCollegeRepository creates a new instance of CollegeRepository.
func NewCollegeRepository(db *sqlx.DB) *CollegeRepository {
	return &CollegeRepository{db: db}
}

const collegeColumns = `id, name, password_hash, email, college_name, year_of_graduation, phone_number, referral_code, created_at, updated_at`

// Create inserts a college. Both the email and the referral code are unique;
// callers inspect DuplicateError.Constraint to tell them apart.
func (r *CollegeRepository) Create(ctx context.Context, college *models.College) error {
	if college.ID == "" {
		college.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if college.CreatedAt.IsZero() {
		college.CreatedAt = now
	}
	college.UpdatedAt = now
	const query = `INSERT INTO colleges (id, name, password_hash, email, college_name, year_of_graduation, phone_number, referral_code, created_at, updated_at)
	VALUES (:id, :name, :password_hash, :email, :college_name, :year_of_graduation, :phone_number, :referral_code, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, college); err != nil {
		return translateWriteError("create college", err)
	}
	return nil
}

// FindByEmail returns a college by its login email.
func (r *CollegeRepository) FindByEmail(ctx context.Context, email string) (*models.College, error) {
	query := `SELECT ` + collegeColumns + ` FROM colleges WHERE email = $1 LIMIT 1`
	var college models.College
	if err := r.db.GetContext(ctx, &college, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find college by email: %w", err)
	}
	return &college, nil
}

// FindByID returns a college by identifier.
func (r *CollegeRepository) FindByID(ctx context.Context, id string) (*models.College, error) {
	if !isRecordID(id) {
		return nil, sql.ErrNoRows
	}
	query := `SELECT ` + collegeColumns + ` FROM colleges WHERE id = $1 LIMIT 1`
	var college models.College
	if err := r.db.GetContext(ctx, &college, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find college by id: %w", err)
	}
	return &college, nil
}

// List returns every college ordered by signup time.
func (r *CollegeRepository) List(ctx context.Context) ([]models.College, error) {
	query := `SELECT ` + collegeColumns + ` FROM colleges ORDER BY created_at ASC, id ASC`
	var colleges []models.College
	if err := r.db.SelectContext(ctx, &colleges, query); err != nil {
		return nil, fmt.Errorf("list colleges: %w", err)
	}
	return colleges, nil
}
