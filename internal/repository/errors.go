package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Unique constraint names declared in the initial migration.
const (
	ConstraintAdminUsername       = "admins_username_key"
	ConstraintCollegeEmail        = "colleges_email_key"
	ConstraintCollegeReferralCode = "colleges_referral_code_key"
	ConstraintSchoolPhone         = "schools_phone_number_key"
)

const uniqueViolation = "23505"

// ErrDuplicate matches any DuplicateError via errors.Is.
var ErrDuplicate = errors.New("duplicate record")

// DuplicateError reports which unique constraint rejected a write.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate record: %s", e.Constraint)
}

// Is lets errors.Is(err, ErrDuplicate) succeed for every constraint.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// IsDuplicate reports whether err is a unique violation on constraint. An
// empty constraint matches any unique violation.
func IsDuplicate(err error, constraint string) bool {
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		return false
	}
	return constraint == "" || dup.Constraint == constraint
}

// translateWriteError maps Postgres unique violations to DuplicateError and
// wraps everything else with op.
func translateWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return &DuplicateError{Constraint: pqErr.Constraint}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isRecordID reports whether id can address a row. Primary keys are UUIDs, so
// anything else can match nothing and is answered with sql.ErrNoRows instead
// of letting Postgres reject the cast.
func isRecordID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
