package models

import "time"

// College is a referring institution identified by email. ReferralCode is
// generated at signup and never changes.
type College struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	Email            string    `db:"email" json:"email"`
	CollegeName      string    `db:"college_name" json:"collegeName"`
	YearOfGraduation int       `db:"year_of_graduation" json:"yearOfGraduation"`
	PhoneNumber      string    `db:"phone_number" json:"phoneNumber"`
	ReferralCode     string    `db:"referral_code" json:"referralCode"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}
