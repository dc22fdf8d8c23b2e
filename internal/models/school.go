package models

import "time"

// DirectReferralCode marks a School that registered without a college referral.
const DirectReferralCode = "DIRECT"

// School is a student registrant, identified by phone number. It belongs to
// the College whose referral code equals ReferralCode.
type School struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	PhoneNumber     string    `db:"phone_number" json:"phoneNumber"`
	SchoolName      string    `db:"school_name" json:"schoolName"`
	Standard        string    `db:"standard" json:"standard"`
	Address         string    `db:"address" json:"address"`
	ReferralCode    string    `db:"referral_code" json:"referralCode"`
	FeedbackDetails *string   `db:"feedback_details" json:"feedbackDetails,omitempty"`
	IsEnabled       bool      `db:"is_enabled" json:"isEnabled"`
	VideoURL        *string   `db:"video_url" json:"videoUrl,omitempty"`
	VideoKey        *string   `db:"video_key" json:"videoKey,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `db:"updated_at" json:"updatedAt"`
}

// IsDirect reports whether the school registered without a referral.
func (s *School) IsDirect() bool {
	return s.ReferralCode == DirectReferralCode
}

// SchoolFilter narrows school listings.
type SchoolFilter struct {
	ReferralCodes   []string
	ExcludeDirect   bool
	IncludeDisabled bool
}
