package dto

import "github.com/noah-isme/referral-api/internal/models"

// CollegeWithReferrals is a college merged with the schools that used its code.
type CollegeWithReferrals struct {
	models.College
	ReferredSchools []models.School `json:"referredSchools"`
}

// CollegeReferrals is the dashboard view of a single college.
type CollegeReferrals struct {
	CollegeUser models.College  `json:"collegeUser"`
	Referrals   []models.School `json:"referrals"`
}

// ReferralQuery selects which schools read endpoints return.
type ReferralQuery struct {
	IncludeDisabled bool `form:"includeDisabled"`
}

// ExportFormat selects the referral report encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ReferralReport is a rendered referral export.
type ReferralReport struct {
	Filename    string
	ContentType string
	Body        []byte
}
